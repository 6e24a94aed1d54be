package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = "e.id, e.group_id, e.paid_by_id, e.amount, e.description, e.split_type, e.created_at"

const splitColumns = "s.id, s.expense_id, s.member_id, s.amount, s.settled, s.settled_at"

func scanExpense(row scanner) (*models.GroupExpense, error) {
	e := &models.GroupExpense{}
	var splitType string
	if err := row.Scan(&e.ID, &e.GroupID, &e.PaidByID, &e.Amount, &e.Description, &splitType, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.SplitType = models.SplitType(splitType)
	return e, nil
}

func scanSplit(row scanner) (*models.Split, error) {
	s := &models.Split{}
	var settledAt sql.NullInt64
	if err := row.Scan(&s.ID, &s.ExpenseID, &s.MemberID, &s.Amount, &s.Settled, &settledAt); err != nil {
		return nil, err
	}
	s.SettledAt = settledAt.Int64
	return s, nil
}

// InsertExpense persists an expense row. Splits are inserted separately.
func (q *queries) InsertExpense(ctx context.Context, expense *models.GroupExpense) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO group_expenses (id, group_id, paid_by_id, amount, description, split_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.PaidByID, expense.Amount,
		expense.Description, string(expense.SplitType), expense.CreatedAt,
	)
	if err != nil {
		return q.insertErr("expense", err)
	}
	return nil
}

// InsertSplit persists one split row.
func (q *queries) InsertSplit(ctx context.Context, split *models.Split) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO splits (id, expense_id, member_id, amount, settled, settled_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		split.ID, split.ExpenseID, split.MemberID, split.Amount,
		split.Settled, nullInt64(split.SettledAt),
	)
	if err != nil {
		return q.insertErr("split", err)
	}
	return nil
}

// GetExpense retrieves an expense with its splits.
func (q *queries) GetExpense(ctx context.Context, expenseID string) (*models.GroupExpense, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM group_expenses e WHERE e.id = ?",
		expenseID,
	)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	splits, err := q.listSplits(ctx,
		"SELECT "+splitColumns+" FROM splits s WHERE s.expense_id = ? ORDER BY s.id",
		expenseID,
	)
	if err != nil {
		return nil, err
	}
	e.Splits = splits
	return e, nil
}

// ListExpenses retrieves all expenses of a group, oldest first, with their splits.
func (q *queries) ListExpenses(ctx context.Context, groupID string) ([]models.GroupExpense, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM group_expenses e WHERE e.group_id = ? ORDER BY e.created_at, e.id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.GroupExpense
	index := make(map[string]int)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		index[e.ID] = len(expenses)
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	splits, err := q.listSplits(ctx,
		"SELECT "+splitColumns+" FROM splits s JOIN group_expenses e ON e.id = s.expense_id"+
			" WHERE e.group_id = ? ORDER BY s.expense_id, s.id",
		groupID,
	)
	if err != nil {
		return nil, err
	}
	for _, s := range splits {
		if i, ok := index[s.ExpenseID]; ok {
			expenses[i].Splits = append(expenses[i].Splits, s)
		}
	}
	return expenses, nil
}

func (q *queries) listSplits(ctx context.Context, query string, args ...any) ([]models.Split, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		s, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

// LockSplit retrieves a split and locks its row until the transaction ends.
func (q *queries) LockSplit(ctx context.Context, splitID string) (*models.Split, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+splitColumns+" FROM splits s WHERE s.id = ?"+q.dialect.forUpdate,
		splitID,
	)
	s, err := scanSplit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split %s: %w", splitID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split: %w", err)
	}
	return s, nil
}

// MarkSplitSettled flips an unsettled split to settled.
func (q *queries) MarkSplitSettled(ctx context.Context, splitID string, settledAt int64) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE splits SET settled = ?, settled_at = ? WHERE id = ? AND settled = ?`,
		true, settledAt, splitID, false,
	)
	if err != nil {
		return false, fmt.Errorf("failed to settle split: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to settle split: %w", err)
	}
	return n > 0, nil
}
