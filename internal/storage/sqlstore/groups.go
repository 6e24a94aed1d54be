package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const groupColumns = "g.id, g.name, g.description, g.icon, g.created_by, g.active, g.created_at"

const memberColumns = "m.id, m.group_id, m.user_id, m.name, m.email, m.phone, m.status, m.balance, m.created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(row scanner) (*models.Group, error) {
	g := &models.Group{}
	var description, icon sql.NullString
	if err := row.Scan(&g.ID, &g.Name, &description, &icon, &g.CreatedBy, &g.Active, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.Description = description.String
	g.Icon = icon.String
	return g, nil
}

func scanMember(row scanner) (*models.GroupMember, error) {
	m := &models.GroupMember{}
	var userID, email, phone sql.NullString
	var status string
	if err := row.Scan(&m.ID, &m.GroupID, &userID, &m.Name, &email, &phone, &status, &m.Balance, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.UserID = userID.String
	m.Email = email.String
	m.Phone = phone.String
	m.Status = models.MemberStatus(status)
	return m, nil
}

// InsertGroup persists a new group.
func (q *queries) InsertGroup(ctx context.Context, group *models.Group) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO `groups` (id, name, description, icon, created_by, active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		group.ID, group.Name, nullString(group.Description), nullString(group.Icon),
		group.CreatedBy, group.Active, group.CreatedAt,
	)
	if err != nil {
		return q.insertErr("group", err)
	}
	return nil
}

// GetGroup retrieves a group by ID without members or expenses.
func (q *queries) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return q.getGroup(ctx, groupID, "")
}

// LockGroup retrieves a group and locks its row until the transaction ends.
func (q *queries) LockGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return q.getGroup(ctx, groupID, q.dialect.forUpdate)
}

func (q *queries) getGroup(ctx context.Context, groupID, suffix string) (*models.Group, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM `groups` g WHERE g.id = ?"+suffix,
		groupID,
	)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// SetGroupActive flips the soft-delete flag.
func (q *queries) SetGroupActive(ctx context.Context, groupID string, active bool) error {
	res, err := q.db.ExecContext(ctx, "UPDATE `groups` SET active = ? WHERE id = ?", active, groupID)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// ListGroupsForUser retrieves the active groups the user belongs to, newest first.
func (q *queries) ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT DISTINCT "+groupColumns+" FROM `groups` g"+
			" JOIN group_members m ON m.group_id = g.id"+
			" WHERE m.user_id = ? AND m.status != ? AND g.active = ?"+
			" ORDER BY g.created_at DESC, g.id",
		userID, string(models.MemberDeclined), true,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// ListActiveGroupIDs returns the IDs of all groups that are not soft-deleted.
func (q *queries) ListActiveGroupIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT id FROM `groups` WHERE active = ? ORDER BY created_at, id", true)
	if err != nil {
		return nil, fmt.Errorf("failed to list group ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group ids: %w", err)
	}
	return ids, nil
}

// InsertMember persists a new group member.
func (q *queries) InsertMember(ctx context.Context, member *models.GroupMember) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO group_members (id, group_id, user_id, name, email, phone, status, balance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID, member.GroupID, nullString(member.UserID), member.Name,
		nullString(member.Email), nullString(member.Phone), string(member.Status),
		member.Balance, member.CreatedAt,
	)
	if err != nil {
		return q.insertErr("member", err)
	}
	return nil
}

// GetMember retrieves a member by ID.
func (q *queries) GetMember(ctx context.Context, memberID string) (*models.GroupMember, error) {
	return q.getMember(ctx, memberID, "")
}

// LockMember retrieves a member and locks its row until the transaction ends.
func (q *queries) LockMember(ctx context.Context, memberID string) (*models.GroupMember, error) {
	return q.getMember(ctx, memberID, q.dialect.forUpdate)
}

func (q *queries) getMember(ctx context.Context, memberID, suffix string) (*models.GroupMember, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM group_members m WHERE m.id = ?"+suffix,
		memberID,
	)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// ListMembers retrieves every member of a group in insertion order.
func (q *queries) ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	return q.listMembers(ctx,
		"SELECT "+memberColumns+" FROM group_members m WHERE m.group_id = ? ORDER BY m.created_at, m.id",
		groupID,
	)
}

// LockJoinedMembers retrieves and locks the joined members of a group.
func (q *queries) LockJoinedMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	return q.listMembers(ctx,
		"SELECT "+memberColumns+" FROM group_members m WHERE m.group_id = ? AND m.status = ?"+
			" ORDER BY m.created_at, m.id"+q.dialect.forUpdate,
		groupID, string(models.MemberJoined),
	)
}

// ListPendingInvites retrieves a user's pending memberships in active groups.
func (q *queries) ListPendingInvites(ctx context.Context, userID string) ([]models.GroupMember, error) {
	return q.listMembers(ctx,
		"SELECT "+memberColumns+" FROM group_members m JOIN `groups` g ON g.id = m.group_id"+
			" WHERE m.user_id = ? AND m.status = ? AND g.active = ?"+
			" ORDER BY m.created_at, m.id",
		userID, string(models.MemberPending), true,
	)
}

func (q *queries) listMembers(ctx context.Context, query string, args ...any) ([]models.GroupMember, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// FindMembership retrieves the user's most relevant membership in a group.
func (q *queries) FindMembership(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM group_members m WHERE m.group_id = ? AND m.user_id = ?"+
			" ORDER BY CASE m.status WHEN 'joined' THEN 0 WHEN 'pending' THEN 1 ELSE 2 END, m.created_at DESC"+
			" LIMIT 1",
		groupID, userID,
	)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("membership of %s in %s: %w", userID, groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return m, nil
}

// FindActiveMember retrieves a non-declined member matching any contact handle.
func (q *queries) FindActiveMember(ctx context.Context, groupID string, match storage.MemberMatch) (*models.GroupMember, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM group_members m WHERE m.group_id = ? AND m.status != ?"+
			" AND (m.email = ? OR m.phone = ? OR m.user_id = ?)"+
			" ORDER BY m.created_at LIMIT 1",
		groupID, string(models.MemberDeclined),
		nullString(match.Email), nullString(match.Phone), nullString(match.UserID),
	)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active member in %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return m, nil
}

// ResolveInvite moves a pending membership to its final status.
func (q *queries) ResolveInvite(ctx context.Context, groupID, userID string, status models.MemberStatus) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE group_members SET status = ? WHERE group_id = ? AND user_id = ? AND status = ?`,
		string(status), groupID, userID, string(models.MemberPending),
	)
	if err != nil {
		if q.dialect.isDuplicate(err) {
			return false, fmt.Errorf("failed to resolve invite: %w: %v", storage.ErrDuplicate, err)
		}
		return false, fmt.Errorf("failed to resolve invite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to resolve invite: %w", err)
	}
	return n > 0, nil
}

// UpdateMemberBalance overwrites a member's materialised balance.
func (q *queries) UpdateMemberBalance(ctx context.Context, memberID string, balance decimal.Decimal) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE group_members SET balance = ? WHERE id = ?`,
		balance, memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}
