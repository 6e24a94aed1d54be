package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
)

// Drift is a member whose stored balance disagrees with the balance derived
// from the group's splits.
type Drift struct {
	MemberID string
	Name     string
	Stored   decimal.Decimal
	Derived  decimal.Decimal
}

// ReconcileReport is the outcome of reconciling one group.
type ReconcileReport struct {
	GroupID string
	Members int
	// StoredSum is the sum of the stored balances before any repair.
	StoredSum decimal.Decimal
	Drift     []Drift
	// Repaired is true when drifted balances were overwritten.
	Repaired bool
}

// Clean reports whether no drift was found.
func (r *ReconcileReport) Clean() bool {
	return len(r.Drift) == 0
}

// Reconcile recomputes every member balance from the append-only expense and
// split rows and compares it with the stored balance column. With repair set,
// drifted balances are overwritten with the derived value in the same
// transaction.
func (s *Service) Reconcile(ctx context.Context, groupID string, repair bool) (*ReconcileReport, error) {
	const op = "Reconcile"
	var report *ReconcileReport
	err := s.store.InTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if _, err := q.LockGroup(ctx, groupID); err != nil {
			return classify(err, ErrGroupNotFound)
		}
		members, err := q.ListMembers(ctx, groupID)
		if err != nil {
			return err
		}
		expenses, err := q.ListExpenses(ctx, groupID)
		if err != nil {
			return err
		}

		derived := calculator.DeriveBalances(expenses)
		r := &ReconcileReport{GroupID: groupID, Members: len(members), StoredSum: decimal.Zero}
		for _, m := range members {
			r.StoredSum = r.StoredSum.Add(m.Balance)
			want := derived[m.ID]
			if m.Balance.Equal(want) {
				continue
			}
			r.Drift = append(r.Drift, Drift{MemberID: m.ID, Name: m.Name, Stored: m.Balance, Derived: want})
			if repair {
				if err := q.UpdateMemberBalance(ctx, m.ID, want); err != nil {
					return err
				}
			}
		}
		r.Repaired = repair && len(r.Drift) > 0
		report = r
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err, nil, "group_id", groupID)
	}

	if !report.Clean() {
		s.logger.Warn("Balance drift detected",
			"group_id", groupID,
			"members", len(report.Drift),
			"stored_sum", report.StoredSum.String(),
			"repaired", report.Repaired,
		)
	}
	return report, nil
}

// ReconcileAll reconciles every active group. A failing group does not stop
// the run; the failures are joined into the returned error.
func (s *Service) ReconcileAll(ctx context.Context, repair bool) ([]*ReconcileReport, error) {
	ids, err := s.store.ListActiveGroupIDs(ctx)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		return nil, s.fail("ReconcileAll", err, nil)
	}

	var (
		reports []*ReconcileReport
		errs    []error
		drifted int
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		r, err := s.Reconcile(ctx, id, repair)
		if err != nil {
			errs = append(errs, fmt.Errorf("group %s: %w", id, err))
			continue
		}
		drifted += len(r.Drift)
		reports = append(reports, r)
	}

	metrics.BalanceDrift.Set(float64(drifted))
	switch {
	case len(errs) > 0:
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
	case drifted > 0:
		metrics.ReconcileRuns.WithLabelValues("drift").Inc()
	default:
		metrics.ReconcileRuns.WithLabelValues("clean").Inc()
	}
	s.logger.Info("Reconciliation finished",
		"groups", len(ids),
		"drifted_members", drifted,
		"errors", len(errs),
	)
	return reports, errors.Join(errs...)
}
