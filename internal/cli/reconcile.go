package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/ledger"
)

// ErrDrift is returned when reconciliation finds balances it did not repair.
var ErrDrift = errors.New("balance drift detected")

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	*RootOptions
	GroupID string
	Repair  bool
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check stored balances against the expense history",
		Long: `Recompute every member balance from expenses and splits and compare it
with the stored balance. Exits non-zero when drift is found and --repair is
not set.

Example:
  splitledger reconcile
  splitledger reconcile --group 5f0c... --repair`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.RootOptions)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			l, async, err := newLedger(cfg, store)
			if err != nil {
				return err
			}
			defer async.Wait()

			var reports []*ledger.ReconcileReport
			if opts.GroupID != "" {
				r, err := l.Reconcile(cmd.Context(), opts.GroupID, opts.Repair)
				if err != nil {
					return err
				}
				reports = append(reports, r)
			} else {
				reports, err = l.ReconcileAll(cmd.Context(), opts.Repair)
				if err != nil {
					return err
				}
			}
			return printReports(cmd.OutOrStdout(), reports)
		},
	}

	cmd.Flags().StringVarP(&opts.GroupID, "group", "g", "", "reconcile a single group")
	cmd.Flags().BoolVar(&opts.Repair, "repair", false, "overwrite drifted balances with derived values")

	return cmd
}

// printReports writes one line per group and one per drifted member. It
// returns ErrDrift if any drift was left unrepaired.
func printReports(w io.Writer, reports []*ledger.ReconcileReport) error {
	unrepaired := 0
	for _, r := range reports {
		state := "clean"
		switch {
		case r.Repaired:
			state = "repaired"
		case !r.Clean():
			state = "drift"
			unrepaired++
		}
		fmt.Fprintf(w, "group %s: %s (%d members, stored sum %s)\n", r.GroupID, state, r.Members, r.StoredSum.StringFixed(2))
		for _, d := range r.Drift {
			fmt.Fprintf(w, "  %s (%s): stored %s, derived %s\n", d.Name, d.MemberID, d.Stored.StringFixed(2), d.Derived.StringFixed(2))
		}
	}
	if unrepaired > 0 {
		return fmt.Errorf("%w in %d group(s)", ErrDrift, unrepaired)
	}
	return nil
}
