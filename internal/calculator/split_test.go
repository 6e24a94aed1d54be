package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func joined(ids ...string) []models.GroupMember {
	members := make([]models.GroupMember, len(ids))
	for i, id := range ids {
		members[i] = models.GroupMember{ID: id, Name: id, Status: models.MemberJoined}
	}
	return members
}

func byMember(allocs []Allocation) map[string]Allocation {
	out := make(map[string]Allocation, len(allocs))
	for _, a := range allocs {
		out[a.MemberID] = a
	}
	return out
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name         string
		amount       string
		payer        string
		members      []models.GroupMember
		policy       Policy
		wantErr      error
		validateFunc func(t *testing.T, allocs map[string]Allocation)
	}{
		{
			name:    "equal split between two members",
			amount:  "100",
			payer:   "A",
			members: joined("A", "B"),
			policy:  Equal{},
			validateFunc: func(t *testing.T, allocs map[string]Allocation) {
				if !allocs["A"].Amount.Equal(dec("50")) || !allocs["A"].Settled {
					t.Errorf("A = %+v, want 50 settled", allocs["A"])
				}
				if !allocs["B"].Amount.Equal(dec("50")) || allocs["B"].Settled {
					t.Errorf("B = %+v, want 50 unsettled", allocs["B"])
				}
			},
		},
		{
			name:    "equal split remainder goes to payer",
			amount:  "100",
			payer:   "B",
			members: joined("A", "B", "C"),
			policy:  Equal{},
			validateFunc: func(t *testing.T, allocs map[string]Allocation) {
				// 100 / 3 = 33.33 each, 0.01 left over for the payer
				if !allocs["A"].Amount.Equal(dec("33.33")) {
					t.Errorf("A = %s, want 33.33", allocs["A"].Amount)
				}
				if !allocs["B"].Amount.Equal(dec("33.34")) {
					t.Errorf("B (payer) = %s, want 33.34", allocs["B"].Amount)
				}
				if !allocs["C"].Amount.Equal(dec("33.33")) {
					t.Errorf("C = %s, want 33.33", allocs["C"].Amount)
				}
			},
		},
		{
			name:    "equal split skips pending and declined members",
			amount:  "90",
			payer:   "A",
			members: append(joined("A", "B"), models.GroupMember{ID: "P", Status: models.MemberPending}, models.GroupMember{ID: "D", Status: models.MemberDeclined}),
			policy:  Equal{},
			validateFunc: func(t *testing.T, allocs map[string]Allocation) {
				if len(allocs) != 2 {
					t.Fatalf("got %d allocations, want 2", len(allocs))
				}
				if _, ok := allocs["P"]; ok {
					t.Error("pending member must not receive a share")
				}
			},
		},
		{
			name:    "nil policy defaults to equal",
			amount:  "10",
			payer:   "A",
			members: joined("A", "B"),
			validateFunc: func(t *testing.T, allocs map[string]Allocation) {
				if !allocs["B"].Amount.Equal(dec("5")) {
					t.Errorf("B = %s, want 5", allocs["B"].Amount)
				}
			},
		},
		{
			name:    "exact split used verbatim",
			amount:  "100",
			payer:   "A",
			members: joined("A", "B", "C"),
			policy:  Exact{Shares: []Share{{MemberID: "B", Value: dec("70")}, {MemberID: "C", Value: dec("30")}}},
			validateFunc: func(t *testing.T, allocs map[string]Allocation) {
				if _, ok := allocs["A"]; ok {
					t.Error("payer not listed must get no allocation")
				}
				if !allocs["B"].Amount.Equal(dec("70")) || !allocs["C"].Amount.Equal(dec("30")) {
					t.Errorf("got B=%s C=%s, want 70/30", allocs["B"].Amount, allocs["C"].Amount)
				}
			},
		},
		{
			name:    "exact split sum mismatch",
			amount:  "100",
			payer:   "A",
			members: joined("A", "B"),
			policy:  Exact{Shares: []Share{{MemberID: "A", Value: dec("40")}, {MemberID: "B", Value: dec("50")}}},
			wantErr: ErrSumMismatch,
		},
		{
			name:    "exact split rejects zero share",
			amount:  "100",
			payer:   "A",
			members: joined("A", "B"),
			policy:  Exact{Shares: []Share{{MemberID: "A", Value: dec("100")}, {MemberID: "B", Value: dec("0")}}},
			wantErr: ErrNonPositiveShare,
		},
		{
			name:    "exact split rejects unknown member",
			amount:  "100",
			payer:   "A",
			members: joined("A", "B"),
			policy:  Exact{Shares: []Share{{MemberID: "Z", Value: dec("100")}}},
			wantErr: ErrUnknownMember,
		},
		{
			name:    "exact split rejects duplicate member",
			amount:  "100",
			payer:   "A",
			members: joined("A", "B"),
			policy:  Exact{Shares: []Share{{MemberID: "B", Value: dec("50")}, {MemberID: "B", Value: dec("50")}}},
			wantErr: ErrDuplicateMember,
		},
		{
			name:    "percent split with remainder on payer",
			amount:  "100",
			payer:   "A",
			members: joined("A", "B", "C"),
			policy: Percent{Shares: []Share{
				{MemberID: "A", Value: dec("33.333")},
				{MemberID: "B", Value: dec("33.333")},
				{MemberID: "C", Value: dec("33.334")},
			}},
			validateFunc: func(t *testing.T, allocs map[string]Allocation) {
				if !allocs["B"].Amount.Equal(dec("33.33")) {
					t.Errorf("B = %s, want 33.33", allocs["B"].Amount)
				}
				if !allocs["A"].Amount.Equal(dec("33.34")) {
					t.Errorf("A (payer) = %s, want 33.34", allocs["A"].Amount)
				}
			},
		},
		{
			name:    "percent split must total 100",
			amount:  "100",
			payer:   "A",
			members: joined("A", "B"),
			policy:  Percent{Shares: []Share{{MemberID: "A", Value: dec("50")}, {MemberID: "B", Value: dec("40")}}},
			wantErr: ErrSumMismatch,
		},
		{
			name:    "no joined members",
			amount:  "100",
			payer:   "A",
			members: []models.GroupMember{{ID: "A", Status: models.MemberPending}},
			policy:  Equal{},
			wantErr: ErrNoMembers,
		},
		{
			name:    "payer must be joined",
			amount:  "100",
			payer:   "Z",
			members: joined("A", "B"),
			policy:  Equal{},
			wantErr: ErrPayerNotMember,
		},
		{
			name:    "zero amount",
			amount:  "0",
			payer:   "A",
			members: joined("A"),
			policy:  Equal{},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "sub-cent amount",
			amount:  "10.005",
			payer:   "A",
			members: joined("A"),
			policy:  Equal{},
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allocs, err := Allocate(dec(tt.amount), tt.payer, tt.members, tt.policy)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Allocate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Allocate() unexpected error: %v", err)
			}

			total := decimal.Zero
			for _, a := range allocs {
				total = total.Add(a.Amount)
			}
			if !total.Equal(dec(tt.amount)) {
				t.Errorf("allocations total %s, want %s", total, tt.amount)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, byMember(allocs))
			}
		})
	}
}

func TestAllocate_EqualSumIsExact(t *testing.T) {
	amounts := []string{"0.01", "0.10", "1", "10", "99.99", "100", "333.33", "1000.01"}
	for n := 1; n <= 9; n++ {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = string(rune('A' + i))
		}
		for _, amount := range amounts {
			allocs, err := Allocate(dec(amount), ids[n-1], joined(ids...), Equal{})
			if err != nil {
				t.Fatalf("Allocate(%s, n=%d) failed: %v", amount, n, err)
			}
			total := decimal.Zero
			for _, a := range allocs {
				total = total.Add(a.Amount)
			}
			if !total.Equal(dec(amount)) {
				t.Errorf("Allocate(%s, n=%d) total = %s", amount, n, total)
			}
			if len(allocs) != n {
				t.Errorf("Allocate(%s, n=%d) returned %d allocations", amount, n, len(allocs))
			}
		}
	}
}
