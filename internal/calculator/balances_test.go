package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

func TestDeriveBalances(t *testing.T) {
	expenses := []models.GroupExpense{
		{
			PaidByID: "A",
			Amount:   dec("90"),
			Splits: []models.Split{
				{MemberID: "A", Amount: dec("30"), Settled: true},
				{MemberID: "B", Amount: dec("30")},
				{MemberID: "C", Amount: dec("30"), Settled: true},
			},
		},
		{
			PaidByID: "B",
			Amount:   dec("20"),
			Splits: []models.Split{
				{MemberID: "A", Amount: dec("10")},
				{MemberID: "B", Amount: dec("10"), Settled: true},
			},
		},
	}

	got := DeriveBalances(expenses)

	// A: +30 (B owes) -10 (owes B) = 20; B: -30 +10 = -20; C settled = 0
	want := map[string]string{"A": "20", "B": "-20"}
	for id, w := range want {
		if !got[id].Equal(dec(w)) {
			t.Errorf("balance[%s] = %s, want %s", id, got[id], w)
		}
	}
	if _, ok := got["C"]; ok {
		t.Errorf("C has no outstanding splits, got %s", got["C"])
	}

	total := decimal.Zero
	for _, b := range got {
		total = total.Add(b)
	}
	if !total.IsZero() {
		t.Errorf("derived balances sum to %s, want 0", total)
	}
}

func TestSortBalances(t *testing.T) {
	balances := []models.MemberBalance{
		{MemberID: "1", Name: "Bob", Balance: dec("-10")},
		{MemberID: "2", Name: "Alice", Balance: dec("25")},
		{MemberID: "3", Name: "Carol", Balance: dec("0")},
		{MemberID: "4", Name: "Aaron", Balance: dec("0")},
	}
	SortBalances(balances)

	wantOrder := []string{"Alice", "Aaron", "Carol", "Bob"}
	for i, name := range wantOrder {
		if balances[i].Name != name {
			t.Errorf("position %d = %s, want %s", i, balances[i].Name, name)
		}
	}
}

func TestSimplifyDebts(t *testing.T) {
	balances := []models.MemberBalance{
		{MemberID: "A", Name: "Alice", Balance: dec("60")},
		{MemberID: "B", Name: "Bob", Balance: dec("-40")},
		{MemberID: "C", Name: "Carol", Balance: dec("-20")},
	}

	transfers := SimplifyDebts(balances)
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2: %+v", len(transfers), transfers)
	}

	paid := make(map[string]decimal.Decimal)
	for _, tr := range transfers {
		if tr.ToMemberID != "A" {
			t.Errorf("transfer to %s, want A", tr.ToMemberID)
		}
		paid[tr.FromMemberID] = paid[tr.FromMemberID].Add(tr.Amount)
	}
	if !paid["B"].Equal(dec("40")) || !paid["C"].Equal(dec("20")) {
		t.Errorf("paid = %v, want B=40 C=20", paid)
	}
}

func TestSimplifyDebts_Settled(t *testing.T) {
	balances := []models.MemberBalance{
		{MemberID: "A", Balance: decimal.Zero},
		{MemberID: "B", Balance: decimal.Zero},
	}
	if transfers := SimplifyDebts(balances); len(transfers) != 0 {
		t.Errorf("expected no transfers, got %+v", transfers)
	}
}
