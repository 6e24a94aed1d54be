package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	FromMemberID string
	ToMemberID   string
	Amount       decimal.Decimal
}

// DeriveBalances recomputes every member's balance from expense and split rows.
//
// Every unsettled split owed by someone other than the payer moves its amount
// from the debtor to the payer; settled splits and the payer's own share
// contribute nothing. The result therefore sums to zero, and it matches the
// stored balance column as long as every mutation went through the ledger.
// Members that appear in no split are absent from the map.
func DeriveBalances(expenses []models.GroupExpense) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		for _, s := range e.Splits {
			if s.Settled || s.MemberID == e.PaidByID {
				continue
			}
			balances[e.PaidByID] = balances[e.PaidByID].Add(s.Amount)
			balances[s.MemberID] = balances[s.MemberID].Sub(s.Amount)
		}
	}
	return balances
}

// SumBalances returns the total of the given balances.
func SumBalances(balances []models.MemberBalance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Balance)
	}
	return total
}

// SortBalances orders balances largest creditor first, ties by name then ID.
func SortBalances(balances []models.MemberBalance) {
	sort.SliceStable(balances, func(i, j int) bool {
		if c := balances[i].Balance.Cmp(balances[j].Balance); c != 0 {
			return c > 0
		}
		if balances[i].Name != balances[j].Name {
			return balances[i].Name < balances[j].Name
		}
		return balances[i].MemberID < balances[j].MemberID
	})
}

// SimplifyDebts turns net balances into a short list of transfers that would
// bring every balance to zero.
//
// Algorithm: greedy matching of the largest debtor with the largest creditor,
// settling the smaller of the two amounts each step.
func SimplifyDebts(balances []models.MemberBalance) []Transfer {
	var creditors, debtors []models.MemberBalance
	for _, b := range balances {
		switch {
		case b.Balance.IsPositive():
			creditors = append(creditors, b)
		case b.Balance.IsNegative():
			debtors = append(debtors, models.MemberBalance{MemberID: b.MemberID, Name: b.Name, Balance: b.Balance.Neg()})
		}
	}
	SortBalances(creditors)
	SortBalances(debtors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].Balance, creditors[j].Balance)
		if amount.IsPositive() {
			transfers = append(transfers, Transfer{
				FromMemberID: debtors[i].MemberID,
				ToMemberID:   creditors[j].MemberID,
				Amount:       amount,
			})
		}

		debtors[i].Balance = debtors[i].Balance.Sub(amount)
		creditors[j].Balance = creditors[j].Balance.Sub(amount)

		if !debtors[i].Balance.IsPositive() {
			i++
		}
		if !creditors[j].Balance.IsPositive() {
			j++
		}
	}
	return transfers
}
