package portfolio

import "github.com/shopspring/decimal"

// Account bundles the three books an algorithm owns.
type Account struct {
	Cash       *CashBook
	Orders     *Orders
	Securities *Securities
}

// NewAccount constructs an empty account denominated in base.
func NewAccount(base string) *Account {
	return &Account{
		Cash:       NewCashBook(base),
		Orders:     NewOrders(),
		Securities: NewSecurities(0),
	}
}

// TotalValue is cash in the account currency plus marked holdings.
func (a *Account) TotalValue() decimal.Decimal {
	return a.Cash.TotalValue().Add(a.Securities.HoldingsValue())
}
