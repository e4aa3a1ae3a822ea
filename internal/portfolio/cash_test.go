package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSetCashAddsAbsentCurrency(t *testing.T) {
	book := NewCashBook("usd")
	book.SetCash("eur", d("100"), d("1.1"))
	book.SetCash("USD", d("50"), d("3"))

	if book.Len() != 2 {
		t.Fatalf("expected 2 currencies, got %d", book.Len())
	}
	eur, ok := book.Get("EUR")
	if !ok || !eur.Amount.Equal(d("100")) || !eur.ConversionRate.Equal(d("1.1")) {
		t.Fatalf("unexpected EUR balance %+v", eur)
	}
	usd, _ := book.Get("usd")
	if !usd.ConversionRate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("base currency must convert at 1, got %s", usd.ConversionRate)
	}
	if !book.TotalValue().Equal(d("160")) {
		t.Fatalf("unexpected total %s", book.TotalValue())
	}
}

func TestSetCashIdempotent(t *testing.T) {
	snapshot := []Cash{
		{Currency: "USD", Amount: d("1000"), ConversionRate: d("1")},
		{Currency: "BTC", Amount: d("0.5"), ConversionRate: d("60000")},
	}
	once := NewCashBook("USD")
	twice := NewCashBook("USD")
	for _, c := range snapshot {
		once.SetCash(c.Currency, c.Amount, c.ConversionRate)
	}
	for i := 0; i < 2; i++ {
		for _, c := range snapshot {
			twice.SetCash(c.Currency, c.Amount, c.ConversionRate)
		}
	}
	a, b := once.Snapshot(), twice.Snapshot()
	if len(a) != len(b) {
		t.Fatalf("length mismatch %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Currency != b[i].Currency || !a[i].Amount.Equal(b[i].Amount) || !a[i].ConversionRate.Equal(b[i].ConversionRate) {
			t.Fatalf("books differ at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestConversionSymbols(t *testing.T) {
	book := NewCashBook("")
	book.SetCash("USD", d("10"), d("1"))
	book.SetCash("EUR", d("5"), d("1.1"))
	book.SetCash("JPY", decimal.Zero, d("0.007"))

	syms := book.ConversionSymbols()
	if len(syms) != 1 || syms[0] != "EURUSD" {
		t.Fatalf("unexpected conversion symbols %v", syms)
	}
}
