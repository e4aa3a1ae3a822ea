package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"livetrade-go/internal/signal"
)

func TestAddRespectsLimit(t *testing.T) {
	secs := NewSecurities(1)
	if err := secs.Add(Security{Symbol: "A", Resolution: Minute}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := secs.Add(Security{Symbol: "A", Resolution: Second}); err != nil {
		t.Fatalf("re-adding known symbol should not hit limit: %v", err)
	}
	if err := secs.Add(Security{Symbol: "B"}); !errors.Is(err, ErrSecurityLimit) {
		t.Fatalf("expected ErrSecurityLimit, got %v", err)
	}
	a, _ := secs.Get("A")
	if a.Resolution != Second || !a.Leverage.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("unexpected security %+v", a)
	}
}

func TestMinResolution(t *testing.T) {
	secs := NewSecurities(0)
	if _, ok := secs.MinResolution(); ok {
		t.Fatalf("empty map should report no resolution")
	}
	_ = secs.Add(Security{Symbol: "A", Resolution: Hour})
	_ = secs.Add(Security{Symbol: "B", Resolution: Second})
	_ = secs.Add(Security{Symbol: "C", Resolution: Daily})
	if res, ok := secs.MinResolution(); !ok || res != Second {
		t.Fatalf("expected second, got %s", res)
	}
}

func TestHoldingsAndPrice(t *testing.T) {
	secs := NewSecurities(0)
	if err := secs.SetHoldings("Z", d("10"), d("2")); !errors.Is(err, ErrUnknownSecurity) {
		t.Fatalf("expected ErrUnknownSecurity, got %v", err)
	}
	_ = secs.Add(Security{Symbol: "Z", Type: Crypto})
	if err := secs.SetHoldings("Z", d("10"), d("-2")); err != nil {
		t.Fatalf("SetHoldings: %v", err)
	}
	if err := secs.SetMarketPrice(signal.FlatBar("Z", d("10"), time.Now())); err != nil {
		t.Fatalf("SetMarketPrice: %v", err)
	}
	z, _ := secs.Get("Z")
	if !z.Price().Equal(d("10")) || !z.HoldingsValue().Equal(d("-20")) {
		t.Fatalf("unexpected marks %s %s", z.Price(), z.HoldingsValue())
	}
	if secs.Invested() != 1 || !secs.IsInvested("Z") {
		t.Fatalf("expected Z invested")
	}
}

func TestAccountTotalValue(t *testing.T) {
	acct := NewAccount("USD")
	acct.Cash.SetCash("USD", d("100"), d("1"))
	acct.Cash.SetCash("EUR", d("10"), d("2"))
	_ = acct.Securities.Add(Security{Symbol: "Z"})
	_ = acct.Securities.SetHoldings("Z", d("5"), d("3"))
	_ = acct.Securities.SetMarketPrice(signal.FlatBar("Z", d("5"), time.Now()))

	if !acct.TotalValue().Equal(d("135")) {
		t.Fatalf("unexpected total value %s", acct.TotalValue())
	}
}

func TestParseHelpers(t *testing.T) {
	if ParseSecurityType("CRYPTO") != Crypto || ParseSecurityType("weird") != Equity {
		t.Fatalf("unexpected security type parsing")
	}
	if r, err := ParseResolution("Hour"); err != nil || r != Hour {
		t.Fatalf("unexpected resolution %s %v", r, err)
	}
	if _, err := ParseResolution("fortnight"); err == nil {
		t.Fatalf("expected error")
	}
}
