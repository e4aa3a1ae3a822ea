package signal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFlatBar(t *testing.T) {
	px := decimal.RequireFromString("12.5")
	bar := FlatBar("Z", px, time.Unix(0, 0))
	for name, v := range map[string]decimal.Decimal{"open": bar.Open, "high": bar.High, "low": bar.Low, "close": bar.Close} {
		if !v.Equal(px) {
			t.Fatalf("%s = %s, want %s", name, v, px)
		}
	}
	if !bar.Volume.IsZero() {
		t.Fatalf("expected zero volume, got %s", bar.Volume)
	}
}
