// Package risk sizes resource limits by server class and guards per-trade notional.
package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Limits caps the notional a single local order may carry. Zero disables the cap.
type Limits struct {
	MaxNotionalPerTrade decimal.Decimal
}

// Allow reports whether notional fits under the per-trade cap.
func (l Limits) Allow(notional decimal.Decimal) bool {
	if l.MaxNotionalPerTrade.IsZero() {
		return true
	}
	return notional.Abs().LessThanOrEqual(l.MaxNotionalPerTrade)
}

// ServerClass tags the host tier a live job runs on.
type ServerClass string

const (
	Server512  ServerClass = "server512"
	Server1024 ServerClass = "server1024"
	Server2048 ServerClass = "server2048"
)

// AssetLimits bounds how much state an algorithm may track.
type AssetLimits struct {
	Securities int
	Orders     int
	Positions  int
}

var tiers = map[ServerClass]AssetLimits{
	Server512:  {Securities: 50, Orders: 100, Positions: 25},
	Server1024: {Securities: 200, Orders: 500, Positions: 100},
	Server2048: {Securities: 500, Orders: 2000, Positions: 250},
}

// ParseServerClass accepts "server512", "512", "Server-1024" and the like.
// An empty tag resolves to the smallest tier.
func ParseServerClass(raw string) (ServerClass, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	if s == "" {
		return Server512, nil
	}
	if !strings.HasPrefix(s, "server") {
		s = "server" + s
	}
	class := ServerClass(s)
	if _, ok := tiers[class]; !ok {
		return "", fmt.Errorf("unknown server class %q", raw)
	}
	return class, nil
}

// LimitsFor returns the tier limits for class, falling back to the smallest tier.
func LimitsFor(class ServerClass) AssetLimits {
	if l, ok := tiers[class]; ok {
		return l
	}
	return tiers[Server512]
}
