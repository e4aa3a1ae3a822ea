package strategy

import (
	"math"
	"sync"
	"time"

	"livetrade-go/internal/signal"
)

// windowStats summarises the ticks of one symbol inside the look-back span.
type windowStats struct {
	count     int
	imbalance float64 // (buy - sell) / total size, in [-1, 1]
	drift     float64 // relative change from the oldest to the newest price
	notional  float64 // sum of |price * size|
}

type tickWindow struct {
	ticks []signal.Tick
}

// push appends tk and evicts ticks at or before tk.Ts - span.
func (w *tickWindow) push(tk signal.Tick, span time.Duration) {
	w.ticks = append(w.ticks, tk)
	cutoff := tk.Ts.Add(-span)
	keep := 0
	for keep < len(w.ticks) && !w.ticks[keep].Ts.After(cutoff) {
		keep++
	}
	w.ticks = w.ticks[keep:]
}

func (w *tickWindow) stats() windowStats {
	st := windowStats{count: len(w.ticks)}
	if st.count == 0 {
		return st
	}
	var buy, sell float64
	for _, tk := range w.ticks {
		size := math.Abs(tk.Size)
		if tk.Side >= 0 {
			buy += size
		} else {
			sell += size
		}
		st.notional += math.Abs(tk.Price * size)
	}
	if total := buy + sell; total > 0 {
		st.imbalance = clamp((buy-sell)/total, -1, 1)
	}
	if first := w.ticks[0].Price; first > 0 {
		st.drift = (w.ticks[st.count-1].Price - first) / first
	}
	return st
}

// windows holds one tickWindow per symbol.
type windows struct {
	span time.Duration

	mu       sync.Mutex
	bySymbol map[string]*tickWindow
}

func newWindows(span time.Duration) *windows {
	return &windows{span: span, bySymbol: make(map[string]*tickWindow)}
}

// observe records tk and returns the refreshed statistics for its symbol.
func (ws *windows) observe(tk signal.Tick) windowStats {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w := ws.bySymbol[tk.Symbol]
	if w == nil {
		w = &tickWindow{}
		ws.bySymbol[tk.Symbol] = w
	}
	w.push(tk, ws.span)
	return w.stats()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
