package portfolio

import (
	"sort"
	"sync"
	"sync/atomic"

	"livetrade-go/internal/execution"
)

// Orders maps local order ids to open orders. Ids come from a single counter that
// starts at 1 and only moves forward.
type Orders struct {
	next   atomic.Int64
	mu     sync.RWMutex
	orders map[int64]execution.Order
}

// NewOrders creates an empty order map.
func NewOrders() *Orders {
	return &Orders{orders: make(map[int64]execution.Order)}
}

// NextID draws the next local order id.
func (o *Orders) NextID() int64 { return o.next.Add(1) }

// LastID returns the most recently issued id, zero if none.
func (o *Orders) LastID() int64 { return o.next.Load() }

// Upsert inserts or replaces order keyed by order.ID.
func (o *Orders) Upsert(order execution.Order) {
	o.mu.Lock()
	o.orders[order.ID] = order
	o.mu.Unlock()
}

// Remove drops the order with id.
func (o *Orders) Remove(id int64) {
	o.mu.Lock()
	delete(o.orders, id)
	o.mu.Unlock()
}

// Get returns the order with id.
func (o *Orders) Get(id int64) (execution.Order, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	order, ok := o.orders[id]
	return order, ok
}

// Len returns the number of open orders.
func (o *Orders) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.orders)
}

// Snapshot returns open orders sorted by id.
func (o *Orders) Snapshot() []execution.Order {
	o.mu.RLock()
	out := make([]execution.Order, 0, len(o.orders))
	for _, order := range o.orders {
		out = append(out, order)
	}
	o.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
