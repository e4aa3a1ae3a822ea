package setup

import (
	"fmt"
	"sync"
)

// ErrorList is the ordered set of human-readable setup errors.
// A non-empty list means setup failed, whatever any step returned.
type ErrorList struct {
	mu    sync.Mutex
	items []string
}

// Add appends msg.
func (l *ErrorList) Add(msg string) {
	l.mu.Lock()
	l.items = append(l.items, msg)
	l.mu.Unlock()
}

// Addf appends a formatted message.
func (l *ErrorList) Addf(format string, args ...any) {
	l.Add(fmt.Sprintf(format, args...))
}

// Len returns the number of errors.
func (l *ErrorList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns a copy of the errors in insertion order.
func (l *ErrorList) Items() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.items...)
}
