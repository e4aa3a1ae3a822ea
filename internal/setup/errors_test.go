package setup

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorListKeepsOrder(t *testing.T) {
	var l ErrorList
	require.Zero(t, l.Len())
	l.Add("first")
	l.Addf("step %s failed: %d", Connecting, 2)

	items := l.Items()
	require.Equal(t, []string{"first", "step Connecting failed: 2"}, items)

	items[0] = "changed"
	require.Equal(t, "first", l.Items()[0], "Items returns a copy")
}

func TestErrorListConcurrentAdd(t *testing.T) {
	var (
		l  ErrorList
		wg sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Addf("error %d", i)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 50, l.Len())
}
