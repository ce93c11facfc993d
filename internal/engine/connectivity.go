package engine

import (
	"sync"
	"sync/atomic"
)

// Connectivity tracks the online/offline state reported by the platform.
// It is a pure observer: it holds the flag, answers synchronous queries,
// and notifies subscribers on transitions. Network-dependent flows consult
// it as a gate.
type Connectivity struct {
	online atomic.Bool
	mu     sync.Mutex
	subs   []func(online bool)
}

// NewConnectivity creates a monitor seeded with the platform's current state.
func NewConnectivity(initial bool) *Connectivity {
	c := &Connectivity{}
	c.online.Store(initial)
	return c
}

// Online reports the current state.
func (c *Connectivity) Online() bool {
	return c.online.Load()
}

// Subscribe registers a callback invoked on every transition. Callbacks run
// on the goroutine calling SetOnline and must not block.
func (c *Connectivity) Subscribe(fn func(online bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// SetOnline records a transition notification. Repeated reports of the
// current state notify nobody.
func (c *Connectivity) SetOnline(online bool) {
	if !c.online.CompareAndSwap(!online, online) {
		return
	}
	c.mu.Lock()
	subs := make([]func(bool), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(online)
	}
}
