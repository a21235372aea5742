// Package keys holds the pending remote-control key.
//
// The remote receiver (serial board, MQTT, HTTP) writes from its own
// goroutine; the control loop samples once per decision point. Only the most
// recent key is kept. A held key may be observed more than once and a key
// pressed twice between samples is seen once; both are accepted behaviour of
// the single-slot receiver, not something to fix here.
package keys

import (
	"sync/atomic"

	"github.com/sweeney/brewer/internal/device"
)

// Cell is a single-producer/single-consumer slot with take-latest,
// overwrite-on-new semantics. The zero value is empty and ready to use.
type Cell struct {
	slot        atomic.Pointer[device.Key]
	received    atomic.Uint64
	overwritten atomic.Uint64
}

// Put stores k, replacing any key not yet taken.
func (c *Cell) Put(k device.Key) {
	c.received.Add(1)
	if prev := c.slot.Swap(&k); prev != nil {
		c.overwritten.Add(1)
	}
}

// Take returns and clears the pending key.
func (c *Cell) Take() (device.Key, bool) {
	p := c.slot.Swap(nil)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Peek returns the pending key without clearing it.
func (c *Cell) Peek() (device.Key, bool) {
	p := c.slot.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// Stats returns the number of keys received and how many were overwritten
// before being taken.
func (c *Cell) Stats() (received, overwritten uint64) {
	return c.received.Load(), c.overwritten.Load()
}
