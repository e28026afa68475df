package session

import (
	"sync"

	"github.com/MrEthical07/localauth/clock"
)

// Context is the per-page timer state. The zero value is ready to use.
type Context struct {
	mu    sync.Mutex
	timer clock.Timer
	gen   uint64
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{}
}

// Pending reports whether an inactivity callback is armed.
func (c *Context) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Close cancels the pending callback, if any. Call it when the page goes away.
func (c *Context) Close() {
	c.mu.Lock()
	c.stopLocked()
	c.gen++
	c.mu.Unlock()
}

func (c *Context) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
