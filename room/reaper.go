/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"context"
	"time"
)

// Reap closes every room with no activity since cutoff and returns how many
// were closed.
func (c *Coordinator) Reap(cutoff time.Time) int {
	reaped := 0

	for _, r := range c.reg.Rooms() {
		r.mu.Lock()
		if !r.closed.Load() && r.lastActive.Before(cutoff) {
			c.closeLocked(r, "idle")
			reaped++
		}
		r.mu.Unlock()
	}

	return reaped
}

// ReapLoop closes rooms idle for longer than idle until ctx is done.
func (c *Coordinator) ReapLoop(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}

	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Reap(c.reg.now().Add(-idle))
		}
	}
}
