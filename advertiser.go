package main

import (
	"context"
	"time"
)

// advertiseOnce snapshots best[] under the lock, releases it, then sends
// the resulting vector to every active neighbor. The guard is never held
// during the outbound dials.
func (r *Router) advertiseOnce() {
	r.state.mu.Lock()
	vec := r.state.snapshotVector()
	neighbors := r.state.activeNeighbors()
	r.state.mu.Unlock()

	adv := &Advertisement{
		SenderID:   r.state.self,
		SenderHost: r.selfAddr.Host,
		SenderPort: r.selfAddr.Port,
		Entries:    vec,
	}
	for _, n := range neighbors {
		send(r.top.Nodes[n].String(), adv, r.cfg.ConnectTimeout, r.log)
	}
}

// runAdvertiser drives the periodic tick and, on the same tick, the
// failure detector's miss-count bookkeeping. A step on stepCh forces an
// out-of-schedule round without touching miss counts.
func (r *Router) runAdvertiser(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tickFailureDetector()
			r.advertiseOnce()
		case <-r.stepCh:
			r.advertiseOnce()
		}
	}
}
