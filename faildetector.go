package main

// tickFailureDetector increments missedIntervals for every active neighbor
// and marks any neighbor that has reached Config.FailureThreshold
// consecutive misses as failed: its link cost goes to infinity, its cached
// view is dropped, and the routing table is recomputed.
func (r *Router) tickFailureDetector() {
	r.state.mu.Lock()
	var failed []NodeID
	for _, n := range r.state.activeNeighbors() {
		r.state.missedIntervals[n]++
		if r.state.missedIntervals[n] >= r.cfg.FailureThreshold {
			failed = append(failed, n)
		}
	}
	for _, n := range failed {
		r.state.disableNeighbor(n)
	}
	changed := false
	if len(failed) > 0 {
		changed = recompute(r.state)
		if r.cfg.Debug {
			if err := checkInvariants(r.state); err != nil {
				r.log.Error("invariant violation after failure detection", "error", err)
			}
		}
	}
	r.state.mu.Unlock()

	for _, n := range failed {
		r.log.Warn("neighbor marked failed", "neighbor", n)
		if r.metrics != nil {
			r.metrics.neighborFailures.Inc()
		}
	}
	if changed {
		r.advertiseOnce()
	}
}
