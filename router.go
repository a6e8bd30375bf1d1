package main

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// infCap is the configured INF_CAP: any computed cost at or above this
// value is treated as unreachable. It bounds count-to-infinity inflation
// and is distinct from the wire sentinel (see message.go).
const infCap = 1_000_000

// noHop is the nextHop sentinel meaning "no route". Node ids are positive
// integers per the topology file format, so 0 is never a real id.
const noHop NodeID = 0

// NodeID is a unique identifier used to differentiate nodes.
type NodeID uint16

func (n NodeID) String() string { return strconv.Itoa(int(n)) }

func addCost(a, b int) int {
	if a >= infCap || b >= infCap {
		return infCap
	}
	sum := a + b
	if sum >= infCap {
		return infCap
	}
	return sum
}

// RoutingState is a node's routing table and the neighbor bookkeeping
// needed to recompute it: direct link costs, each neighbor's last
// advertised vector, and the derived best cost/next hop per destination.
// Every field is read or written only while mu is held; network I/O never
// happens under the lock.
type RoutingState struct {
	mu sync.Mutex

	self  NodeID
	nodes map[NodeID]Address // fixed node table, from the topology

	neighborLinkCost map[NodeID]int            // cost to each direct neighbor; infCap if disabled
	disabledSaved    map[NodeID]int            // cost remembered across a disable, for re-enable
	manuallyDisabled map[NodeID]bool           // true while n is Disabled (operator-driven), not just Failed
	neighborView     map[NodeID]map[NodeID]int // last advertised vector per neighbor

	best    map[NodeID]int
	nextHop map[NodeID]NodeID

	packetsReceived uint64
	missedIntervals map[NodeID]int

	dedup   *dedupSet
	metrics *metrics
}

func newRoutingState(top *Topology, self NodeID, dedupCap int, m *metrics) *RoutingState {
	s := &RoutingState{
		self:             self,
		nodes:            top.Nodes,
		neighborLinkCost: make(map[NodeID]int),
		disabledSaved:    make(map[NodeID]int),
		manuallyDisabled: make(map[NodeID]bool),
		neighborView:     make(map[NodeID]map[NodeID]int),
		best:             map[NodeID]int{self: 0},
		nextHop:          map[NodeID]NodeID{self: self},
		missedIntervals:  make(map[NodeID]int),
		dedup:            newDedupSet(dedupCap),
		metrics:          m,
	}
	for n, cost := range top.neighborsOf(self) {
		s.neighborLinkCost[n] = cost
		s.missedIntervals[n] = 0
	}
	return s
}

// neighborIDsSorted returns every neighbor id, including neighbors whose
// link is currently down, in ascending id order, used so tie-breaking
// (lowest neighbor id wins) is deterministic.
func (s *RoutingState) neighborIDsSorted() []NodeID {
	ids := make([]NodeID, 0, len(s.neighborLinkCost))
	for n := range s.neighborLinkCost {
		ids = append(ids, n)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// recompute relaxes every destination exactly once against the current
// neighborLinkCost and neighborView, taking the minimum over neighbors and
// breaking ties toward the lowest neighbor id. It never iterates to a
// fixed point itself, since the advertisement exchange between nodes is
// the iteration. It reports whether any best[d] or nextHop[d] changed.
func recompute(s *RoutingState) bool {
	newBest := make(map[NodeID]int, len(s.nodes))
	newNextHop := make(map[NodeID]NodeID, len(s.nodes))
	newBest[s.self] = 0
	newNextHop[s.self] = s.self

	neighbors := s.neighborIDsSorted()

	for d := range s.nodes {
		if d == s.self {
			continue
		}
		bestCost := infCap
		bestNeighbor := noHop

		for _, n := range neighbors {
			linkCost := s.neighborLinkCost[n]
			if linkCost >= infCap {
				continue
			}

			var viaCost int
			if n == d {
				// Self-loop shortcut: the direct link to d dominates unless
				// d has explicitly advertised some other (always >=0) cost
				// to itself.
				viaCost = linkCost
				if view, ok := s.neighborView[n]; ok {
					if c, ok2 := view[d]; ok2 {
						if combined := addCost(linkCost, c); combined < viaCost {
							viaCost = combined
						}
					}
				}
			} else {
				view, ok := s.neighborView[n]
				if !ok {
					continue
				}
				c, ok2 := view[d]
				if !ok2 {
					// Absence means infinity by convention; no finite path
					// through n, skip.
					continue
				}
				viaCost = addCost(linkCost, c)
			}

			if viaCost < bestCost {
				bestCost = viaCost
				bestNeighbor = n
			}
		}

		newBest[d] = bestCost
		if bestCost < infCap {
			newNextHop[d] = bestNeighbor
		} else {
			newNextHop[d] = noHop
		}
	}

	changed := false
	for d, cost := range newBest {
		if s.best[d] != cost || s.nextHop[d] != newNextHop[d] {
			changed = true
			break
		}
	}
	if !changed && len(newBest) != len(s.best) {
		changed = true
	}

	s.best = newBest
	s.nextHop = newNextHop
	if s.metrics != nil {
		s.metrics.observeBest(s.self, newBest)
	}
	return changed
}

// checkInvariants re-derives the routing table's basic consistency
// properties from the current state and returns the first violation
// found, for use in debug builds after every recompute.
func checkInvariants(s *RoutingState) error {
	if s.best[s.self] != 0 {
		return fmt.Errorf("self cost violated: best[self]=%d, want 0", s.best[s.self])
	}
	if s.nextHop[s.self] != s.self {
		return fmt.Errorf("self next hop violated: nextHop[self]=%d, want self", s.nextHop[s.self])
	}
	for d, cost := range s.best {
		if cost < 0 {
			return fmt.Errorf("invariant violated: best[%d]=%d is negative", d, cost)
		}
		if cost >= infCap {
			if s.nextHop[d] != noHop {
				return fmt.Errorf("unreachable-hop invariant violated: best[%d]=inf but nextHop=%d", d, s.nextHop[d])
			}
			continue
		}
		if d == s.self {
			continue
		}
		hop := s.nextHop[d]
		if _, ok := s.neighborLinkCost[hop]; !ok {
			return fmt.Errorf("next-hop-is-neighbor invariant violated: nextHop[%d]=%d is not a neighbor", d, hop)
		}
	}
	return nil
}

// setNeighborView records neighbor n's most recently advertised vector and
// resets its miss count.
func (s *RoutingState) setNeighborView(n NodeID, entries []VectorEntry) {
	view := make(map[NodeID]int, len(entries))
	for _, e := range entries {
		view[e.Dest] = e.Cost
	}
	s.neighborView[n] = view
	s.missedIntervals[n] = 0
}

// setLinkCost changes the cost to neighbor n. A cost at/above infCap
// clears the cached neighborView for n so a stale vector cannot
// reintroduce a dead path.
func (s *RoutingState) setLinkCost(n NodeID, cost int) {
	s.neighborLinkCost[n] = cost
	if cost >= infCap {
		delete(s.neighborView, n)
	}
}

// disableNeighbor marks n Failed: its link goes to infinite cost, with the
// prior cost remembered so a later advertisement from n can restore it.
// Used by the failure detector and crash-notify handling — unlike
// applyOperatorLinkCost, this never sets manuallyDisabled, so the link
// recovers automatically on the next advertisement from n.
func (s *RoutingState) disableNeighbor(n NodeID) {
	if cur, ok := s.neighborLinkCost[n]; ok && cur < infCap {
		s.disabledSaved[n] = cur
	}
	s.setLinkCost(n, infCap)
}

// applyOperatorLinkCost sets neighbor n's link cost from an operator
// action: the local disable command, an update command, or their
// propagated link-update/link-disable counterparts. Moving to infinite
// cost marks n Disabled; unlike a detector-driven failure, a Disabled
// neighbor does not recover just because an advertisement arrives from it
// — only a later operator update with a finite cost (below) returns it to
// Active.
func (s *RoutingState) applyOperatorLinkCost(n NodeID, cost int) {
	if cost >= infCap {
		if cur, ok := s.neighborLinkCost[n]; ok && cur < infCap {
			s.disabledSaved[n] = cur
		}
		s.manuallyDisabled[n] = true
	} else {
		s.manuallyDisabled[n] = false
		delete(s.disabledSaved, n)
	}
	s.setLinkCost(n, cost)
}

// restoreFromFailure reactivates neighbor n when an advertisement arrives
// from it while its link is down due to the failure detector (Failed, not
// Disabled): it restores the link cost remembered before the failure. It
// is a no-op if the link is not currently down, or if it is down because
// of an operator disable/∞-update rather than a missed-interval failure.
// Reports whether the link cost changed.
func (s *RoutingState) restoreFromFailure(n NodeID) bool {
	if s.neighborLinkCost[n] < infCap || s.manuallyDisabled[n] {
		return false
	}
	saved, ok := s.disabledSaved[n]
	if !ok {
		return false
	}
	s.neighborLinkCost[n] = saved
	delete(s.disabledSaved, n)
	return true
}

// snapshotVector copies best[] into a slice of vector entries suitable for
// advertisement. Callers must not hold s.mu while performing network I/O
// with the result.
func (s *RoutingState) snapshotVector() []VectorEntry {
	entries := make([]VectorEntry, 0, len(s.best))
	for d, cost := range s.best {
		entries = append(entries, VectorEntry{Dest: d, Cost: cost})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Dest < entries[j].Dest })
	return entries
}

// activeNeighbors returns the neighbor ids whose link is not currently
// disabled, in ascending order.
func (s *RoutingState) activeNeighbors() []NodeID {
	out := make([]NodeID, 0, len(s.neighborLinkCost))
	for _, n := range s.neighborIDsSorted() {
		if s.neighborLinkCost[n] < infCap {
			out = append(out, n)
		}
	}
	return out
}
