package main

import "sync"

// LinkSpec is an undirected edge between two nodes with a cost, as parsed
// from the topology file's link section.
type LinkSpec struct {
	A, B NodeID
	Cost int
}

// linkKey canonicalizes an undirected pair so (a,b) and (b,a) hash the
// same: lowest id first.
type linkKey struct {
	Lo, Hi NodeID
}

func canonicalLinkKey(a, b NodeID) linkKey {
	if a <= b {
		return linkKey{Lo: a, Hi: b}
	}
	return linkKey{Lo: b, Hi: a}
}

// dedupTriple is the at-most-once key for a propagated control message:
// the (linkA, linkB, newCost) triple named in the wire protocol's
// control-message section.
type dedupTriple struct {
	Link linkKey
	Cost int
}

// dedupSet is a small bounded LRU of already-applied control-message
// triples. Propagating the same (a,b,newCost) update more than once would
// otherwise cause redundant recomputes and advertisement storms.
type dedupSet struct {
	mu    sync.Mutex
	cap   int
	order []dedupTriple
	seen  map[dedupTriple]struct{}
}

func newDedupSet(capacity int) *dedupSet {
	if capacity <= 0 {
		capacity = 64
	}
	return &dedupSet{
		cap:  capacity,
		seen: make(map[dedupTriple]struct{}, capacity),
	}
}

// seenOrAdd reports whether the triple was already applied. A repeat marks
// the triple as most recently used. A new triple is recorded, and the least
// recently used entry is evicted once the set is full.
func (d *dedupSet) seenOrAdd(a, b NodeID, cost int) bool {
	t := dedupTriple{Link: canonicalLinkKey(a, b), Cost: cost}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[t]; ok {
		for i, o := range d.order {
			if o == t {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
		d.order = append(d.order, t)
		return true
	}
	if len(d.order) >= d.cap {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	d.seen[t] = struct{}{}
	d.order = append(d.order, t)
	return false
}
