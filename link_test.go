package main

import "testing"

func TestCanonicalLinkKey(t *testing.T) {
	if got, want := canonicalLinkKey(1, 3), canonicalLinkKey(3, 1); got != want {
		t.Errorf("canonicalLinkKey(1,3) = %v, canonicalLinkKey(3,1) = %v, want equal", got, want)
	}
	if got := canonicalLinkKey(2, 2); got != (linkKey{Lo: 2, Hi: 2}) {
		t.Errorf("canonicalLinkKey(2,2) = %v, want {2,2}", got)
	}
}

func TestDedupSetSeenOrAdd(t *testing.T) {
	d := newDedupSet(2)

	if d.seenOrAdd(1, 2, 5) {
		t.Fatal("first application reported as already seen")
	}
	if !d.seenOrAdd(1, 2, 5) {
		t.Fatal("repeat of (1,2,5) not recognized as a duplicate")
	}
	if !d.seenOrAdd(2, 1, 5) {
		t.Fatal("repeat of (2,1,5) not recognized as a duplicate of (1,2,5)")
	}
	if d.seenOrAdd(1, 2, 6) {
		t.Fatal("a different cost for the same link reported as a duplicate")
	}
}

func TestDedupSetEvictsOldest(t *testing.T) {
	d := newDedupSet(1)

	if d.seenOrAdd(1, 2, 1) {
		t.Fatal("first application reported as already seen")
	}
	// Capacity is 1: adding a second distinct triple evicts the first.
	if d.seenOrAdd(3, 4, 1) {
		t.Fatal("second application reported as already seen")
	}
	if d.seenOrAdd(1, 2, 1) {
		t.Fatal("evicted triple should no longer be recognized as seen")
	}
}
