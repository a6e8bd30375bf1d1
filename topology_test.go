package main

import (
	"strings"
	"testing"
)

const goodTopologyText = `3
3
1 10.0.0.1 9001
2 10.0.0.2 9002 # second server
3 10.0.0.3 9003

1 2 2
2 3 3
1 3 7
`

func TestParseTopologyGood(t *testing.T) {
	top, err := ParseTopology(strings.NewReader(goodTopologyText))
	if err != nil {
		t.Fatalf("ParseTopology() error = %v", err)
	}
	if len(top.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(top.Nodes))
	}
	if top.Nodes[2] != (Address{Host: "10.0.0.2", Port: 9002}) {
		t.Errorf("Nodes[2] = %+v, want {10.0.0.2 9002}", top.Nodes[2])
	}
	if len(top.Links) != 3 {
		t.Fatalf("len(Links) = %d, want 3", len(top.Links))
	}
	want := LinkSpec{A: 1, B: 3, Cost: 7}
	if top.Links[2] != want {
		t.Errorf("Links[2] = %+v, want %+v", top.Links[2], want)
	}
}

func TestParseTopologyNeighborsOf(t *testing.T) {
	top, err := ParseTopology(strings.NewReader(goodTopologyText))
	if err != nil {
		t.Fatalf("ParseTopology() error = %v", err)
	}
	n := top.neighborsOf(1)
	if n[2] != 2 || n[3] != 7 {
		t.Errorf("neighborsOf(1) = %v, want {2:2, 3:7}", n)
	}
}

func TestParseTopologyRejectsUnknownLinkEndpoint(t *testing.T) {
	text := "2\n1\n1 10.0.0.1 9001\n2 10.0.0.2 9002\n1 9 5\n"
	if _, err := ParseTopology(strings.NewReader(text)); err == nil {
		t.Fatal("expected error for link referencing unknown server id")
	}
}

func TestParseTopologyRejectsMalformedServerCount(t *testing.T) {
	text := "x\n0\n"
	if _, err := ParseTopology(strings.NewReader(text)); err == nil {
		t.Fatal("expected error for malformed server count")
	}
}

func TestParseTopologyRejectsTruncatedFile(t *testing.T) {
	text := "2\n1\n1 10.0.0.1 9001\n"
	if _, err := ParseTopology(strings.NewReader(text)); err == nil {
		t.Fatal("expected error for truncated topology file")
	}
}

func TestDetectSelfIDExplicit(t *testing.T) {
	top, err := ParseTopology(strings.NewReader(goodTopologyText))
	if err != nil {
		t.Fatalf("ParseTopology() error = %v", err)
	}
	id := NodeID(2)
	got, err := DetectSelfID(top, &id)
	if err != nil {
		t.Fatalf("DetectSelfID() error = %v", err)
	}
	if got != 2 {
		t.Errorf("DetectSelfID() = %d, want 2", got)
	}
}

func TestDetectSelfIDExplicitUnknown(t *testing.T) {
	top, err := ParseTopology(strings.NewReader(goodTopologyText))
	if err != nil {
		t.Fatalf("ParseTopology() error = %v", err)
	}
	id := NodeID(99)
	if _, err := DetectSelfID(top, &id); err == nil {
		t.Fatal("expected error for id not present in topology")
	}
}
