package main

import (
	"bytes"
	"reflect"
	"testing"
)

func TestAdvertisementRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  *Advertisement
	}{
		{
			name: "empty vector",
			msg: &Advertisement{
				SenderID:   1,
				SenderHost: "10.0.0.1",
				SenderPort: 9001,
				Entries:    []VectorEntry{},
			},
		},
		{
			name: "several destinations including infinity",
			msg: &Advertisement{
				SenderID:   2,
				SenderHost: "10.0.0.2",
				SenderPort: 9002,
				Entries: []VectorEntry{
					{Dest: 1, Cost: 2},
					{Dest: 2, Cost: 0},
					{Dest: 3, Cost: int(infCap)},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := encodeFrame(tt.msg)
			if err != nil {
				t.Fatalf("encodeFrame() error = %v", err)
			}
			got, err := readFrame(bytes.NewReader(frame))
			if err != nil {
				t.Fatalf("readFrame() error = %v", err)
			}
			adv, ok := got.(*Advertisement)
			if !ok {
				t.Fatalf("readFrame() returned %T, want *Advertisement", got)
			}
			if !reflect.DeepEqual(adv, tt.msg) {
				t.Errorf("round trip = %+v, want %+v", adv, tt.msg)
			}
		})
	}
}

func TestLinkUpdateRoundTrip(t *testing.T) {
	msg := &LinkUpdateMsg{A: 1, B: 3, NewCost: 7, Origin: 1}
	frame, err := encodeFrame(msg)
	if err != nil {
		t.Fatalf("encodeFrame() error = %v", err)
	}
	got, err := readFrame(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("readFrame() error = %v", err)
	}
	lu, ok := got.(*LinkUpdateMsg)
	if !ok {
		t.Fatalf("readFrame() returned %T, want *LinkUpdateMsg", got)
	}
	if !reflect.DeepEqual(lu, msg) {
		t.Errorf("round trip = %+v, want %+v", lu, msg)
	}
}

func TestLinkDisableRoundTrip(t *testing.T) {
	msg := &LinkDisableMsg{A: 2, B: 3, Origin: 2}
	frame, err := encodeFrame(msg)
	if err != nil {
		t.Fatalf("encodeFrame() error = %v", err)
	}
	got, err := readFrame(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("readFrame() error = %v", err)
	}
	ld, ok := got.(*LinkDisableMsg)
	if !ok {
		t.Fatalf("readFrame() returned %T, want *LinkDisableMsg", got)
	}
	if !reflect.DeepEqual(ld, msg) {
		t.Errorf("round trip = %+v, want %+v", ld, msg)
	}
}

func TestCrashNotifyRoundTrip(t *testing.T) {
	msg := &CrashNotifyMsg{Origin: 2}
	frame, err := encodeFrame(msg)
	if err != nil {
		t.Fatalf("encodeFrame() error = %v", err)
	}
	got, err := readFrame(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("readFrame() error = %v", err)
	}
	cn, ok := got.(*CrashNotifyMsg)
	if !ok {
		t.Fatalf("readFrame() returned %T, want *CrashNotifyMsg", got)
	}
	if !reflect.DeepEqual(cn, msg) {
		t.Errorf("round trip = %+v, want %+v", cn, msg)
	}
}

func TestReadFrameRejectsUnknownKind(t *testing.T) {
	frame := []byte{0, 0, 0, 2, 0x7F, 0x00}
	if _, err := readFrame(bytes.NewReader(frame)); err == nil {
		t.Fatal("readFrame() expected error for unknown kind tag, got nil")
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	frame := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	if _, err := readFrame(bytes.NewReader(frame)); err == nil {
		t.Fatal("readFrame() expected error for oversized length, got nil")
	}
}

func TestCostWireConversion(t *testing.T) {
	if got := costToWire(5); got != 5 {
		t.Errorf("costToWire(5) = %d, want 5", got)
	}
	if got := costToWire(int(infCap)); got != wireInfinity {
		t.Errorf("costToWire(infCap) = %d, want %d", got, wireInfinity)
	}
	if got := costFromWire(wireInfinity); got != int(infCap) {
		t.Errorf("costFromWire(wireInfinity) = %d, want %d", got, infCap)
	}
}
