package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// wireInfinity is the sentinel cost value meaning "no path" on the wire.
// It is the maximum representable uint32 rather than a smaller round
// number like 0xFFFF so that it can never collide with a legitimate
// finite cost below infCap (1,000,000).
const wireInfinity uint32 = math.MaxUint32

// Message kind tags. The advertisement and the three control-message
// subtypes are variants of one wire message; decode returns a tagged union.
const (
	kindAdvertisement byte = iota + 1
	kindLinkUpdate
	kindLinkDisable
	kindCrashNotify
)

const maxFrameLen = 1 << 16 // bound a single frame to one short read

// Message is the tagged union decoded off the wire.
type Message interface {
	kind() byte
	encodeBody() []byte
}

// VectorEntry is one (destination, advertised cost) pair in a distance
// vector advertisement.
type VectorEntry struct {
	Dest NodeID
	Cost int
}

// Advertisement carries the sender's full distance vector, including the
// cost to itself (always 0).
type Advertisement struct {
	SenderID   NodeID
	SenderHost string
	SenderPort int
	Entries    []VectorEntry
}

func (a *Advertisement) kind() byte { return kindAdvertisement }

func (a *Advertisement) encodeBody() []byte {
	buf := make([]byte, 0, 16+len(a.Entries)*6)
	buf = appendUint16(buf, uint16(a.SenderID))
	buf = appendString(buf, a.SenderHost)
	buf = appendUint16(buf, uint16(a.SenderPort))
	buf = appendUint16(buf, uint16(len(a.Entries)))
	for _, e := range a.Entries {
		buf = appendUint16(buf, uint16(e.Dest))
		buf = appendUint32(buf, costToWire(e.Cost))
	}
	return buf
}

func decodeAdvertisement(b []byte) (*Advertisement, error) {
	a := &Advertisement{}
	var ok bool
	var senderID, senderPort uint16

	senderID, b, ok = readUint16(b)
	if !ok {
		return nil, fmt.Errorf("advertisement: truncated sender id")
	}
	a.SenderID = NodeID(senderID)

	a.SenderHost, b, ok = readString(b)
	if !ok {
		return nil, fmt.Errorf("advertisement: truncated sender host")
	}

	senderPort, b, ok = readUint16(b)
	if !ok {
		return nil, fmt.Errorf("advertisement: truncated sender port")
	}
	a.SenderPort = int(senderPort)

	count, b, ok := readUint16(b)
	if !ok {
		return nil, fmt.Errorf("advertisement: truncated entry count")
	}
	a.Entries = make([]VectorEntry, 0, count)
	for i := 0; i < int(count); i++ {
		var dest uint16
		var cost uint32
		dest, b, ok = readUint16(b)
		if !ok {
			return nil, fmt.Errorf("advertisement: truncated entry %d", i)
		}
		cost, b, ok = readUint32(b)
		if !ok {
			return nil, fmt.Errorf("advertisement: truncated entry %d cost", i)
		}
		a.Entries = append(a.Entries, VectorEntry{Dest: NodeID(dest), Cost: costFromWire(cost)})
	}
	if len(b) != 0 {
		return nil, fmt.Errorf("advertisement: %d trailing bytes", len(b))
	}
	return a, nil
}

// LinkUpdateMsg requests the link (A,B) be set to NewCost. NewCost may be
// the infinity sentinel to disable the link.
type LinkUpdateMsg struct {
	A, B    NodeID
	NewCost int
	Origin  NodeID
}

func (m *LinkUpdateMsg) kind() byte { return kindLinkUpdate }

func (m *LinkUpdateMsg) encodeBody() []byte {
	buf := make([]byte, 0, 8)
	buf = appendUint16(buf, uint16(m.A))
	buf = appendUint16(buf, uint16(m.B))
	buf = appendUint32(buf, costToWire(m.NewCost))
	buf = appendUint16(buf, uint16(m.Origin))
	return buf
}

func decodeLinkUpdate(b []byte) (*LinkUpdateMsg, error) {
	m := &LinkUpdateMsg{}
	var a, bb, origin uint16
	var cost uint32
	var ok bool

	a, b, ok = readUint16(b)
	if !ok {
		return nil, fmt.Errorf("link-update: truncated a")
	}
	bb, b, ok = readUint16(b)
	if !ok {
		return nil, fmt.Errorf("link-update: truncated b")
	}
	cost, b, ok = readUint32(b)
	if !ok {
		return nil, fmt.Errorf("link-update: truncated cost")
	}
	origin, b, ok = readUint16(b)
	if !ok {
		return nil, fmt.Errorf("link-update: truncated origin")
	}
	if len(b) != 0 {
		return nil, fmt.Errorf("link-update: %d trailing bytes", len(b))
	}
	m.A, m.B, m.NewCost, m.Origin = NodeID(a), NodeID(bb), costFromWire(cost), NodeID(origin)
	return m, nil
}

// LinkDisableMsg is equivalent to LinkUpdateMsg(a, b, infinity, origin) but
// kept distinct so an implementation may free neighbor-view state eagerly.
type LinkDisableMsg struct {
	A, B   NodeID
	Origin NodeID
}

func (m *LinkDisableMsg) kind() byte { return kindLinkDisable }

func (m *LinkDisableMsg) encodeBody() []byte {
	buf := make([]byte, 0, 6)
	buf = appendUint16(buf, uint16(m.A))
	buf = appendUint16(buf, uint16(m.B))
	buf = appendUint16(buf, uint16(m.Origin))
	return buf
}

func decodeLinkDisable(b []byte) (*LinkDisableMsg, error) {
	m := &LinkDisableMsg{}
	var a, bb, origin uint16
	var ok bool

	a, b, ok = readUint16(b)
	if !ok {
		return nil, fmt.Errorf("link-disable: truncated a")
	}
	bb, b, ok = readUint16(b)
	if !ok {
		return nil, fmt.Errorf("link-disable: truncated b")
	}
	origin, b, ok = readUint16(b)
	if !ok {
		return nil, fmt.Errorf("link-disable: truncated origin")
	}
	if len(b) != 0 {
		return nil, fmt.Errorf("link-disable: %d trailing bytes", len(b))
	}
	m.A, m.B, m.Origin = NodeID(a), NodeID(bb), NodeID(origin)
	return m, nil
}

// CrashNotifyMsg is advisory: Origin is going offline.
type CrashNotifyMsg struct {
	Origin NodeID
}

func (m *CrashNotifyMsg) kind() byte { return kindCrashNotify }

func (m *CrashNotifyMsg) encodeBody() []byte {
	return appendUint16(nil, uint16(m.Origin))
}

func decodeCrashNotify(b []byte) (*CrashNotifyMsg, error) {
	origin, b, ok := readUint16(b)
	if !ok {
		return nil, fmt.Errorf("crash-notify: truncated origin")
	}
	if len(b) != 0 {
		return nil, fmt.Errorf("crash-notify: %d trailing bytes", len(b))
	}
	return &CrashNotifyMsg{Origin: NodeID(origin)}, nil
}

// costToWire maps an internal cost (capped at infCap) onto the wire
// sentinel representation.
func costToWire(cost int) uint32 {
	if cost >= int(infCap) {
		return wireInfinity
	}
	return uint32(cost)
}

func costFromWire(cost uint32) int {
	if cost == wireInfinity {
		return int(infCap)
	}
	return int(cost)
}

// encodeFrame writes a length-prefixed frame: 4-byte big-endian length,
// 1-byte kind tag, then the message body.
func encodeFrame(m Message) ([]byte, error) {
	body := m.encodeBody()
	if len(body)+1 > maxFrameLen {
		return nil, fmt.Errorf("encode frame: body too large: %d bytes", len(body))
	}
	frame := make([]byte, 4+1+len(body))
	binary.BigEndian.PutUint32(frame[0:4], uint32(1+len(body)))
	frame[4] = m.kind()
	copy(frame[5:], body)
	return frame, nil
}

// readFrame reads exactly one length-prefixed frame from r and decodes it
// into the appropriate Message variant. Any parse failure is reported so
// the caller can drop the message and continue (see the error-handling
// design's protocol-error category).
func readFrame(r io.Reader) (Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 || n > maxFrameLen {
		return nil, fmt.Errorf("read frame: invalid length %d", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	kindTag, payload := body[0], body[1:]
	switch kindTag {
	case kindAdvertisement:
		return decodeAdvertisement(payload)
	case kindLinkUpdate:
		return decodeLinkUpdate(payload)
	case kindLinkDisable:
		return decodeLinkDisable(payload)
	case kindCrashNotify:
		return decodeCrashNotify(payload)
	default:
		return nil, fmt.Errorf("read frame: unknown kind tag %d", kindTag)
	}
}

func appendUint16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, byte(len(s)))
	return append(buf, s...)
}

func readUint16(b []byte) (uint16, []byte, bool) {
	if len(b) < 2 {
		return 0, b, false
	}
	return binary.BigEndian.Uint16(b[:2]), b[2:], true
}

func readUint32(b []byte) (uint32, []byte, bool) {
	if len(b) < 4 {
		return 0, b, false
	}
	return binary.BigEndian.Uint32(b[:4]), b[4:], true
}

func readString(b []byte) (string, []byte, bool) {
	if len(b) < 1 {
		return "", b, false
	}
	n := int(b[0])
	b = b[1:]
	if len(b) < n {
		return "", b, false
	}
	return string(b[:n]), b[n:], true
}
