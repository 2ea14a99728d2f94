package ubx

import (
	"encoding/binary"
	"fmt"
)

// UBX frame layout: two sync bytes, class, ID, little-endian 16-bit payload
// length, payload, then a 2-byte Fletcher checksum computed over everything
// between the sync bytes and the checksum itself.
const (
	Sync1 = 0xB5
	Sync2 = 0x62

	// HeaderLen is sync + class + ID + length.
	HeaderLen = 6
	// Overhead is everything in a frame that is not payload.
	Overhead = HeaderLen + 2

	// MaxPayloadLen bounds the length field a frame is allowed to declare.
	// Real receiver output stays well under this (the largest periodic
	// messages are a few KB); the bound keeps a corrupt length field from
	// swallowing the rest of a stream.
	MaxPayloadLen = 8192
)

// Checksum computes the UBX Fletcher checksum over data. Callers pass the
// frame bytes from class through the end of the payload.
func Checksum(data []byte) (ckA, ckB byte) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// Build assembles a complete frame from a class, ID and payload, computing
// the length field and checksum.
func Build(class, id byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("payload too large: %d > %d", len(payload), MaxPayloadLen)
	}
	frame := make([]byte, 0, Overhead+len(payload))
	frame = append(frame, Sync1, Sync2, class, id)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(payload)))
	frame = append(frame, payload...)
	ckA, ckB := Checksum(frame[2:])
	frame = append(frame, ckA, ckB)
	return frame, nil
}

// Valid reports whether frame is a structurally complete UBX frame with a
// correct length field and checksum.
func Valid(frame []byte) bool {
	if len(frame) < Overhead {
		return false
	}
	if frame[0] != Sync1 || frame[1] != Sync2 {
		return false
	}
	n := int(binary.LittleEndian.Uint16(frame[4:6]))
	if len(frame) != Overhead+n {
		return false
	}
	ckA, ckB := Checksum(frame[2 : len(frame)-2])
	return frame[len(frame)-2] == ckA && frame[len(frame)-1] == ckB
}

// ClassID extracts the message class and ID from a frame. It checks only
// that the header is present; use Valid for full verification.
func ClassID(frame []byte) (class, id byte, ok bool) {
	if len(frame) < 4 || frame[0] != Sync1 || frame[1] != Sync2 {
		return 0, 0, false
	}
	return frame[2], frame[3], true
}

// PayloadLen returns the declared payload length of a frame header.
func PayloadLen(frame []byte) (int, bool) {
	if len(frame) < HeaderLen || frame[0] != Sync1 || frame[1] != Sync2 {
		return 0, false
	}
	return int(binary.LittleEndian.Uint16(frame[4:6])), true
}
