// Package zigzag implements the zigzag integer transform used by the
// SINT32/SINT64 wire types.
package zigzag

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Encode32 zigzag-encodes a 32-bit signed integer: (n << 1) ^ (n >> 31),
// using an arithmetic (sign-extending) right shift.
func Encode32(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}

// Encode64 zigzag-encodes a 64-bit signed integer: (n << 1) ^ (n >> 63).
func Encode64(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// Decode reverses Encode64 for round-trip tests. It is grounded directly
// on protowire.DecodeZigZag, reused verbatim since zigzag decoding is a
// pure function independent of write direction.
func Decode(raw uint64) int64 {
	return protowire.DecodeZigZag(raw)
}
