package wireenc

import (
	"encoding/binary"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxVarintLen is the maximum length, in bytes, of a base-128 varint
// encoding of a 64-bit value.
const maxVarintLen = 10

// appendVarint emits the base-128 little-endian encoding of v.
//
// Fast path: a single byte when v < 128 and the buffer already has at
// least one free byte, avoiding a call into reserve/grow entirely. Slow
// path: build up to maxVarintLen bytes into a stack scratch array, then
// bulk-copy via writeBytes — this mirrors the reference implementation's
// encode_longvarint, which reserves the whole encoding in one call rather
// than writing it byte-by-byte.
func (b *buffer) appendVarint(v uint64) {
	if v < 0x80 && b.pos > 0 {
		b.pos--
		b.buf[b.pos] = byte(v)
		return
	}

	var scratch [maxVarintLen]byte
	n := 0
	for v >= 0x80 {
		scratch[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	scratch[n] = byte(v)
	n++

	b.writeBytes(scratch[:n])
}

// appendFixed32 writes v as 4 little-endian bytes. Using
// encoding/binary.LittleEndian makes the little-endian requirement
// portable without testing the host's byte order, unlike the reference
// C implementation, which must explicitly byte-swap on big-endian hosts.
func (b *buffer) appendFixed32(v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	b.writeBytes(scratch[:])
}

// appendFixed64 writes v as 8 little-endian bytes.
func (b *buffer) appendFixed64(v uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	b.writeBytes(scratch[:])
}

// appendTag emits the varint encoding of (number << 3 | wireType). Tag
// computation is delegated to protowire.EncodeTag, a direction-
// independent pure function, even though the write itself still goes
// through the reverse buffer.
func (b *buffer) appendTag(number protowire.Number, wireType protowire.Type) {
	b.appendVarint(protowire.EncodeTag(number, wireType))
}

// appendLengthPrefixed writes data, then the varint encoding of its
// length — in that order, because the buffer is written in reverse, this
// produces `len(data) data` in the final forward output.
func (b *buffer) appendLengthPrefixed(data []byte) {
	b.writeBytes(data)
	b.appendVarint(uint64(len(data)))
}
