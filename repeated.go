package wireenc

import (
	"encoding/binary"
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/descriptorpb"
)

// encodeArray writes one ArrayMode field: either a packed run inside a
// single length-delimited value, or one tag+value per element.
//
// Elements are written in reverse index order so that, combined with the
// reverse buffer, they emerge in original order in the final output.
func (e *encoder) encodeArray(m Message, f *Field, hdr *ArrayHeader) {
	if hdr == nil || hdr.Len == 0 {
		return
	}
	if f.Packed {
		e.encodePackedArray(f, hdr)
		return
	}

	switch f.Type {
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		ptrs := unsafe.Slice((*unsafe.Pointer)(hdr.Data), hdr.Len)
		sub := e.layout.Subs[f.SubLayout]
		for i := hdr.Len - 1; i >= 0; i-- {
			if ptrs[i] == nil {
				continue
			}
			e.encodeSubMessage(Message{Ptr: ptrs[i]}, sub)
			e.buf.appendTag(f.Number, protowire.BytesType)
		}

	case descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		ptrs := unsafe.Slice((*unsafe.Pointer)(hdr.Data), hdr.Len)
		sub := e.layout.Subs[f.SubLayout]
		for i := hdr.Len - 1; i >= 0; i-- {
			if ptrs[i] == nil {
				continue
			}
			e.encodeGroupBody(Message{Ptr: ptrs[i]}, sub, f.Number)
		}

	case descriptorpb.FieldDescriptorProto_TYPE_STRING,
		descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		views := unsafe.Slice((*StringView)(hdr.Data), hdr.Len)
		for i := hdr.Len - 1; i >= 0; i-- {
			e.buf.appendLengthPrefixed(views[i].Bytes())
			e.buf.appendTag(f.Number, protowire.BytesType)
		}

	default:
		wt := wireTypeOf(f.Type)
		elems := Message{Ptr: hdr.Data}
		for i := hdr.Len - 1; i >= 0; i-- {
			e.encodeScalarValue(elems, f, elemOffset(f.Repr, i))
			e.buf.appendTag(f.Number, wt)
		}
	}
}

// encodePackedArray writes a primitive array as a single length-delimited
// value holding the concatenation of each element's unframed encoding.
func (e *encoder) encodePackedArray(f *Field, hdr *ArrayHeader) {
	mark := e.buf.written()

	littleEndianHost := binary.NativeEndian.Uint16([]byte{1, 0}) == 1
	if !isVarintEncoded(f.Type) && littleEndianHost {
		// On a little-endian host, fixed-width elements occupy the same
		// byte layout on the wire as they do in memory, so the whole
		// backing array can be copied in one bulk write instead of one
		// append per element. Other hosts take the per-element path,
		// whose fixed-width writes are always little-endian.
		width := elemWidth(f.Repr)
		n := hdr.Len * width
		all := unsafe.Slice((*byte)(hdr.Data), n)
		e.buf.writeBytes(all)
	} else {
		elems := Message{Ptr: hdr.Data}
		for i := hdr.Len - 1; i >= 0; i-- {
			e.encodeScalarValue(elems, f, elemOffset(f.Repr, i))
		}
	}

	length := e.buf.written() - mark
	e.buf.appendVarint(uint64(length))
	e.buf.appendTag(f.Number, protowire.BytesType)
}

// elemOffset computes the offset of element i within a packable array,
// for use against a Message whose Ptr is the array's Data pointer.
func elemOffset(repr Repr, i int) uintptr {
	return uintptr(i * elemWidth(repr))
}
