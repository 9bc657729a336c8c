package wireenc

import (
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/wireproto/wireenc/internal/zigzag"
)

// wireTypeOf returns the wire type a field of the given descriptor type
// occupies when not packed.
func wireTypeOf(t DescriptorType) protowire.Type {
	switch t {
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return protowire.Fixed64Type
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		return protowire.Fixed32Type
	case descriptorpb.FieldDescriptorProto_TYPE_STRING,
		descriptorpb.FieldDescriptorProto_TYPE_BYTES,
		descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		return protowire.BytesType
	case descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		return protowire.StartGroupType
	default:
		// INT32, INT64, UINT32, UINT64, SINT32, SINT64, BOOL, ENUM.
		return protowire.VarintType
	}
}

// isPackable reports whether a field of type t can ever be packed.
func isPackable(t DescriptorType) bool {
	switch t {
	case descriptorpb.FieldDescriptorProto_TYPE_STRING,
		descriptorpb.FieldDescriptorProto_TYPE_BYTES,
		descriptorpb.FieldDescriptorProto_TYPE_MESSAGE,
		descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		return false
	default:
		return true
	}
}

// elemWidth returns the in-memory byte width of a 1-, 4- or 8-byte
// representation, used for array element offsets, the packed bulk-copy
// fast path and map-key comparison. It panics for ReprStringView and
// ReprPointer.
func elemWidth(repr Repr) int {
	switch repr {
	case Repr1Byte:
		return 1
	case Repr4Byte:
		return 4
	case Repr8Byte:
		return 8
	default:
		panic("wireenc: elemWidth called on a variable-width representation")
	}
}

// isVarintEncoded reports whether t's scalar wire representation is a
// varint (as opposed to a fixed-width 32/64 bit little-endian value).
func isVarintEncoded(t DescriptorType) bool {
	return wireTypeOf(t) == protowire.VarintType
}

// encodeScalarValue writes the wire-format bytes for one scalar value
// read out of message memory at the given offset, according to f.Type
// and f.Repr. It does not write a tag. f.SubLayout is only consulted
// for MESSAGE/GROUP.
func (e *encoder) encodeScalarValue(m Message, f *Field, offset uintptr) {
	switch f.Type {
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		v := m.loadU8(offset)
		if v != 0 {
			v = 1
		}
		e.buf.appendVarint(uint64(v))

	case descriptorpb.FieldDescriptorProto_TYPE_INT32:
		v := int32(m.loadU32(offset))
		// Negative int32 values are sign-extended to 64 bits and encoded
		// as a full 10-byte varint, per proto wire-format semantics.
		e.buf.appendVarint(uint64(int64(v)))

	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		v := int32(m.loadU32(offset))
		e.buf.appendVarint(uint64(int64(v)))

	case descriptorpb.FieldDescriptorProto_TYPE_UINT32:
		e.buf.appendVarint(uint64(m.loadU32(offset)))

	case descriptorpb.FieldDescriptorProto_TYPE_SINT32:
		v := int32(m.loadU32(offset))
		e.buf.appendVarint(uint64(zigzag.Encode32(v)))

	case descriptorpb.FieldDescriptorProto_TYPE_INT64,
		descriptorpb.FieldDescriptorProto_TYPE_UINT64:
		e.buf.appendVarint(m.loadU64(offset))

	case descriptorpb.FieldDescriptorProto_TYPE_SINT64:
		v := int64(m.loadU64(offset))
		e.buf.appendVarint(zigzag.Encode64(v))

	case descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		e.buf.appendFixed32(m.loadU32(offset))

	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		e.buf.appendFixed32(m.loadU32(offset))

	case descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		e.buf.appendFixed64(m.loadU64(offset))

	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		e.buf.appendFixed64(m.loadU64(offset))

	case descriptorpb.FieldDescriptorProto_TYPE_STRING,
		descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		sv := m.loadStringView(offset)
		e.buf.appendLengthPrefixed(sv.Bytes())

	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		ptr := m.loadPtr(offset)
		if ptr == nil {
			panic("wireenc: encodeScalarValue called on an absent message field")
		}
		e.encodeSubMessage(Message{Ptr: ptr}, e.layout.Subs[f.SubLayout])

	case descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		ptr := m.loadPtr(offset)
		if ptr == nil {
			panic("wireenc: encodeScalarValue called on an absent group field")
		}
		e.encodeGroupBody(Message{Ptr: ptr}, e.layout.Subs[f.SubLayout], f.Number)

	default:
		panic("wireenc: unsupported descriptor type")
	}
}

// encodeSubMessage writes a MESSAGE-typed value as a length-prefixed
// nested encoding, recursing with the depth guard held.
func (e *encoder) encodeSubMessage(sub Message, layout *Layout) {
	e.ctx.enter()
	mark := e.buf.written()
	parent := e.layout
	e.layout = layout
	e.encodeMessageBody(sub)
	e.layout = parent
	length := e.buf.written() - mark
	e.buf.appendVarint(uint64(length))
	e.ctx.exit()
}

// encodeGroupBody writes a GROUP-typed value as START_GROUP ... END_GROUP,
// with no length prefix (groups are self-delimiting via their end tag).
func (e *encoder) encodeGroupBody(sub Message, layout *Layout, number protowire.Number) {
	e.ctx.enter()
	e.buf.appendTag(number, protowire.EndGroupType)
	parent := e.layout
	e.layout = layout
	e.encodeMessageBody(sub)
	e.layout = parent
	e.buf.appendTag(number, protowire.StartGroupType)
	e.ctx.exit()
}
