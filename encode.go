package wireenc

import (
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/wireproto/wireenc/internal/arena"
)

// MessageSet legacy wire-format field numbers: the group item is
// START_GROUP(1) ... type_id(2, varint) ... message(3, bytes) ...
// END_GROUP(1).
const (
	messageSetItemNumber    protowire.Number = 1
	messageSetTypeIDNumber  protowire.Number = 2
	messageSetMessageNumber protowire.Number = 3
)

// encoder carries the transient state of a single Encode call: the
// buffer being written (in reverse), the recursion/abort context, and
// the Layout of the message currently being walked. layout is swapped on
// recursive descent and restored on return, since encodeScalarValue and
// friends address fields relative to whichever message they're currently
// reading.
type encoder struct {
	buf    *buffer
	ctx    *context
	layout *Layout
}

// Encode serializes m according to layout into a freshly allocated byte
// slice, returning ErrOutOfMemory if the output buffer could not grow to
// hold the result, or ErrMaxDepth if encoding recursed past the
// configured maximum depth.
//
// A successful Encode of a message with no fields set returns a non-nil
// zero-length slice, not nil, so that callers can distinguish "encoded
// successfully to nothing" from "not yet encoded."
func Encode(m Message, layout *Layout, opts Options) ([]byte, error) {
	a := arena.New()
	defer a.Free()
	return encodeWithArena(m, layout, opts, a)
}

// encodeWithArena is Encode's implementation, parameterized on the arena
// so tests can inject allocation failures via arena.Arena.FailAfter.
func encodeWithArena(m Message, layout *Layout, opts Options, a *arena.Arena) (out []byte, err error) {
	b := &buffer{arena: a}
	e := &encoder{buf: b, ctx: newContext(opts), layout: layout}

	defer func() {
		if r := recover(); r != nil {
			abort, ok := r.(encodeAbort)
			if !ok {
				panic(r)
			}
			out, err = nil, abort.err
		}
	}()

	e.encodeMessageBody(m)

	result := make([]byte, b.written())
	copy(result, b.buf[b.pos:])
	return result, nil
}

// encodeMessageBody writes every present declared field of m, in
// ascending field-number order in the final output, then m's extensions
// in storage order, then m's unknown-fields blob, if any and not
// suppressed (each list is walked in reverse against the reverse-growing
// buffer).
func (e *encoder) encodeMessageBody(m Message) {
	if e.layout.HasUnknown && e.ctx.options&SkipUnknown == 0 {
		e.buf.writeBytes(m.unknown(e.layout))
	}

	switch e.layout.Extensions {
	case MessageSet:
		e.encodeMessageSetExtensions(m)
	case Extendable:
		e.encodeOrdinaryExtensions(m)
	}

	fields := e.layout.Fields
	for i := len(fields) - 1; i >= 0; i-- {
		e.encodeField(m, &fields[i])
	}
}

// encodeField emits one field if present, dispatching on its storage
// mode.
func (e *encoder) encodeField(m Message, f *Field) {
	switch f.Mode {
	case ArrayMode:
		ptr := m.loadPtr(f.Offset)
		if ptr == nil {
			return
		}
		e.encodeArray(m, f, (*ArrayHeader)(ptr))

	case MapMode:
		ptr := m.loadPtr(f.Offset)
		if ptr == nil {
			return
		}
		e.encodeMapField(f, (*MapHeader)(ptr))

	default:
		if !e.fieldPresent(m, f) {
			return
		}
		e.encodeScalarValue(m, f, f.Offset)
		// GROUP is self-delimiting: encodeScalarValue's GROUP case (via
		// encodeGroupBody) already writes both the START_GROUP and
		// END_GROUP tags, so the common tag-append below must be
		// skipped for it, or it would emit a second START_GROUP tag.
		if f.Type != descriptorpb.FieldDescriptorProto_TYPE_GROUP {
			e.buf.appendTag(f.Number, wireTypeOf(f.Type))
		}
	}
}

// fieldPresent implements the presence policy (see Presence): explicit
// hasbit and oneof-case fields are emitted iff their bit/case says so,
// regardless of value; implicit fields are emitted iff their value is
// non-default.
func (e *encoder) fieldPresent(m Message, f *Field) bool {
	switch {
	case f.Presence > 0:
		return m.hasbit(e.layout.HasbitsOffset, int(f.Presence)-1)
	case f.Presence < 0:
		return m.oneofCase(f.Presence.oneofOffset()) == int32(f.Number)
	default:
		return !isZeroValue(m, f)
	}
}

// isZeroValue reports whether the scalar field f, read out of m, holds
// its type's default value, for implicit-presence suppression.
func isZeroValue(m Message, f *Field) bool {
	switch f.Repr {
	case Repr1Byte:
		return m.loadU8(f.Offset) == 0
	case Repr4Byte:
		return m.loadU32(f.Offset) == 0
	case Repr8Byte:
		return m.loadU64(f.Offset) == 0
	case ReprStringView:
		return m.loadStringView(f.Offset).Len == 0
	case ReprPointer:
		return m.loadPtr(f.Offset) == nil
	default:
		return false
	}
}

// encodeOrdinaryExtensions writes each of m's extensions as an ordinary
// field, using the extension's own Field descriptor exactly as if it
// were a static field of this message.
func (e *encoder) encodeOrdinaryExtensions(m Message) {
	exts := m.extensions(e.layout)
	for i := len(exts) - 1; i >= 0; i-- {
		e.encodeExtensionValue(&exts[i])
	}
}

// encodeExtensionValue writes one extension's value. Unlike an ordinary
// field, an extension's sub-layout (for MESSAGE/GROUP types) is carried
// directly on the Extension rather than indexed out of the owning
// Layout's Subs table, since extensions are not part of any static
// Layout's field list.
func (e *encoder) encodeExtensionValue(ext *Extension) {
	f := &ext.Field
	switch f.Mode {
	case ArrayMode:
		hdr := (*ArrayHeader)(ext.Value)
		if f.Type == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE ||
			f.Type == descriptorpb.FieldDescriptorProto_TYPE_GROUP {
			e.encodeExtensionArray(ext, hdr)
			return
		}
		e.encodeArray(Message{}, f, hdr)
		return
	case MapMode:
		e.encodeMapField(f, (*MapHeader)(ext.Value))
		return
	}

	switch f.Type {
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		msgPtr := *(*unsafe.Pointer)(ext.Value)
		if msgPtr == nil {
			return
		}
		e.encodeSubMessage(Message{Ptr: msgPtr}, ext.Sub)
		e.buf.appendTag(f.Number, protowire.BytesType)
	case descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		msgPtr := *(*unsafe.Pointer)(ext.Value)
		if msgPtr == nil {
			return
		}
		e.encodeGroupBody(Message{Ptr: msgPtr}, ext.Sub, f.Number)
	default:
		m := Message{Ptr: ext.Value}
		e.encodeScalarValue(m, f, 0)
		e.buf.appendTag(f.Number, wireTypeOf(f.Type))
	}
}

// encodeExtensionArray writes a repeated message/group extension: one
// tag+value (or group pair) per non-nil element, in reverse index order.
func (e *encoder) encodeExtensionArray(ext *Extension, hdr *ArrayHeader) {
	if hdr == nil || hdr.Len == 0 {
		return
	}
	f := &ext.Field
	ptrs := unsafe.Slice((*unsafe.Pointer)(hdr.Data), hdr.Len)
	for i := hdr.Len - 1; i >= 0; i-- {
		if ptrs[i] == nil {
			continue
		}
		if f.Type == descriptorpb.FieldDescriptorProto_TYPE_GROUP {
			e.encodeGroupBody(Message{Ptr: ptrs[i]}, ext.Sub, f.Number)
		} else {
			e.encodeSubMessage(Message{Ptr: ptrs[i]}, ext.Sub)
			e.buf.appendTag(f.Number, protowire.BytesType)
		}
	}
}

// encodeMessageSetExtensions writes each of m's extensions as a legacy
// MessageSet item:
//
//	START_GROUP(1) type_id(2, varint) message(3, bytes) END_GROUP(1)
//
// MessageSet extensions are always message-typed, one per type_id, with
// no repeated or packed variants.
func (e *encoder) encodeMessageSetExtensions(m Message) {
	exts := m.extensions(e.layout)
	for i := len(exts) - 1; i >= 0; i-- {
		e.encodeMessageSetItem(&exts[i])
	}
}

func (e *encoder) encodeMessageSetItem(ext *Extension) {
	e.buf.appendTag(messageSetItemNumber, protowire.EndGroupType)

	msgPtr := *(*unsafe.Pointer)(ext.Value)
	if msgPtr != nil {
		e.encodeSubMessage(Message{Ptr: msgPtr}, ext.Sub)
	} else {
		e.buf.appendVarint(0)
	}
	e.buf.appendTag(messageSetMessageNumber, protowire.BytesType)

	e.buf.appendVarint(uint64(ext.Field.Number))
	e.buf.appendTag(messageSetTypeIDNumber, protowire.VarintType)

	e.buf.appendTag(messageSetItemNumber, protowire.StartGroupType)
}
