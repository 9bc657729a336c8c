// Package wireenc implements a protocol-buffers wire-format encoder core:
// given an in-memory message and a compact runtime Layout descriptor, it
// produces the canonical binary encoding in a single pass, writing the
// output buffer backwards so that sub-message lengths are known at the
// moment they must be emitted.
//
// wireenc does not parse .proto files, generate layouts, or decode
// messages; it consumes the Layout/Field/Message ABI described below,
// which a code generator (or, for tests and small programs, the Builder
// in builder.go) is expected to produce.
package wireenc

import (
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/descriptorpb"
)

// DescriptorType is one of the 18 field kinds a .proto field can have.
// It is the real protobuf descriptor-type enumeration, reused directly
// from google.golang.org/protobuf so Field.Type values match the wire
// semantics callers already know from protoreflect.
type DescriptorType = descriptorpb.FieldDescriptorProto_Type

// StorageMode describes how a field's value is stored in message memory.
type StorageMode uint8

const (
	// ScalarMode fields store a single value at Field.Offset.
	ScalarMode StorageMode = iota
	// ArrayMode fields store a *ArrayHeader (or nil) at Field.Offset.
	ArrayMode
	// MapMode fields store a *MapHeader (or nil) at Field.Offset.
	MapMode
)

// Repr is the in-memory representation of a scalar field's value.
type Repr uint8

const (
	// Repr1Byte covers BOOL.
	Repr1Byte Repr = iota
	// Repr4Byte covers FLOAT, INT32, UINT32, ENUM, FIXED32, SFIXED32,
	// SINT32.
	Repr4Byte
	// Repr8Byte covers DOUBLE, INT64, UINT64, FIXED64, SFIXED64, SINT64.
	Repr8Byte
	// ReprStringView covers STRING and BYTES, stored as a StringView.
	ReprStringView
	// ReprPointer covers MESSAGE and GROUP, stored as a raw pointer to
	// the sub-message's memory (nil if unset).
	ReprPointer
)

// Presence encodes how a field's presence is determined.
//
//   - 0 is "implicit": presence follows from the value being non-default
//     (proto3 semantics), or from an array/map being nil or empty.
//   - A positive value is a 1-based index into the message's hasbit
//     array.
//   - A negative value is the bitwise NOT of the byte offset, within the
//     message, of the int32 oneof-case tag that must equal this field's
//     number for the field to be present.
type Presence int32

// Implicit is the presence code for proto3 default-value suppression and
// for array/map emptiness.
const Implicit Presence = 0

// Hasbit returns the presence code for the given 1-based hasbit index.
func Hasbit(oneBasedIndex int) Presence {
	if oneBasedIndex <= 0 {
		panic("wireenc: hasbit index must be 1-based and positive")
	}
	return Presence(oneBasedIndex)
}

// OneofCase returns the presence code for a field participating in a
// oneof whose case tag lives at the given byte offset in message memory.
func OneofCase(caseOffset uintptr) Presence {
	return Presence(^int32(caseOffset))
}

func (p Presence) oneofOffset() uintptr {
	return uintptr(^int32(p))
}

// Field bundles everything the encoder needs to read and emit one field
// of a message.
type Field struct {
	// Number is the field's wire number.
	Number protowire.Number
	// Type is the field's descriptor type; see DescriptorType.
	Type DescriptorType
	// Mode selects scalar/array/map storage.
	Mode StorageMode
	// Packed is only meaningful for ArrayMode fields of primitive
	// numeric/bool/enum type.
	Packed bool
	// Extension marks this Field as belonging to an Extension rather
	// than a message's static field list; the message emitter does not
	// consult this itself (it is implied by which list the Field came
	// from), but it is carried for introspection.
	Extension bool
	// Repr is the in-memory representation of a ScalarMode field's
	// value, or of an ArrayMode field's elements. Unused for MapMode.
	Repr Repr
	// Offset is the byte offset of the value slot within message
	// memory.
	Offset uintptr
	// Presence determines whether the field is emitted; see Presence.
	Presence Presence
	// SubLayout indexes into the owning Layout's Subs table: for
	// MESSAGE/GROUP-typed fields (scalar, array element, or a map entry's
	// value field) it names the sub-message layout, and for MapMode
	// fields it names the synthetic two-field entry layout. -1 if unused.
	SubLayout int32
}

// ExtensionMode classifies how a Layout's extensions, if any, are shaped
// on the wire.
type ExtensionMode uint8

const (
	// NoExtensions messages carry no extensions.
	NoExtensions ExtensionMode = iota
	// Extendable messages encode each extension as an ordinary field
	// using its own Field descriptor.
	Extendable
	// MessageSet messages encode each extension as a legacy MessageSet
	// group item (see encodeMessageSetItem).
	MessageSet
)

// Layout describes one message type: its fields (sorted ascending by
// field number), its sub-message layouts, and the location within
// message memory of its unknown-fields blob and extension list, if any.
//
// A Layout is immutable and safe for concurrent use by any number of
// encodes.
type Layout struct {
	// Fields is sorted ascending by Number. The encoder walks it in
	// reverse so that, combined with the reverse-writing buffer, fields
	// emerge in ascending field-number order in the final output.
	Fields []Field
	// Subs is indexed by Field.SubLayout. Extensions carry their own
	// layout in Extension.Sub instead.
	Subs []*Layout

	Extensions ExtensionMode

	// HasbitsOffset is the byte offset of the hasbit array within
	// message memory. Unused if no Field has positive Presence.
	HasbitsOffset uintptr

	// HasUnknown, if true, means message memory carries an unknownBlob
	// header at UnknownOffset.
	HasUnknown    bool
	UnknownOffset uintptr

	// ExtensionsOffset is the byte offset of an extensionList header
	// within message memory. Only consulted when Extensions != NoExtensions.
	ExtensionsOffset uintptr
}

// Message wraps a pointer to the start of a message's in-memory
// representation. The encoder reads through it only at offsets named by
// Field descriptors; it never allocates or mutates it.
type Message struct {
	Ptr unsafe.Pointer
}

// IsNil reports whether m refers to no message at all (used for
// optional MESSAGE/GROUP scalar slots).
func (m Message) IsNil() bool { return m.Ptr == nil }

func (m Message) at(offset uintptr) unsafe.Pointer {
	return unsafe.Add(m.Ptr, offset)
}

func (m Message) loadU8(offset uintptr) uint8 {
	return *(*uint8)(m.at(offset))
}

func (m Message) loadU32(offset uintptr) uint32 {
	return *(*uint32)(m.at(offset))
}

func (m Message) loadU64(offset uintptr) uint64 {
	return *(*uint64)(m.at(offset))
}

func (m Message) loadPtr(offset uintptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(m.at(offset))
}

func (m Message) loadStringView(offset uintptr) StringView {
	return *(*StringView)(m.at(offset))
}

// hasbit reports whether the given 0-based bit of the hasbit array
// (rooted at the layout's HasbitsOffset) is set.
func (m Message) hasbit(base uintptr, bit int) bool {
	byteOff := base + uintptr(bit/8)
	b := m.loadU8(byteOff)
	return b&(1<<uint(bit%8)) != 0
}

func (m Message) oneofCase(offset uintptr) int32 {
	return int32(m.loadU32(offset))
}

// StringView is the in-memory representation of a STRING/BYTES value: a
// pointer and a length. Its layout intentionally matches the first two
// words of both a Go string header and a Go slice header, so a Field of
// ReprStringView can be read directly out of a string or []byte field
// via unsafe.Pointer without any copying.
type StringView struct {
	Data unsafe.Pointer
	Len  int
}

// Bytes views the string view's data as a byte slice. The result aliases
// the original message memory and must not outlive it.
func (s StringView) Bytes() []byte {
	if s.Len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(s.Data), s.Len)
}

// StringViewOf builds a StringView over s without copying.
func StringViewOf(s string) StringView {
	if len(s) == 0 {
		return StringView{}
	}
	return StringView{Data: unsafe.Pointer(unsafe.StringData(s)), Len: len(s)}
}

// BytesViewOf builds a StringView over b without copying.
func BytesViewOf(b []byte) StringView {
	if len(b) == 0 {
		return StringView{}
	}
	return StringView{Data: unsafe.Pointer(unsafe.SliceData(b)), Len: len(b)}
}

// ArrayHeader is the in-memory representation of a repeated field's
// value: a contiguous buffer of Len elements, each Field.Repr bytes wide
// (or, for string/bytes/message/group elements, Len StringViews or
// pointers).
type ArrayHeader struct {
	Data unsafe.Pointer
	Len  int
}

// MapEntry is one (key, value) pair yielded while ranging over a Map.
// Key and Val point directly at the entry's key/value storage, shaped
// per the map field's synthetic two-field Layout (field 1 = key, field 2
// = value). The encoder collects every entry before writing any (so it
// can sort them), so they must stay valid after the Range callback
// returns, until Encode returns.
type MapEntry struct {
	Key unsafe.Pointer
	Val unsafe.Pointer
}

// Map is the opaque handle a MapMode field's value points to. The
// encoder never constructs or mutates a Map; it only ranges over one
// supplied through message memory. GoMap is a reference implementation
// for ordinary Go maps.
type Map interface {
	Len() int
	// Range calls yield for each entry in unspecified order, stopping
	// early if yield returns false.
	Range(yield func(MapEntry) bool)
}

// MapHeader is what a MapMode field's slot points to (or nil, for an
// absent map).
type MapHeader struct {
	M Map
}

// Extension is a (field descriptor, value storage) pair attached to an
// extendable message, living in a per-message side list rather than at a
// fixed offset.
type Extension struct {
	Field Field
	// Sub is the extension's sub-layout, required when Field.Type is
	// MESSAGE or GROUP (which, for a MessageSet, is always the case).
	Sub *Layout
	// Value points at the extension's value slot, shaped per
	// Field.Repr/Mode exactly like an ordinary field's slot.
	Value unsafe.Pointer
}

// extensionList is what Layout.ExtensionsOffset points to in message
// memory: a slice of Extension in storage order.
type extensionList struct {
	Data *Extension
	Len  int
}

func (m Message) extensions(l *Layout) []Extension {
	hdr := (*extensionList)(m.at(l.ExtensionsOffset))
	if hdr.Len == 0 {
		return nil
	}
	return unsafe.Slice(hdr.Data, hdr.Len)
}

// unknownBlob is what Layout.UnknownOffset points to in message memory:
// the raw bytes of fields the decoder did not recognize, captured
// verbatim at decode time.
type unknownBlob struct {
	Data unsafe.Pointer
	Len  int
}

func (m Message) unknown(l *Layout) []byte {
	hdr := (*unknownBlob)(m.at(l.UnknownOffset))
	if hdr.Len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(hdr.Data), hdr.Len)
}
