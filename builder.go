package wireenc

import (
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/descriptorpb"
)

func protowireNumber(n int32) protowire.Number { return protowire.Number(n) }

func sortFieldsByNumber(fields []Field) {
	sort.Slice(fields, func(i, j int) bool { return fields[i].Number < fields[j].Number })
}

// Builder assembles a Layout from plain Go code, without requiring a
// generator or parsing a FileDescriptorProto. It is meant for tests and
// for small hand-written message types; real deployments producing many
// message types from .proto sources should generate Layout/Field values
// directly instead of going through Builder at runtime.
type Builder struct {
	fields        []Field
	subs          []*Layout
	extensions    ExtensionMode
	hasbitsOffset uintptr
	hasUnknown    bool
	unknownOffset uintptr
	extsOffset    uintptr
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// WithHasbits records the byte offset of the message's hasbit array.
func (b *Builder) WithHasbits(offset uintptr) *Builder {
	b.hasbitsOffset = offset
	return b
}

// WithUnknown records that the message carries an unknown-fields blob at
// the given offset.
func (b *Builder) WithUnknown(offset uintptr) *Builder {
	b.hasUnknown = true
	b.unknownOffset = offset
	return b
}

// WithExtensions records that the message carries extensions of the
// given kind at the given offset (an extensionList header).
func (b *Builder) WithExtensions(mode ExtensionMode, offset uintptr) *Builder {
	b.extensions = mode
	b.extsOffset = offset
	return b
}

// Scalar adds a scalar (ScalarMode) field.
func (b *Builder) Scalar(number int32, typ DescriptorType, repr Repr, offset uintptr, presence Presence) *Builder {
	b.fields = append(b.fields, Field{
		Number:    protowireNumber(number),
		Type:      typ,
		Mode:      ScalarMode,
		Repr:      repr,
		Offset:    offset,
		Presence:  presence,
		SubLayout: -1,
	})
	return b
}

// SubMessage adds a scalar MESSAGE or GROUP field, along with the
// sub-layout it points to.
func (b *Builder) SubMessage(number int32, typ DescriptorType, offset uintptr, presence Presence, sub *Layout) *Builder {
	idx := b.addSub(sub)
	b.fields = append(b.fields, Field{
		Number:    protowireNumber(number),
		Type:      typ,
		Mode:      ScalarMode,
		Repr:      ReprPointer,
		Offset:    offset,
		Presence:  presence,
		SubLayout: idx,
	})
	return b
}

// Array adds a repeated (ArrayMode) field of a non-message, non-group
// type.
func (b *Builder) Array(number int32, typ DescriptorType, repr Repr, offset uintptr, packed bool) *Builder {
	if packed && !isPackable(typ) {
		panic("wireenc: only primitive/enum/bool fields can be packed")
	}
	b.fields = append(b.fields, Field{
		Number:    protowireNumber(number),
		Type:      typ,
		Mode:      ArrayMode,
		Repr:      repr,
		Offset:    offset,
		Packed:    packed,
		SubLayout: -1,
	})
	return b
}

// ArrayOfMessages adds a repeated MESSAGE or GROUP field.
func (b *Builder) ArrayOfMessages(number int32, typ DescriptorType, offset uintptr, sub *Layout) *Builder {
	idx := b.addSub(sub)
	b.fields = append(b.fields, Field{
		Number:    protowireNumber(number),
		Type:      typ,
		Mode:      ArrayMode,
		Repr:      ReprPointer,
		Offset:    offset,
		SubLayout: idx,
	})
	return b
}

// Map adds a map field. keyType/keyRepr/valType/valRepr/valSub describe
// the synthetic two-field MapEntry layout the encoder reads entries
// through; valSub is only consulted when valType is MESSAGE.
func (b *Builder) Map(number int32, offset uintptr, keyType DescriptorType, keyRepr Repr, valType DescriptorType, valRepr Repr, valSub *Layout) *Builder {
	entry := &Layout{
		Fields: []Field{
			{Number: 1, Type: keyType, Mode: ScalarMode, Repr: keyRepr, SubLayout: -1},
			{Number: 2, Type: valType, Mode: ScalarMode, Repr: valRepr, SubLayout: -1},
		},
	}
	if valType == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
		subIdx := int32(0)
		if valSub != nil {
			entry.Subs = []*Layout{valSub}
		}
		entry.Fields[1].SubLayout = subIdx
	}
	idx := b.addSub(entry)
	b.fields = append(b.fields, Field{
		Number:    protowireNumber(number),
		Mode:      MapMode,
		Offset:    offset,
		SubLayout: idx,
	})
	return b
}

func (b *Builder) addSub(sub *Layout) int32 {
	b.subs = append(b.subs, sub)
	return int32(len(b.subs) - 1)
}

// Build returns the assembled Layout. Fields are sorted ascending by
// field number, matching what the encoder's reverse walk requires to
// emit fields in ascending order.
func (b *Builder) Build() *Layout {
	fields := append([]Field(nil), b.fields...)
	sortFieldsByNumber(fields)
	return &Layout{
		Fields:           fields,
		Subs:             b.subs,
		Extensions:       b.extensions,
		HasbitsOffset:    b.hasbitsOffset,
		HasUnknown:       b.hasUnknown,
		UnknownOffset:    b.unknownOffset,
		ExtensionsOffset: b.extsOffset,
	}
}
