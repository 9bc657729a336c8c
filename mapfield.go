package wireenc

import (
	"bytes"
	"sort"
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/wireproto/wireenc/internal/dbg"
)

// encodeMapField writes one MapMode field as a sequence of length-
// delimited map-entry submessages, each shaped `key=1, value=2`. f's
// sub-layout (e.layout.Subs[f.SubLayout]) is the synthetic two-field
// layout describing the key (Fields[0]) and value (Fields[1]).
//
// Entry order is the Map implementation's Range order (unspecified for
// GoMap) unless Deterministic is set, in which case entries are sorted
// ascending by key first — grounded in the legacy golang-protobuf
// runtime's mapKeySorter, which canonicalizes map output the same way
// for reproducible encodings across repeated calls and processes.
func (e *encoder) encodeMapField(f *Field, hdr *MapHeader) {
	if hdr == nil || hdr.M == nil || hdr.M.Len() == 0 {
		return
	}

	sub := e.layout.Subs[f.SubLayout]
	keyField := &sub.Fields[0]
	valField := &sub.Fields[1]

	entries := make([]MapEntry, 0, hdr.M.Len())
	hdr.M.Range(func(me MapEntry) bool {
		entries = append(entries, me)
		return true
	})

	if e.ctx.options&Deterministic != 0 {
		dbg.Log("mapsort", "field=%d entries=%d", f.Number, len(entries))
		sortMapEntries(entries, keyField)
	}

	// The entry fields' SubLayout indexes (for a MESSAGE value) refer to
	// the entry layout's own Subs table.
	parent := e.layout
	e.layout = sub
	for i := len(entries) - 1; i >= 0; i-- {
		e.encodeMapEntry(f.Number, keyField, valField, entries[i])
	}
	e.layout = parent
}

// encodeMapEntry writes one key/value pair as a length-delimited
// two-field submessage. Both key and value are always emitted: unlike an
// ordinary proto3 scalar field, a map entry's fields must round-trip
// through decoders that expect every entry to carry both, regardless of
// whether either happens to equal its type's zero value.
func (e *encoder) encodeMapEntry(number protowire.Number, keyField *Field, valField *Field, me MapEntry) {
	mark := e.buf.written()

	valMsg := Message{Ptr: me.Val}
	e.encodeScalarValue(valMsg, valField, 0)
	e.buf.appendTag(valField.Number, wireTypeOf(valField.Type))

	keyMsg := Message{Ptr: me.Key}
	e.encodeScalarValue(keyMsg, keyField, 0)
	e.buf.appendTag(keyField.Number, wireTypeOf(keyField.Type))

	length := e.buf.written() - mark
	e.buf.appendVarint(uint64(length))
	e.buf.appendTag(number, protowire.BytesType)
}

// sortMapEntries sorts entries ascending by key, using the ordering
// appropriate to the key's descriptor type: lexicographic for
// string/bytes, numeric for integers, and false-before-true for bool.
func sortMapEntries(entries []MapEntry, keyField *Field) {
	less := mapKeyLess(keyField)
	sort.Slice(entries, func(i, j int) bool {
		return less(entries[i].Key, entries[j].Key)
	})
}

func mapKeyLess(f *Field) func(a, b unsafe.Pointer) bool {
	switch f.Type {
	case descriptorpb.FieldDescriptorProto_TYPE_STRING,
		descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return func(a, b unsafe.Pointer) bool {
			av := (*StringView)(a).Bytes()
			bv := (*StringView)(b).Bytes()
			return bytes.Compare(av, bv) < 0
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return func(a, b unsafe.Pointer) bool {
			return *(*uint8)(a) < *(*uint8)(b)
		}
	case descriptorpb.FieldDescriptorProto_TYPE_INT32,
		descriptorpb.FieldDescriptorProto_TYPE_SINT32,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		return func(a, b unsafe.Pointer) bool {
			return int32(*(*uint32)(a)) < int32(*(*uint32)(b))
		}
	case descriptorpb.FieldDescriptorProto_TYPE_INT64,
		descriptorpb.FieldDescriptorProto_TYPE_SINT64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return func(a, b unsafe.Pointer) bool {
			return int64(*(*uint64)(a)) < int64(*(*uint64)(b))
		}
	default:
		// UINT32, FIXED32, UINT64, FIXED64.
		if elemWidth(f.Repr) == 4 {
			return func(a, b unsafe.Pointer) bool {
				return *(*uint32)(a) < *(*uint32)(b)
			}
		}
		return func(a, b unsafe.Pointer) bool {
			return *(*uint64)(a) < *(*uint64)(b)
		}
	}
}
