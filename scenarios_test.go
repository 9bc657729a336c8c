package wireenc_test

import (
	"testing"
	"unsafe"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/descriptorpb"

	wireenc "github.com/wireproto/wireenc"
)

// hex asserts got equals the bytes described by a protoscope raw-hex
// literal, e.g. "08 01". Using the scanner instead of a hand decoder
// keeps the golden values readable while still exercising the same
// parser the rest of the corpus's conformance tests use.
func hex(t *testing.T, got []byte, want string) {
	t.Helper()
	require.Equal(t, mustDecodeHex(t, want), got)
}

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := protoscope.NewScanner("`" + s + "`").Exec()
	require.NoError(t, err, "parsing protoscope literal %q", s)
	return b
}

// S1: single bool=true, field 1 (proto3) -> 08 01.
func TestScenarioS1_Bool(t *testing.T) {
	type msg struct{ A bool }
	layout := wireenc.NewBuilder().
		Scalar(1, descriptorpb.FieldDescriptorProto_TYPE_BOOL, wireenc.Repr1Byte, unsafe.Offsetof(msg{}.A), wireenc.Implicit).
		Build()

	m := msg{A: true}
	out, err := wireenc.Encode(wireenc.Message{Ptr: unsafe.Pointer(&m)}, layout, 0)
	require.NoError(t, err)
	hex(t, out, "08 01")
}

// S2: single int32=-1, field 1 (proto3, hasbit set) -> 08 ff ff ff ff ff ff ff ff ff 01.
func TestScenarioS2_NegativeInt32SignExtends(t *testing.T) {
	type msg struct {
		Hasbits uint8
		A       int32
	}
	layout := wireenc.NewBuilder().
		WithHasbits(unsafe.Offsetof(msg{}.Hasbits)).
		Scalar(1, descriptorpb.FieldDescriptorProto_TYPE_INT32, wireenc.Repr4Byte, unsafe.Offsetof(msg{}.A), wireenc.Hasbit(1)).
		Build()

	m := msg{Hasbits: 1, A: -1}
	out, err := wireenc.Encode(wireenc.Message{Ptr: unsafe.Pointer(&m)}, layout, 0)
	require.NoError(t, err)
	hex(t, out, "08 ff ff ff ff ff ff ff ff ff 01")
	require.Len(t, out, 11)
}

// S3: SINT32=-1 field 1 -> 08 01 (zigzag).
func TestScenarioS3_SInt32ZigZag(t *testing.T) {
	type msg struct{ A int32 }
	layout := wireenc.NewBuilder().
		Scalar(1, descriptorpb.FieldDescriptorProto_TYPE_SINT32, wireenc.Repr4Byte, unsafe.Offsetof(msg{}.A), wireenc.Implicit).
		Build()

	m := msg{A: -1}
	out, err := wireenc.Encode(wireenc.Message{Ptr: unsafe.Pointer(&m)}, layout, 0)
	require.NoError(t, err)
	hex(t, out, "08 01")
}

// S4: packed repeated int32 field 1 = [1, 150] -> 0a 03 01 96 01.
func TestScenarioS4_PackedRepeatedInt32(t *testing.T) {
	type msg struct{ A *wireenc.ArrayHeader }
	layout := wireenc.NewBuilder().
		Array(1, descriptorpb.FieldDescriptorProto_TYPE_INT32, wireenc.Repr4Byte, unsafe.Offsetof(msg{}.A), true).
		Build()

	values := []int32{1, 150}
	hdr := wireenc.ArrayHeader{Data: unsafe.Pointer(&values[0]), Len: len(values)}
	m := msg{A: &hdr}
	out, err := wireenc.Encode(wireenc.Message{Ptr: unsafe.Pointer(&m)}, layout, 0)
	require.NoError(t, err)
	hex(t, out, "0a 03 01 96 01")
}

// S5: string field 2 = "hi" -> 12 02 68 69.
func TestScenarioS5_String(t *testing.T) {
	type msg struct{ B wireenc.StringView }
	layout := wireenc.NewBuilder().
		Scalar(2, descriptorpb.FieldDescriptorProto_TYPE_STRING, wireenc.ReprStringView, unsafe.Offsetof(msg{}.B), wireenc.Implicit).
		Build()

	s := "hi"
	m := msg{B: wireenc.StringViewOf(s)}
	out, err := wireenc.Encode(wireenc.Message{Ptr: unsafe.Pointer(&m)}, layout, 0)
	require.NoError(t, err)
	hex(t, out, "12 02 68 69")
}

// S6: nested message: outer field 1 carries inner {field 2 = 7} ->
// inner encodes `10 07`, outer `0a 02 10 07`.
func TestScenarioS6_NestedMessage(t *testing.T) {
	type inner struct{ B int32 }
	innerLayout := wireenc.NewBuilder().
		Scalar(2, descriptorpb.FieldDescriptorProto_TYPE_INT32, wireenc.Repr4Byte, unsafe.Offsetof(inner{}.B), wireenc.Implicit).
		Build()

	type outer struct{ A unsafe.Pointer }
	outerLayout := wireenc.NewBuilder().
		SubMessage(1, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, unsafe.Offsetof(outer{}.A), wireenc.Implicit, innerLayout).
		Build()

	in := inner{B: 7}
	out1, err := wireenc.Encode(wireenc.Message{Ptr: unsafe.Pointer(&in)}, innerLayout, 0)
	require.NoError(t, err)
	hex(t, out1, "10 07")

	o := outer{A: unsafe.Pointer(&in)}
	out2, err := wireenc.Encode(wireenc.Message{Ptr: unsafe.Pointer(&o)}, outerLayout, 0)
	require.NoError(t, err)
	hex(t, out2, "0a 02 10 07")
}

// S7: map<int32,int32> field 7 = {1:10, 2:20} with DETERMINISTIC: two
// entries in key-ascending order, byte-identical on repeat.
func TestScenarioS7_DeterministicMap(t *testing.T) {
	type msg struct{ M *wireenc.MapHeader }
	layout := wireenc.NewBuilder().
		Map(7, unsafe.Offsetof(msg{}.M),
			descriptorpb.FieldDescriptorProto_TYPE_INT32, wireenc.Repr4Byte,
			descriptorpb.FieldDescriptorProto_TYPE_INT32, wireenc.Repr4Byte, nil).
		Build()

	build := func(insertOrder []int32) []byte {
		gm := map[int32]int32{}
		for _, k := range insertOrder {
			gm[k] = k * 10
		}
		hdr := wireenc.MapHeader{M: wireenc.GoMap[int32, int32]{M: gm}}
		m := msg{M: &hdr}
		out, err := wireenc.Encode(wireenc.Message{Ptr: unsafe.Pointer(&m)}, layout, wireenc.Deterministic)
		require.NoError(t, err)
		return out
	}

	a := build([]int32{1, 2})
	b := build([]int32{2, 1})
	require.Equal(t, a, b)

	// Decode to verify key-ascending order and field shape.
	num, typ, n := protowire.ConsumeTag(a)
	require.Equal(t, protowire.Number(7), num)
	require.Equal(t, protowire.BytesType, typ)
	a = a[n:]
	entry1, n2 := protowire.ConsumeBytes(a)
	a = a[n2:]
	num2, typ2, nt := protowire.ConsumeTag(a)
	require.Equal(t, protowire.Number(7), num2)
	require.Equal(t, protowire.BytesType, typ2)
	a = a[nt:]
	entry2, n3 := protowire.ConsumeBytes(a)
	a = a[n3:]
	require.Empty(t, a)

	k1 := decodeMapEntryKey(t, entry1)
	k2 := decodeMapEntryKey(t, entry2)
	require.Less(t, k1, k2)
}

func decodeMapEntryKey(t *testing.T, entry []byte) int32 {
	t.Helper()
	num, typ, n := protowire.ConsumeTag(entry)
	require.Equal(t, protowire.Number(1), num)
	require.Equal(t, protowire.VarintType, typ)
	entry = entry[n:]
	v, n2 := protowire.ConsumeVarint(entry)
	_ = n2
	return int32(v)
}
