package wireenc_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/descriptorpb"

	wireenc "github.com/wireproto/wireenc"
)

// A oneof field is emitted iff the case tag at the configured offset
// equals its own field number, regardless of the stored value.
func TestOneofPresence(t *testing.T) {
	type msg struct {
		Case int32
		A    int32
		B    int32
	}
	layout := wireenc.NewBuilder().
		Scalar(1, descriptorpb.FieldDescriptorProto_TYPE_INT32, wireenc.Repr4Byte, unsafe.Offsetof(msg{}.A), wireenc.OneofCase(unsafe.Offsetof(msg{}.Case))).
		Scalar(2, descriptorpb.FieldDescriptorProto_TYPE_INT32, wireenc.Repr4Byte, unsafe.Offsetof(msg{}.B), wireenc.OneofCase(unsafe.Offsetof(msg{}.Case))).
		Build()

	m := msg{Case: 2, A: 100, B: 7}
	out, err := wireenc.Encode(wireenc.Message{Ptr: unsafe.Pointer(&m)}, layout, 0)
	require.NoError(t, err)

	num, typ, n := protowire.ConsumeTag(out)
	require.Equal(t, protowire.Number(2), num)
	require.Equal(t, protowire.VarintType, typ)
	v, n2 := protowire.ConsumeVarint(out[n:])
	require.EqualValues(t, 7, v)
	require.Equal(t, len(out), n+n2)
}

// A repeated message field emits one tag+length-prefixed value per
// non-nil element, in original order, skipping nil elements.
func TestRepeatedMessageField(t *testing.T) {
	type item struct{ V int32 }
	itemLayout := wireenc.NewBuilder().
		Scalar(1, descriptorpb.FieldDescriptorProto_TYPE_INT32, wireenc.Repr4Byte, unsafe.Offsetof(item{}.V), wireenc.Implicit).
		Build()

	type msg struct{ Items *wireenc.ArrayHeader }
	layout := wireenc.NewBuilder().
		ArrayOfMessages(3, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, unsafe.Offsetof(msg{}.Items), itemLayout).
		Build()

	a := item{V: 1}
	b := item{V: 2}
	ptrs := []unsafe.Pointer{unsafe.Pointer(&a), nil, unsafe.Pointer(&b)}
	hdr := wireenc.ArrayHeader{Data: unsafe.Pointer(&ptrs[0]), Len: len(ptrs)}
	m := msg{Items: &hdr}

	out, err := wireenc.Encode(wireenc.Message{Ptr: unsafe.Pointer(&m)}, layout, 0)
	require.NoError(t, err)

	var values []int32
	rest := out
	for len(rest) > 0 {
		num, typ, n := protowire.ConsumeTag(rest)
		require.Equal(t, protowire.Number(3), num)
		require.Equal(t, protowire.BytesType, typ)
		rest = rest[n:]
		payload, n2 := protowire.ConsumeBytes(rest)
		rest = rest[n2:]

		num2, typ2, n3 := protowire.ConsumeTag(payload)
		require.Equal(t, protowire.Number(1), num2)
		require.Equal(t, protowire.VarintType, typ2)
		v, _ := protowire.ConsumeVarint(payload[n3:])
		values = append(values, int32(v))
	}
	require.Equal(t, []int32{1, 2}, values)
}
