package zigzag_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/wireproto/wireenc/internal/zigzag"
)

func TestZigzagRoundTrip(t *testing.T) {
	t.Parallel()

	tests32 := []int32{
		0, 1, 2, 3, 4, 5, 6, 7,
		8, 9, 10, 11, 12, 13, 14, 15,
		0x7fffffff,
		-0x80000000,
		-1, -2, -3, -4, -5, -6, -7, -8,
	}
	tests64 := []int64{
		0, 1, 2, 3, 4, 5, 6, 7,
		8, 9, 10, 11, 12, 13, 14, 15,
		0x7fffffffffffffff,
		-0x8000000000000000,
		-1, -2, -3, -4, -5, -6, -7, -8,
	}

	for _, tt := range tests32 {
		t.Run(fmt.Sprintf("32/%#x", tt), func(t *testing.T) {
			t.Parallel()
			got := zigzag.Encode32(tt)
			assert.Equal(t, uint64(got), protowire.EncodeZigZag(int64(tt))&0xffffffff)
			assert.Equal(t, int64(tt), zigzag.Decode(uint64(got)))
		})
	}

	for _, tt := range tests64 {
		t.Run(fmt.Sprintf("64/%#x", tt), func(t *testing.T) {
			t.Parallel()
			got := zigzag.Encode64(tt)
			assert.Equal(t, got, protowire.EncodeZigZag(tt))
			assert.Equal(t, tt, zigzag.Decode(got))
		})
	}
}
