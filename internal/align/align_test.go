package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPowerOfTwo(t *testing.T) {
	for _, x := range []uintptr{1, 2, 4, 8, 4096, 1 << 20} {
		assert.True(t, IsPowerOfTwo(x), "x=%d", x)
	}
	for _, x := range []uintptr{0, 3, 6, 12, 4095} {
		assert.False(t, IsPowerOfTwo(x), "x=%d", x)
	}
}

func TestUp(t *testing.T) {
	tests := []struct {
		offset, align, want uintptr
	}{
		{0, 1, 0},
		{7, 1, 7},
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{4095, 4096, 4096},
		{4097, 4096, 8192},
	}
	for _, tt := range tests {
		got, ok := Up(tt.offset, tt.align)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "Up(%d, %d)", tt.offset, tt.align)
	}
}

func TestUp_Overflow(t *testing.T) {
	_, ok := Up(^uintptr(0)-2, 8)
	assert.False(t, ok)

	got, ok := Up(^uintptr(0), 1)
	assert.True(t, ok)
	assert.Equal(t, ^uintptr(0), got)
}

func TestPadding(t *testing.T) {
	assert.Equal(t, uintptr(0), Padding(16, 8))
	assert.Equal(t, uintptr(7), Padding(9, 8))
	assert.Equal(t, uintptr(1), Padding(4095, 4096))
	assert.Equal(t, uintptr(0), Padding(5, 1))
}

func TestAdd(t *testing.T) {
	s, ok := Add(10, 6)
	assert.True(t, ok)
	assert.Equal(t, uintptr(16), s)

	_, ok = Add(^uintptr(0), 1)
	assert.False(t, ok)
}
