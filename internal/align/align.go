// Package align provides power-of-two alignment arithmetic for arena offsets
// and addresses.
package align

// IsPowerOfTwo reports whether x is a non-zero power of two.
func IsPowerOfTwo(x uintptr) bool {
	return x != 0 && x&(x-1) == 0
}

// Up rounds offset up to the next multiple of align.
// align must be a power of two. The second result is false if the rounded
// value does not fit in a uintptr.
func Up(offset, align uintptr) (uintptr, bool) {
	mask := align - 1
	sum := offset + mask
	if sum < offset {
		return 0, false
	}
	return sum &^ mask, true
}

// Padding returns the number of bytes needed to move offset to the next
// multiple of align.
func Padding(offset, align uintptr) uintptr {
	mask := align - 1
	return (align - (offset & mask)) & mask
}

// Add returns a+b and false if the sum overflows.
func Add(a, b uintptr) (uintptr, bool) {
	s := a + b
	return s, s >= a
}
