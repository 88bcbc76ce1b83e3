package hwio

// Bits8 extracts the n-bit field starting at bit lo.
func Bits8(v uint8, lo, n uint) uint8 { return v >> lo & (1<<n - 1) }

// SetByte replaces byte i (0 = least significant) of v.
func SetByte(v *uint32, i uint, b uint8) {
	*v = *v&^(0xFF<<(8*i)) | uint32(b)<<(8*i)
}
