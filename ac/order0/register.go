package order0

const (
	// registerBits is the width of the low and range registers.
	registerBits = 40

	// registerMax is the largest value a register holds after renormalization.
	registerMax uint64 = 1<<registerBits - 1

	// topShift positions a register's most significant byte at bit 0.
	topShift = registerBits - 8

	// bottom is the smallest range that does not need renormalization.
	// Below it, the range's top byte is zero.
	bottom uint64 = 1 << topShift
)

// A register is a 40 bit accumulator stored in a native integer.
// Between renormalizations it may temporarily exceed 40 bits, which signals a carry.
type register uint64

// top returns the register's most significant byte, including any carry above bit 40.
func (r register) top() uint64 {
	return uint64(r) >> topShift
}

// low32 returns the 32 bits below the top byte.
func (r register) low32() uint32 {
	return uint32(r)
}

// overflowed reports whether an addition carried past the 40 bit window.
func (r register) overflowed() bool {
	return uint64(r) > registerMax
}

// clamp discards the bits above the 40 bit window.
func (r *register) clamp() {
	*r &= register(registerMax)
}

// shift moves the register one byte to the left, loading zeros into the bottom byte
// and discarding the outgoing top byte.
func (r *register) shift() {
	*r = (*r << 8) & register(registerMax)
}
