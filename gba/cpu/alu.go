package cpu

// ShiftType is one of the four barrel-shifter operations shared by ARM
// data-processing operands and the Thumb shift/ALU formats.
type ShiftType uint8

const (
	ShiftLSL ShiftType = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// Shift applies the barrel shifter per the edge cases in §4.3. amount
// is the full shift amount (already resolved from an immediate or a
// register's low byte); immediateZero must be true only when the
// instruction used the immediate encoding and the immediate field was
// literally 0 — that is what selects the LSR/ASR "shift by 32" and
// ROR "RRX" special cases, as opposed to a register-specified shift
// of 0 which is a true no-op.
func Shift(kind ShiftType, value uint32, amount uint32, carryIn bool, immediateZero bool) (result uint32, carryOut bool) {
	switch kind {
	case ShiftLSL:
		return shiftLSL(value, amount, carryIn)
	case ShiftLSR:
		if immediateZero {
			amount = 32
		}
		return shiftLSR(value, amount, carryIn)
	case ShiftASR:
		if immediateZero {
			amount = 32
		}
		return shiftASR(value, amount, carryIn)
	case ShiftROR:
		if immediateZero {
			return rrx(value, carryIn)
		}
		return shiftROR(value, amount, carryIn)
	default:
		return value, carryIn
	}
}

func shiftLSL(value, amount uint32, carryIn bool) (uint32, bool) {
	switch {
	case amount == 0:
		return value, carryIn
	case amount < 32:
		carry := (value>>(32-amount))&1 != 0
		return value << amount, carry
	case amount == 32:
		return 0, value&1 != 0
	default:
		return 0, false
	}
}

func shiftLSR(value, amount uint32, carryIn bool) (uint32, bool) {
	switch {
	case amount == 0:
		return value, carryIn
	case amount < 32:
		carry := (value>>(amount-1))&1 != 0
		return value >> amount, carry
	case amount == 32:
		return 0, value&0x8000_0000 != 0
	default:
		return 0, false
	}
}

func shiftASR(value, amount uint32, carryIn bool) (uint32, bool) {
	signed := int32(value)
	switch {
	case amount == 0:
		return value, carryIn
	case amount < 32:
		carry := (value>>(amount-1))&1 != 0
		return uint32(signed >> amount), carry
	default:
		if value&0x8000_0000 != 0 {
			return 0xFFFF_FFFF, true
		}
		return 0, false
	}
}

func shiftROR(value, amount uint32, carryIn bool) (uint32, bool) {
	if amount == 0 {
		return value, carryIn
	}
	n := amount % 32
	if n == 0 {
		// A rotate by an exact multiple of 32 leaves the value
		// unchanged; carry becomes bit 31.
		return value, value&0x8000_0000 != 0
	}
	result := (value >> n) | (value << (32 - n))
	carry := (value>>(n-1))&1 != 0
	return result, carry
}

// rrx is rotate-right-extended: shift right by 1, with the vacated bit
// 31 set to the incoming carry, and the new carry taken from the
// value's old bit 0.
func rrx(value uint32, carryIn bool) (uint32, bool) {
	carryOut := value&1 != 0
	result := value >> 1
	if carryIn {
		result |= 0x8000_0000
	}
	return result, carryOut
}

// AddFlags computes a+b (+carryIn if withCarry) and the carry/overflow
// flags per §4.3: carry is set when the unsigned result exceeds 32
// bits, overflow when both operands share a sign and the result's
// sign differs from theirs.
func AddFlags(a, b uint32, carryIn bool, withCarry bool) (result uint32, carry, overflow bool) {
	var extra uint64
	if withCarry && carryIn {
		extra = 1
	}
	wide := uint64(a) + uint64(b) + extra
	result = uint32(wide)
	carry = wide > 0xFFFF_FFFF
	signA := a&0x8000_0000 != 0
	signB := b&0x8000_0000 != 0
	signR := result&0x8000_0000 != 0
	overflow = signA == signB && signR != signA
	return
}

// SubFlags computes a-b (and -borrowIn if withCarry, i.e. SBC) and the
// carry/overflow flags per §4.3 and §8: carry means "no borrow", i.e.
// a >= b (+ borrow) unsigned; overflow is set when the operands differ
// in sign and the result's sign matches the subtrahend's.
func SubFlags(a, b uint32, carryIn bool, withCarry bool) (result uint32, carry, overflow bool) {
	borrow := uint64(0)
	if withCarry && !carryIn {
		borrow = 1
	}
	wide := uint64(a) - uint64(b) - borrow
	result = uint32(wide)
	carry = uint64(a) >= uint64(b)+borrow
	signA := a&0x8000_0000 != 0
	signB := b&0x8000_0000 != 0
	signR := result&0x8000_0000 != 0
	overflow = signA != signB && signR == signB
	return
}
