package bit

import "testing"

func TestIsSet(t *testing.T) {
	cases := []struct {
		name  string
		index uint8
		value uint32
		want  bool
	}{
		{"bit 0 set", 0, 0b1, true},
		{"bit 0 clear", 0, 0b10, false},
		{"bit 31 set", 31, 0x8000_0000, true},
		{"bit 31 clear", 31, 0x7FFF_FFFF, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsSet(c.index, c.value); got != c.want {
				t.Errorf("IsSet(%d, %#x) = %v, want %v", c.index, c.value, got, c.want)
			}
		})
	}
}

func TestSetClearPutBit(t *testing.T) {
	if got := Set(4, 0); got != 0b1_0000 {
		t.Errorf("Set(4, 0) = %#x, want %#x", got, 0b1_0000)
	}
	if got := Clear(4, 0xFFFF_FFFF); got != 0xFFFF_FFEF {
		t.Errorf("Clear(4, all-ones) = %#x, want %#x", got, 0xFFFF_FFEF)
	}
	if got := PutBit(0, 0, true); got != 1 {
		t.Errorf("PutBit(0, 0, true) = %#x, want 1", got)
	}
	if got := PutBit(0, 1, false); got != 0 {
		t.Errorf("PutBit(0, 1, false) = %#x, want 0", got)
	}
}

func TestExtract(t *testing.T) {
	cases := []struct {
		name             string
		value            uint32
		highBit, lowBit  uint8
		want             uint32
	}{
		{"middle bits", 0b11010110, 6, 4, 0b101},
		{"single bit", 0b1000, 3, 3, 1},
		{"full width", 0xDEAD_BEEF, 31, 0, 0xDEAD_BEEF},
		{"low byte", 0xDEAD_BEEF, 7, 0, 0xEF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Extract(c.value, c.highBit, c.lowBit); got != c.want {
				t.Errorf("Extract(%#x, %d, %d) = %#x, want %#x", c.value, c.highBit, c.lowBit, got, c.want)
			}
		})
	}
}

func TestSignExtend(t *testing.T) {
	cases := []struct {
		name  string
		value uint32
		width uint8
		want  int32
	}{
		{"8-bit negative", 0xFF, 8, -1},
		{"8-bit positive", 0x7F, 8, 127},
		{"5-bit negative", 0b10000, 5, -16},
		{"11-bit negative (thumb BL offset)", 0x7FF, 11, -1},
		{"24-bit positive (arm branch offset)", 0x000001, 24, 1},
		{"full-width no-op", 0xFFFF_FFFF, 32, -1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := SignExtend(c.value, c.width); got != c.want {
				t.Errorf("SignExtend(%#x, %d) = %d, want %d", c.value, c.width, got, c.want)
			}
		})
	}
}

func TestCombineAndSplit(t *testing.T) {
	if got := Combine16(0x12, 0x34); got != 0x1234 {
		t.Errorf("Combine16(0x12, 0x34) = %#x, want 0x1234", got)
	}
	if got := Combine32(0x78, 0x56, 0x34, 0x12); got != 0x1234_5678 {
		t.Errorf("Combine32(...) = %#x, want 0x12345678", got)
	}

	b0, b1, b2, b3 := Bytes32(0x1234_5678)
	if b0 != 0x78 || b1 != 0x56 || b2 != 0x34 || b3 != 0x12 {
		t.Errorf("Bytes32(0x12345678) = %#x %#x %#x %#x, want 0x78 0x56 0x34 0x12", b0, b1, b2, b3)
	}

	low, high := Bytes16(0x1234)
	if low != 0x34 || high != 0x12 {
		t.Errorf("Bytes16(0x1234) = %#x %#x, want 0x34 0x12", low, high)
	}
}

func TestRotateRight32(t *testing.T) {
	cases := []struct {
		name   string
		value  uint32
		amount uint8
		want   uint32
	}{
		{"no rotation", 0x1234_5678, 0, 0x1234_5678},
		{"rotate by 8", 0x1234_5678, 8, 0x7812_3456},
		{"rotate by 31", 0x8000_0000, 31, 1},
		{"amount wraps mod 32", 0x1234_5678, 32, 0x1234_5678},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := RotateRight32(c.value, c.amount); got != c.want {
				t.Errorf("RotateRight32(%#x, %d) = %#x, want %#x", c.value, c.amount, got, c.want)
			}
		})
	}
}

func TestPopCount16(t *testing.T) {
	cases := []struct {
		name string
		mask uint16
		want int
	}{
		{"empty", 0x0000, 0},
		{"all", 0xFFFF, 16},
		{"r0 and r15 (ldm/stm register list)", 0x8001, 2},
		{"single register", 0x0040, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := PopCount16(c.mask); got != c.want {
				t.Errorf("PopCount16(%#x) = %d, want %d", c.mask, got, c.want)
			}
		})
	}
}
