package format

import "testing"

func TestChannelDepthBits(t *testing.T) {

	cases := []struct {
		depth ChannelDepth
		bits  int
	}{
		{Depth8Bit, 8},
		{Depth16Bit, 16},
		{Depth32Bit, 32},
		{Depth64Bit, 64},
	}

	for _, c := range cases {
		if got := c.depth.Bits(); got != c.bits {
			t.Errorf("%s.Bits() = %d, want %d", c.depth, got, c.bits)
		}
		if !c.depth.Valid() {
			t.Errorf("%s should be valid", c.depth)
		}
	}
}

func TestChannelDepthInvalid(t *testing.T) {

	var d ChannelDepth = 99
	if d.Valid() {
		t.Error("99 should not be a valid channel depth")
	}
}
