package format

import "testing"

func TestLinearIndexRoundTrip(t *testing.T) {

	regionSize := BlockPos{X: 4, Y: 5, Z: 6}

	for z := 0; z < regionSize.Z; z++ {
		for x := 0; x < regionSize.X; x++ {
			for y := 0; y < regionSize.Y; y++ {
				pos := BlockPos{X: x, Y: y, Z: z}
				idx := LinearIndex(pos, regionSize)

				back := PositionFromIndex(idx, regionSize)
				if back != pos {
					t.Fatalf("round trip failed for %v: index %d decoded to %v", pos, idx, back)
				}
			}
		}
	}
}

func TestLinearIndexYVariesFastest(t *testing.T) {

	regionSize := BlockPos{X: 4, Y: 4, Z: 4}

	a := LinearIndex(BlockPos{X: 0, Y: 0, Z: 0}, regionSize)
	b := LinearIndex(BlockPos{X: 0, Y: 1, Z: 0}, regionSize)

	if b-a != 1 {
		t.Errorf("expected adjacent y to differ by 1, got %d", b-a)
	}
}

func TestSectorCountFromBytes(t *testing.T) {

	cases := []struct {
		size, sector, want uint32
	}{
		{1, 512, 1},
		{512, 512, 1},
		{513, 512, 2},
		{1024, 512, 2},
		{1025, 512, 3},
	}

	for _, c := range cases {
		got := SectorCountFromBytes(c.size, c.sector)
		if got != c.want {
			t.Errorf("SectorCountFromBytes(%d, %d) = %d, want %d", c.size, c.sector, got, c.want)
		}
	}
}
