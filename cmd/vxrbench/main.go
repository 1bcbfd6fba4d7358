package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dot5enko/voxelregion/format"
	"github.com/dot5enko/voxelregion/region"
	"github.com/dot5enko/voxelregion/voxel"
)

// vxrbench stresses the allocator by running n independent workers, each
// owning its own region file, writing and reading back blocks filled with
// random samples at random positions. Workers never share a RegionFile - spec §5 gives each file a
// single owner, so concurrency here comes from running separate files in
// parallel, not from locking one.
func main() {
	dir := flag.String("dir", "./bench", "directory to create region files in")
	workers := flag.Int("workers", 4, "number of concurrent region files")
	blocksPerWorker := flag.Int("blocks", 64, "blocks each worker writes and re-reads")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0755); err != nil {
		log.Fatalf("mkdir %s: %s", *dir, err)
	}

	g, ctx := errgroup.WithContext(context.Background())

	start := time.Now()
	for w := 0; w < *workers; w++ {
		w := w
		g.Go(func() error {
			return runWorker(ctx, filepath.Join(*dir, fmt.Sprintf("bench-%d.vxr", w)), w, *blocksPerWorker)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("bench failed: %s", err)
	}

	elapsed := time.Since(start)
	total := *workers * *blocksPerWorker
	log.Printf("%d workers, %d blocks each, %d total in %s (%d/s)",
		*workers, *blocksPerWorker, total, elapsed, int64(float64(total)/elapsed.Seconds()))
}

func runWorker(ctx context.Context, path string, seed, blocks int) error {
	rf := region.New(nil)

	f := format.DefaultFormat()
	f.RegionSize = format.BlockPos{X: 8, Y: 8, Z: 8}
	if err := rf.SetFormat(f); err != nil {
		return fmt.Errorf("worker %s: set format: %w", path, err)
	}

	if err := rf.Open(path, region.OpenOptions{CreateIfNotFound: true}); err != nil {
		return fmt.Errorf("worker %s: open: %w", path, err)
	}
	defer rf.Close()

	rnd := rand.New(rand.NewSource(int64(seed)))
	edge := f.BlockEdge()

	for i := 0; i < blocks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		pos := format.PositionFromIndex(rnd.Intn(f.RegionSize.Volume()), f.RegionSize)

		b := voxel.New(edge, f.ChannelDepths)
		for c := range b.Channels {
			bits := f.ChannelDepths[c].Bits()
			for j := range b.Channels[c] {
				v := rnd.Uint64()
				if bits < 64 {
					v &= uint64(1)<<bits - 1
				}
				b.Channels[c][j] = v
			}
		}

		if err := rf.SaveBlock(pos, b); err != nil {
			return fmt.Errorf("worker %s: save block %v: %w", path, pos, err)
		}

		readBack, err := rf.LoadBlock(pos)
		if err != nil {
			return fmt.Errorf("worker %s: load block %v: %w", path, pos, err)
		}
		if !b.Equal(readBack) {
			return fmt.Errorf("worker %s: block %v round-trip mismatch", path, pos)
		}
	}

	return nil
}
