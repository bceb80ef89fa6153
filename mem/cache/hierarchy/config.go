package hierarchy

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache"
)

// Config describes a cache hierarchy. An L2Size of 0 means there is no L2.
type Config struct {
	BlockSize int
	L1Size    int
	L1Assoc   int
	L2Size    int
	L2Assoc   int

	// PrefN and PrefM are the number of prefetch streams and the number of
	// blocks per stream. They are accepted and reported, but no prefetcher
	// is modeled.
	PrefN int
	PrefM int
}

// HasL2 returns true if the configuration includes an L2.
func (c Config) HasL2() bool {
	return c.L2Size > 0
}

// Validate checks that every level can be laid out. The errors wrap
// cache.ErrInvalidGeometry.
func (c Config) Validate() error {
	if err := c.l1Builder().Validate("L1"); err != nil {
		return err
	}

	if c.HasL2() {
		if err := c.l2Builder().Validate("L2"); err != nil {
			return err
		}
	}

	if c.L2Size < 0 {
		return fmt.Errorf("%w: L2 size %d is negative",
			cache.ErrInvalidGeometry, c.L2Size)
	}

	if c.PrefN < 0 || c.PrefM < 0 {
		return fmt.Errorf("prefetch parameters %d, %d must not be negative",
			c.PrefN, c.PrefM)
	}

	return nil
}

func (c Config) l1Builder() cache.Builder {
	return cache.MakeBuilder().
		WithBlockSize(c.BlockSize).
		WithByteSize(c.L1Size).
		WithWayAssociativity(c.L1Assoc)
}

func (c Config) l2Builder() cache.Builder {
	return cache.MakeBuilder().
		WithBlockSize(c.BlockSize).
		WithByteSize(c.L2Size).
		WithWayAssociativity(c.L2Assoc)
}
