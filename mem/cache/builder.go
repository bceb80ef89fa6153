package cache

import (
	"errors"
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
)

// ErrInvalidGeometry is returned when a level cannot be laid out as a whole
// number of power-of-two sets of power-of-two blocks.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// Builder can build cache levels.
type Builder struct {
	blockSize        int
	byteSize         int
	wayAssociativity int
	replaceStrategy  string
	next             LowerLevel
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		blockSize:        64,
		byteSize:         16 * 1024,
		wayAssociativity: 4,
		replaceStrategy:  "lru",
	}
}

// WithBlockSize sets the number of bytes in a block.
func (b Builder) WithBlockSize(blockSize int) Builder {
	b.blockSize = blockSize
	return b
}

// WithByteSize sets the capacity of the level.
func (b Builder) WithByteSize(byteSize int) Builder {
	b.byteSize = byteSize
	return b
}

// WithWayAssociativity sets the way associativity of the builder.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithReplaceStrategy sets the replacement policy. Only "lru" is supported.
func (b Builder) WithReplaceStrategy(replaceStrategy string) Builder {
	b.replaceStrategy = replaceStrategy
	return b
}

// WithNext sets the level that serves the misses of the built level. If it is
// not set, the level is backed by a new Memory.
func (b Builder) WithNext(next LowerLevel) Builder {
	b.next = next
	return b
}

// Validate checks that the level can be built without allocating it. It
// returns the error Build would return.
func (b Builder) Validate(name string) error {
	if _, _, err := b.geometry(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if _, err := b.createVictimFinder(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return nil
}

// Build builds a cache level.
func (b Builder) Build(name string) (*Level, error) {
	offsetBits, indexBits, err := b.geometry()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	victimFinder, err := b.createVictimFinder()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	next := b.next
	if next == nil {
		next = NewMemory()
	}

	numSets := 1 << indexBits
	l := &Level{
		name:          name,
		blockSize:     b.blockSize,
		byteSize:      b.byteSize,
		associativity: b.wayAssociativity,
		numSets:       numSets,
		offsetBits:    offsetBits,
		indexBits:     indexBits,
		sets:          tagging.NewSets(numSets, b.wayAssociativity),
		victimFinder:  victimFinder,
		next:          next,
	}

	return l, nil
}

func (b Builder) createVictimFinder() (tagging.VictimFinder, error) {
	switch b.replaceStrategy {
	case "lru":
		return tagging.NewLRUVictimFinder(), nil
	default:
		return nil, fmt.Errorf("unknown replace strategy: %s", b.replaceStrategy)
	}
}

func (b Builder) geometry() (offsetBits, indexBits int, err error) {
	if b.wayAssociativity < 1 {
		return 0, 0, fmt.Errorf("%w: associativity %d must be at least 1",
			ErrInvalidGeometry, b.wayAssociativity)
	}

	offsetBits, ok := tagging.Log2(b.blockSize)
	if !ok {
		return 0, 0, fmt.Errorf("%w: block size %d is not a power of two",
			ErrInvalidGeometry, b.blockSize)
	}

	setSize := b.blockSize * b.wayAssociativity
	if b.byteSize <= 0 || b.byteSize%setSize != 0 {
		return 0, 0, fmt.Errorf(
			"%w: size %d is not a whole number of %d-byte sets",
			ErrInvalidGeometry, b.byteSize, setSize)
	}

	numSets := b.byteSize / setSize

	indexBits, ok = tagging.Log2(numSets)
	if !ok {
		return 0, 0, fmt.Errorf("%w: set count %d is not a power of two",
			ErrInvalidGeometry, numSets)
	}

	if offsetBits+indexBits > 32 {
		return 0, 0, fmt.Errorf("%w: %d offset and index bits exceed 32",
			ErrInvalidGeometry, offsetBits+indexBits)
	}

	return offsetBits, indexBits, nil
}
