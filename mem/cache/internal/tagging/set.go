package tagging

// A Block of a cache is the information that is associated with a cache line.
type Block struct {
	SetID   int
	WayID   int
	Tag     uint32
	IsValid bool
	IsDirty bool

	// LRURank is the position of the block in the recency stack of its set.
	// 0 is the most recently used block.
	LRURank int
}

// A Set is a list of blocks where a certain piece memory can be stored at.
//
// The LRU ranks of all the blocks, valid or not, always form a permutation of
// [0, len(Blocks)).
type Set struct {
	Blocks []Block
}

// NewSets creates numSets empty sets, each with numWays invalid blocks.
func NewSets(numSets, numWays int) []Set {
	sets := make([]Set, numSets)
	for i := range sets {
		sets[i].Blocks = make([]Block, numWays)
		for j := range sets[i].Blocks {
			sets[i].Blocks[j] = Block{
				SetID:   i,
				WayID:   j,
				LRURank: j,
			}
		}
	}

	return sets
}

// FindBlock returns the way that holds a valid block with the given tag.
func (s *Set) FindBlock(tag uint32) (way int, found bool) {
	for i, b := range s.Blocks {
		if b.IsValid && b.Tag == tag {
			return i, true
		}
	}

	return 0, false
}

// Visit moves the block at the given way to the most recently used position.
func (s *Set) Visit(way int) {
	oldRank := s.Blocks[way].LRURank

	for i := range s.Blocks {
		if s.Blocks[i].LRURank < oldRank {
			s.Blocks[i].LRURank++
		}
	}

	s.Blocks[way].LRURank = 0
}

// Insert places a clean block with the given tag into the way picked by the
// victim finder and makes it the most recently used block. If a valid block
// had to be evicted, it is returned and wasEvicted is true.
func (s *Set) Insert(
	tag uint32,
	victimFinder VictimFinder,
) (way int, evicted Block, wasEvicted bool) {
	way = victimFinder.FindVictim(s)

	victim := s.Blocks[way]
	if victim.IsValid {
		evicted = victim
		wasEvicted = true
	}

	s.Blocks[way].Tag = tag
	s.Blocks[way].IsValid = true
	s.Blocks[way].IsDirty = false
	s.Visit(way)

	return way, evicted, wasEvicted
}

// SetDirty marks the block at the given way as dirty.
func (s *Set) SetDirty(way int) {
	s.Blocks[way].IsDirty = true
}

// MRUOrder returns the valid blocks of the set, most recently used first.
func (s *Set) MRUOrder() []Block {
	ordered := make([]Block, len(s.Blocks))
	for _, b := range s.Blocks {
		ordered[b.LRURank] = b
	}

	valid := ordered[:0]
	for _, b := range ordered {
		if b.IsValid {
			valid = append(valid, b)
		}
	}

	return valid
}

// Ranks returns the LRU rank of every way, indexed by way.
func (s *Set) Ranks() []int {
	ranks := make([]int, len(s.Blocks))
	for i, b := range s.Blocks {
		ranks[i] = b.LRURank
	}

	return ranks
}
