package tagging

// A VictimFinder decides which way of a set should receive a new block.
type VictimFinder interface {
	FindVictim(set *Set) (way int)
}

// LRUVictimFinder evicts the least recently used block.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the first invalid way of the set. If all the ways are
// valid, it returns the least recently used one.
func (e *LRUVictimFinder) FindVictim(set *Set) int {
	// First try evicting an empty block
	for i, block := range set.Blocks {
		if !block.IsValid {
			return i
		}
	}

	victim := 0
	for i, block := range set.Blocks {
		if block.LRURank > set.Blocks[victim].LRURank {
			victim = i
		}
	}

	return victim
}
