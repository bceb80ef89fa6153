package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// A Level is a write-back, write-allocate, set-associative cache. Misses are
// fetched from the next level and dirty victims are written back to it.
type Level struct {
	hooking.HookableBase

	name          string
	blockSize     int
	byteSize      int
	associativity int
	numSets       int
	offsetBits    int
	indexBits     int

	sets         []tagging.Set
	victimFinder tagging.VictimFinder
	next         LowerLevel

	stats Stats
}

// Name returns the name of the level.
func (l *Level) Name() string {
	return l.name
}

// BlockSize returns the number of bytes in a block.
func (l *Level) BlockSize() int {
	return l.blockSize
}

// ByteSize returns the capacity of the level.
func (l *Level) ByteSize() int {
	return l.byteSize
}

// Associativity returns the number of ways in a set.
func (l *Level) Associativity() int {
	return l.associativity
}

// NumSets returns the number of sets.
func (l *Level) NumSets() int {
	return l.numSets
}

// OffsetBits returns the number of address bits that select a byte in a block.
func (l *Level) OffsetBits() int {
	return l.offsetBits
}

// IndexBits returns the number of address bits that select a set.
func (l *Level) IndexBits() int {
	return l.indexBits
}

// Next returns the level that serves the misses of this level.
func (l *Level) Next() LowerLevel {
	return l.next
}

// Stats returns a copy of the counters of the level.
func (l *Level) Stats() Stats {
	return l.stats
}

// Access serves a demand read, a demand write or a writeback and reports
// whether the block was present. Misses and dirty evictions are resolved
// through the next level before Access returns.
func (l *Level) Access(addr uint32, kind AccessKind) bool {
	tag, index, _ := tagging.Decode(addr, l.offsetBits, l.indexBits)
	set := &l.sets[index]

	l.countArrival(kind)

	way, hit := set.FindBlock(tag)
	l.invokeAccessHook(addr, kind, hit)

	if hit {
		set.Visit(way)

		if kind.IsWrite() {
			set.SetDirty(way)
		}

		return true
	}

	l.countMiss(kind)

	if kind != Writeback {
		l.next.Access(addr, DemandRead)
	}

	way = l.install(set, tag, index)

	if kind.IsWrite() {
		set.SetDirty(way)
	}

	return false
}

func (l *Level) countArrival(kind AccessKind) {
	switch kind {
	case DemandRead:
		l.stats.ReadsDemand++
	case DemandWrite, Writeback:
		l.stats.Writes++
	}
}

func (l *Level) countMiss(kind AccessKind) {
	switch kind {
	case DemandRead:
		l.stats.ReadMissesDemand++
	case DemandWrite, Writeback:
		l.stats.WriteMisses++
	}
}

// install places the block in the set and writes the victim back if it is
// dirty.
func (l *Level) install(set *tagging.Set, tag, index uint32) (way int) {
	way, victim, evicted := set.Insert(tag, l.victimFinder)
	if !evicted {
		return way
	}

	victimAddr := tagging.BlockAddress(
		victim.Tag, index, l.offsetBits, l.indexBits)
	l.invokeEvictHook(victimAddr, victim.IsDirty)

	if victim.IsDirty {
		l.stats.Writebacks++
		l.next.Access(victimAddr, Writeback)
	}

	return way
}

func (l *Level) invokeAccessHook(addr uint32, kind AccessKind, hit bool) {
	if l.NumHooks() == 0 {
		return
	}

	l.InvokeHook(hooking.HookCtx{
		Domain: l,
		Pos:    HookPosAccess,
		Item:   AccessEvent{Addr: addr, Kind: kind, Hit: hit},
	})
}

func (l *Level) invokeEvictHook(addr uint32, dirty bool) {
	if l.NumHooks() == 0 {
		return
	}

	l.InvokeHook(hooking.HookCtx{
		Domain: l,
		Pos:    HookPosEvict,
		Item:   EvictEvent{Addr: addr, Dirty: dirty},
	})
}

// LineInfo is the content of a valid line.
type LineInfo struct {
	Tag   uint32
	Dirty bool
}

// Contents returns the valid lines of every set, most recently used first.
func (l *Level) Contents() [][]LineInfo {
	contents := make([][]LineInfo, len(l.sets))

	for i := range l.sets {
		blocks := l.sets[i].MRUOrder()

		lines := make([]LineInfo, 0, len(blocks))
		for _, b := range blocks {
			lines = append(lines, LineInfo{Tag: b.Tag, Dirty: b.IsDirty})
		}

		contents[i] = lines
	}

	return contents
}

// Verify checks that every set keeps its LRU ranks a permutation of the ways
// and holds each tag at most once.
func (l *Level) Verify() error {
	for i := range l.sets {
		set := &l.sets[i]

		seenRank := make([]bool, l.associativity)
		seenTag := make(map[uint32]bool)

		for _, b := range set.Blocks {
			if b.LRURank < 0 || b.LRURank >= l.associativity ||
				seenRank[b.LRURank] {
				return fmt.Errorf("%s set %d: ranks %v are not a permutation",
					l.name, i, set.Ranks())
			}

			seenRank[b.LRURank] = true

			if !b.IsValid {
				continue
			}

			if seenTag[b.Tag] {
				return fmt.Errorf("%s set %d: tag 0x%x is held twice",
					l.name, i, b.Tag)
			}

			seenTag[b.Tag] = true
		}
	}

	return nil
}
