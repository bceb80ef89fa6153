package cache

import (
	"github.com/sarchlab/cachesim/sim/hooking"
)

// AccessKind tells a level why an access arrives.
type AccessKind int

// The kinds of accesses a level can receive.
const (
	// DemandRead is a CPU load, or the fetch a higher level issues on a miss.
	DemandRead AccessKind = iota

	// DemandWrite is a CPU store. A miss allocates the block before it is
	// marked dirty.
	DemandWrite

	// Writeback is a dirty block pushed down by the eviction of a higher
	// level. It is installed directly and never fetches from below.
	Writeback
)

// IsWrite returns true if the access modifies the block.
func (k AccessKind) IsWrite() bool {
	return k == DemandWrite || k == Writeback
}

func (k AccessKind) String() string {
	switch k {
	case DemandRead:
		return "r"
	case DemandWrite:
		return "w"
	case Writeback:
		return "wb"
	default:
		return "unknown"
	}
}

// LowerLevel is where a level sends its fetches and writebacks.
type LowerLevel interface {
	hooking.Hookable

	// Access performs an access and reports whether it hit.
	Access(addr uint32, kind AccessKind) (hit bool)
}

// Hook positions of the cache hierarchy.
var (
	// HookPosAccess is triggered when an access arrives at a level. The item
	// is an AccessEvent.
	HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}

	// HookPosEvict is triggered when a level evicts a valid block. The item
	// is an EvictEvent.
	HookPosEvict = &hooking.HookPos{Name: "CacheEvict"}

	// HookPosMemTransaction is triggered when an access reaches the memory.
	// The item is an AccessEvent.
	HookPosMemTransaction = &hooking.HookPos{Name: "MemTransaction"}
)

// AccessEvent describes an access that arrives at a level.
type AccessEvent struct {
	Addr uint32
	Kind AccessKind
	Hit  bool
}

// EvictEvent describes a block that leaves a level.
type EvictEvent struct {
	Addr  uint32
	Dirty bool
}
