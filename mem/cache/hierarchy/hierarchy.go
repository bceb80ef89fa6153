// Package hierarchy wires cache levels into an L1, optional L2 and memory
// chain, replays traces through it and reports the resulting statistics.
package hierarchy

import (
	"errors"
	"io"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// A Hierarchy owns the levels of a simulated cache hierarchy.
type Hierarchy struct {
	config Config
	l1     *cache.Level
	l2     *cache.Level
	memory *cache.Memory
}

// New builds the memory, the L2 if configured, and the L1.
func New(config Config) (*Hierarchy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	h := &Hierarchy{
		config: config,
		memory: cache.NewMemory(),
	}

	var l1Next cache.LowerLevel = h.memory

	if config.HasL2() {
		l2, err := config.l2Builder().WithNext(h.memory).Build("L2")
		if err != nil {
			return nil, err
		}

		h.l2 = l2
		l1Next = l2
	}

	l1, err := config.l1Builder().WithNext(l1Next).Build("L1")
	if err != nil {
		return nil, err
	}

	h.l1 = l1

	return h, nil
}

// Config returns the configuration the hierarchy is built from.
func (h *Hierarchy) Config() Config {
	return h.config
}

// L1 returns the first level.
func (h *Hierarchy) L1() *cache.Level {
	return h.l1
}

// L2 returns the second level, or nil if there is none.
func (h *Hierarchy) L2() *cache.Level {
	return h.l2
}

// Memory returns the memory at the bottom of the hierarchy.
func (h *Hierarchy) Memory() *cache.Memory {
	return h.memory
}

// Levels returns the cache levels from the top down.
func (h *Hierarchy) Levels() []*cache.Level {
	if h.l2 == nil {
		return []*cache.Level{h.l1}
	}

	return []*cache.Level{h.l1, h.l2}
}

// AcceptHook attaches the hook to every level and to the memory.
func (h *Hierarchy) AcceptHook(hook hooking.Hook) {
	for _, l := range h.Levels() {
		l.AcceptHook(hook)
	}

	h.memory.AcceptHook(hook)
}

// ProcessAccess sends a CPU load or store to the L1. It returns after every
// fetch and writeback the access causes is resolved.
func (h *Hierarchy) ProcessAccess(op trace.Op, addr uint32) (hit bool) {
	kind := cache.DemandRead
	if op == trace.OpWrite {
		kind = cache.DemandWrite
	}

	return h.l1.Access(addr, kind)
}

// Run replays every record of the reader in order. It stops at the first
// malformed record and returns the number of records processed.
func (h *Hierarchy) Run(r *trace.Reader) (n uint64, err error) {
	for {
		access, err := r.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}

		if err != nil {
			return n, err
		}

		h.ProcessAccess(access.Op, access.Addr)
		n++
	}
}

// Replay processes the accesses in order.
func (h *Hierarchy) Replay(accesses []trace.Access) {
	for _, a := range accesses {
		h.ProcessAccess(a.Op, a.Addr)
	}
}
