package cache

import (
	"github.com/sarchlab/cachesim/sim/hooking"
)

// Memory terminates a cache hierarchy. Every access that reaches it is one
// memory transaction.
type Memory struct {
	hooking.HookableBase

	transactions uint64
}

// NewMemory creates a Memory with no recorded transactions.
func NewMemory() *Memory {
	return &Memory{}
}

// Name returns "Memory".
func (m *Memory) Name() string {
	return "Memory"
}

// ByteSize is always 0. The memory has no lines to hit in.
func (m *Memory) ByteSize() int {
	return 0
}

// Access counts a memory transaction. It never hits.
func (m *Memory) Access(addr uint32, kind AccessKind) bool {
	m.transactions++

	if m.NumHooks() > 0 {
		m.InvokeHook(hooking.HookCtx{
			Domain: m,
			Pos:    HookPosMemTransaction,
			Item:   AccessEvent{Addr: addr, Kind: kind},
		})
	}

	return false
}

// Transactions returns the number of accesses the memory has served.
func (m *Memory) Transactions() uint64 {
	return m.transactions
}
