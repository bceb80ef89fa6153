package hierarchy

// Measurements are the statistics reported after a trace is exhausted.
type Measurements struct {
	L1Reads              uint64  `json:"l1_reads"`
	L1ReadMisses         uint64  `json:"l1_read_misses"`
	L1Writes             uint64  `json:"l1_writes"`
	L1WriteMisses        uint64  `json:"l1_write_misses"`
	L1MissRate           float64 `json:"l1_miss_rate"`
	L1Writebacks         uint64  `json:"l1_writebacks"`
	L1Prefetches         uint64  `json:"l1_prefetches"`
	L2Reads              uint64  `json:"l2_reads"`
	L2ReadMisses         uint64  `json:"l2_read_misses"`
	L2PrefetchReads      uint64  `json:"l2_prefetch_reads"`
	L2PrefetchReadMisses uint64  `json:"l2_prefetch_read_misses"`
	L2Writes             uint64  `json:"l2_writes"`
	L2WriteMisses        uint64  `json:"l2_write_misses"`
	L2MissRate           float64 `json:"l2_miss_rate"`
	L2Writebacks         uint64  `json:"l2_writebacks"`
	L2Prefetches         uint64  `json:"l2_prefetches"`
	MemoryTraffic        uint64  `json:"memory_traffic"`
	MemoryTransactions   uint64  `json:"memory_transactions"`
}

// Measure derives the measurements from the counters of the levels.
//
// The memory traffic is the sum of the demand read misses, write misses and
// writebacks of the last cache level.
func Measure(h *Hierarchy) Measurements {
	l1 := h.l1.Stats()

	m := Measurements{
		L1Reads:            l1.ReadsDemand,
		L1ReadMisses:       l1.ReadMissesDemand,
		L1Writes:           l1.Writes,
		L1WriteMisses:      l1.WriteMisses,
		L1MissRate:         l1.MissRate(),
		L1Writebacks:       l1.Writebacks,
		MemoryTransactions: h.memory.Transactions(),
	}

	last := l1

	if h.l2 != nil {
		l2 := h.l2.Stats()

		m.L2Reads = l2.ReadsDemand
		m.L2ReadMisses = l2.ReadMissesDemand
		m.L2Writes = l2.Writes
		m.L2WriteMisses = l2.WriteMisses
		m.L2MissRate = l2.ReadMissRate()
		m.L2Writebacks = l2.Writebacks

		last = l2
	}

	m.MemoryTraffic = last.ReadMissesDemand + last.WriteMisses + last.Writebacks

	return m
}
