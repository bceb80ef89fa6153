package cache

// Stats are the counters of a level. They only change while the level serves
// an access.
type Stats struct {
	ReadsDemand      uint64 `json:"reads_demand"`
	ReadMissesDemand uint64 `json:"read_misses_demand"`
	Writes           uint64 `json:"writes"`
	WriteMisses      uint64 `json:"write_misses"`
	Writebacks       uint64 `json:"writebacks"`
}

// Accesses returns the number of demand reads and writes that arrived.
func (s Stats) Accesses() uint64 {
	return s.ReadsDemand + s.Writes
}

// Misses returns the number of demand read misses and write misses.
func (s Stats) Misses() uint64 {
	return s.ReadMissesDemand + s.WriteMisses
}

// Hits returns the number of accesses that found their block.
func (s Stats) Hits() uint64 {
	return s.Accesses() - s.Misses()
}

// MissRate returns misses over accesses, or 0 if nothing arrived.
func (s Stats) MissRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}

	return float64(s.Misses()) / float64(s.Accesses())
}

// ReadMissRate returns demand read misses over demand reads, or 0 if no
// demand read arrived.
func (s Stats) ReadMissRate() float64 {
	if s.ReadsDemand == 0 {
		return 0
	}

	return float64(s.ReadMissesDemand) / float64(s.ReadsDemand)
}
