package hierarchy

import (
	"fmt"
	"io"
)

// reportWriter remembers the first error so that a report can be written
// without checking every line.
type reportWriter struct {
	w   io.Writer
	err error
}

func (r *reportWriter) printf(format string, args ...any) {
	if r.err != nil {
		return
	}

	_, r.err = fmt.Fprintf(r.w, format, args...)
}

// WriteConfig writes the configuration banner.
func WriteConfig(w io.Writer, c Config, traceFile string) error {
	r := &reportWriter{w: w}

	r.printf("===== Simulator configuration =====\n")
	r.printf("BLOCKSIZE:  %d\n", c.BlockSize)
	r.printf("L1_SIZE:    %d\n", c.L1Size)
	r.printf("L1_ASSOC:   %d\n", c.L1Assoc)
	r.printf("L2_SIZE:    %d\n", c.L2Size)
	r.printf("L2_ASSOC:   %d\n", c.L2Assoc)
	r.printf("PREF_N:     %d\n", c.PrefN)
	r.printf("PREF_M:     %d\n", c.PrefM)
	r.printf("trace_file: %s\n", traceFile)
	r.printf("\n")

	return r.err
}

// WriteContents dumps the valid lines of every set of every level, most
// recently used first. Dirty lines are marked with a D.
func WriteContents(w io.Writer, h *Hierarchy) error {
	r := &reportWriter{w: w}

	for _, l := range h.Levels() {
		r.printf("===== %s contents =====\n", l.Name())

		for i, lines := range l.Contents() {
			r.printf("set%6d:", i)

			for _, line := range lines {
				marker := "  "
				if line.Dirty {
					marker = " D"
				}

				r.printf("   %x%s", line.Tag, marker)
			}

			r.printf("\n")
		}

		r.printf("\n")
	}

	return r.err
}

// WriteMeasurements writes the lettered statistics report.
func WriteMeasurements(w io.Writer, m Measurements) error {
	r := &reportWriter{w: w}

	r.printf("===== Measurements =====\n")
	r.printf("a. L1 reads:                   %d\n", m.L1Reads)
	r.printf("b. L1 read misses:             %d\n", m.L1ReadMisses)
	r.printf("c. L1 writes:                  %d\n", m.L1Writes)
	r.printf("d. L1 write misses:            %d\n", m.L1WriteMisses)
	r.printf("e. L1 miss rate:               %.4f\n", m.L1MissRate)
	r.printf("f. L1 writebacks:              %d\n", m.L1Writebacks)
	r.printf("g. L1 prefetches:              %d\n", m.L1Prefetches)
	r.printf("h. L2 reads (demand):          %d\n", m.L2Reads)
	r.printf("i. L2 read misses (demand):    %d\n", m.L2ReadMisses)
	r.printf("j. L2 reads (prefetch):        %d\n", m.L2PrefetchReads)
	r.printf("k. L2 read misses (prefetch):  %d\n", m.L2PrefetchReadMisses)
	r.printf("l. L2 writes:                  %d\n", m.L2Writes)
	r.printf("m. L2 write misses:            %d\n", m.L2WriteMisses)
	r.printf("n. L2 miss rate:               %.4f\n", m.L2MissRate)
	r.printf("o. L2 writebacks:              %d\n", m.L2Writebacks)
	r.printf("p. L2 prefetches:              %d\n", m.L2Prefetches)
	r.printf("q. memory traffic:             %d\n", m.MemoryTraffic)
	r.printf("\n")

	return r.err
}
