// Package trace reads memory reference traces and provides tracers that record
// how a cache hierarchy serves them.
package trace

import (
	"log"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// accessEntry represents an access arriving at a level in the database
type accessEntry struct {
	Seq     uint64
	Level   string
	Kind    string
	Address uint32
	Hit     bool
}

// evictionEntry represents a block leaving a level in the database
type evictionEntry struct {
	Seq     uint64
	Level   string
	Address uint32
	Dirty   bool
}

// A logTracer is a hook that prints every access, eviction and memory
// transaction.
type logTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a tracer that writes one line per event to logger.
func NewLogTracer(logger *log.Logger) hooking.Hook {
	return &logTracer{logger: logger}
}

// Func prints the event.
func (t *logTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosAccess:
		e := ctx.Item.(cache.AccessEvent)
		result := "miss"
		if e.Hit {
			result = "hit"
		}

		t.logger.Printf("%s: %s %x %s\n", ctx.Domain.Name(), e.Kind, e.Addr, result)
	case cache.HookPosEvict:
		e := ctx.Item.(cache.EvictEvent)
		state := "clean"
		if e.Dirty {
			state = "dirty"
		}

		t.logger.Printf("%s: evict %x %s\n", ctx.Domain.Name(), e.Addr, state)
	case cache.HookPosMemTransaction:
		e := ctx.Item.(cache.AccessEvent)
		t.logger.Printf("%s: %s %x\n", ctx.Domain.Name(), e.Kind, e.Addr)
	}
}

// A dbTracer is a hook that records the events of a cache hierarchy into a
// database using the data recorder.
type dbTracer struct {
	dataRecorder datarecording.DataRecorder
	seq          uint64
}

// NewDBTracer creates a database-based tracer.
func NewDBTracer(dataRecorder datarecording.DataRecorder) hooking.Hook {
	t := &dbTracer{
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable("cache_accesses", accessEntry{})
	t.dataRecorder.CreateTable("cache_evictions", evictionEntry{})

	return t
}

// Func records the event.
func (t *dbTracer) Func(ctx hooking.HookCtx) {
	t.seq++

	switch ctx.Pos {
	case cache.HookPosAccess, cache.HookPosMemTransaction:
		e := ctx.Item.(cache.AccessEvent)
		t.dataRecorder.InsertData("cache_accesses", accessEntry{
			Seq:     t.seq,
			Level:   ctx.Domain.Name(),
			Kind:    e.Kind.String(),
			Address: e.Addr,
			Hit:     e.Hit,
		})
	case cache.HookPosEvict:
		e := ctx.Item.(cache.EvictEvent)
		t.dataRecorder.InsertData("cache_evictions", evictionEntry{
			Seq:     t.seq,
			Level:   ctx.Domain.Name(),
			Address: e.Addr,
			Dirty:   e.Dirty,
		})
	}
}
