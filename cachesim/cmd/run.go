package cmd

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// The number of records replayed between two monitor snapshots.
const publishInterval = 4096

type runOptions struct {
	debug       bool
	record      string
	monitor     bool
	monitorPort int
	openBrowser bool
}

func readRunOptions(cmd *cobra.Command) runOptions {
	flags := cmd.Flags()

	var o runOptions
	o.debug, _ = flags.GetBool("debug")
	o.record, _ = flags.GetString("record")
	o.monitor, _ = flags.GetBool("monitor")
	o.monitorPort, _ = flags.GetInt("monitor-port")
	o.openBrowser, _ = flags.GetBool("open-browser")

	return o
}

// countingReader counts the bytes read from the trace file so that the
// progress bar can follow the replay.
type countingReader struct {
	r io.Reader
	n uint64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += uint64(n)

	return n, err
}

func runSimulation(cmd *cobra.Command, args []string) error {
	config, err := parseConfig(args[:7])
	if err != nil {
		return err
	}

	h, err := hierarchy.New(config)
	if err != nil {
		return err
	}

	traceFile := args[7]

	f, err := os.Open(traceFile)
	if err != nil {
		return err
	}
	defer f.Close()

	cmd.SilenceUsage = true

	options := readRunOptions(cmd)
	out := cmd.OutOrStdout()

	if options.debug {
		logger := log.New(cmd.ErrOrStderr(), "", 0)
		h.AcceptHook(trace.NewLogTracer(logger))

		counter := hooking.NewCountTracer()
		h.AcceptHook(counter)
		defer printEventCounts(logger, counter)
	}

	var recorder datarecording.DataRecorder
	if options.record != "" {
		recorder = datarecording.New(options.record)
		defer recorder.Close()

		h.AcceptHook(trace.NewDBTracer(recorder))
	}

	var monitor *monitoring.Monitor
	if options.monitor {
		monitor, err = startMonitor(options)
		if err != nil {
			return err
		}

		defer stopMonitor(monitor)
	}

	if err := hierarchy.WriteConfig(out, config, traceFile); err != nil {
		return err
	}

	if err := replay(h, f, monitor); err != nil {
		return err
	}

	if err := hierarchy.WriteContents(out, h); err != nil {
		return err
	}

	m := hierarchy.Measure(h)

	if recorder != nil {
		recorder.CreateTable("measurements", m)
		recorder.InsertData("measurements", m)
	}

	return hierarchy.WriteMeasurements(out, m)
}

func printEventCounts(logger *log.Logger, counter *hooking.CountTracer) {
	for _, key := range counter.Keys() {
		logger.Printf("%s %s: %d\n", key.Domain, key.Pos, counter.Count(key))
	}
}

func replay(
	h *hierarchy.Hierarchy,
	f *os.File,
	monitor *monitoring.Monitor,
) error {
	if monitor == nil {
		_, err := h.Run(trace.NewReader(f))
		return err
	}

	var total uint64
	if info, err := f.Stat(); err == nil {
		total = uint64(info.Size())
	}

	counter := &countingReader{r: f}
	reader := trace.NewReader(counter)
	bar := monitor.CreateProgressBar("Replay", total)
	defer monitor.CompleteProgressBar(bar)

	for n := uint64(1); ; n++ {
		access, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return err
		}

		h.ProcessAccess(access.Op, access.Addr)

		if n%publishInterval == 0 {
			monitor.Publish(h)
			bar.SetFinished(counter.n)
		}
	}

	monitor.Publish(h)
	bar.SetFinished(total)

	return nil
}

func startMonitor(options runOptions) (*monitoring.Monitor, error) {
	monitor := monitoring.NewMonitor().WithPortNumber(options.monitorPort)

	url, err := monitor.StartServer()
	if err != nil {
		return nil, err
	}

	if options.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}

	return monitor, nil
}

func stopMonitor(monitor *monitoring.Monitor) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := monitor.StopServer(ctx); err != nil {
		log.Printf("cannot stop monitoring server: %v", err)
	}
}
