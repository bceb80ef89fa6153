// Package monitoring serves the progress and the statistics of a running
// replay over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
)

// LevelSnapshot is a copy of the counters of a level taken by the replay
// loop.
type LevelSnapshot struct {
	Name          string
	BlockSize     int
	ByteSize      int
	Associativity int
	ReadsDemand   uint64
	ReadMisses    uint64
	Writes        uint64
	WriteMisses   uint64
	Writebacks    uint64
	MissRate      float64
}

// Monitor can turn a replay into a server that reports its progress.
//
// The monitor never reads the hierarchy directly. The replay loop publishes
// copies with Publish.
type Monitor struct {
	portNumber int
	server     *http.Server

	snapshotLock       sync.Mutex
	snapshots          []LevelSnapshot
	memoryTransactions uint64

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// Publish copies the counters of every level of the hierarchy. It must be
// called from the goroutine that drives the hierarchy.
func (m *Monitor) Publish(h *hierarchy.Hierarchy) {
	levels := h.Levels()
	snapshots := make([]LevelSnapshot, 0, len(levels))

	for _, l := range levels {
		s := l.Stats()
		snapshots = append(snapshots, LevelSnapshot{
			Name:          l.Name(),
			BlockSize:     l.BlockSize(),
			ByteSize:      l.ByteSize(),
			Associativity: l.Associativity(),
			ReadsDemand:   s.ReadsDemand,
			ReadMisses:    s.ReadMissesDemand,
			Writes:        s.Writes,
			WriteMisses:   s.WriteMisses,
			Writebacks:    s.Writebacks,
			MissRate:      s.MissRate(),
		})
	}

	m.snapshotLock.Lock()
	defer m.snapshotLock.Unlock()

	m.snapshots = snapshots
	m.memoryTransactions = h.Memory().Transactions()
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := newProgressBar(name, total)

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/levels", m.listLevels)
	r.HandleFunc("/api/level/{name}", m.levelDetails)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":" + strconv.Itoa(m.portNumber)

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("monitoring server stopped: %v", err)
		}
	}()

	return url, nil
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.status())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type levelsRsp struct {
	Levels             []LevelSnapshot `json:"levels"`
	MemoryTransactions uint64          `json:"memory_transactions"`
}

func (m *Monitor) listLevels(w http.ResponseWriter, _ *http.Request) {
	m.snapshotLock.Lock()
	rsp := levelsRsp{
		Levels:             append([]LevelSnapshot{}, m.snapshots...),
		MemoryTransactions: m.memoryTransactions,
	}
	m.snapshotLock.Unlock()

	writeJSON(w, rsp)
}

func (m *Monitor) levelDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	snapshot, found := m.findSnapshot(name)
	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Level not found"))
		dieOnErr(err)

		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&snapshot)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) findSnapshot(name string) (LevelSnapshot, bool) {
	m.snapshotLock.Lock()
	defer m.snapshotLock.Unlock()

	for _, s := range m.snapshots {
		if s.Name == name {
			return s, true
		}
	}

	return LevelSnapshot{}, false
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
