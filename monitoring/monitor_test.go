package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
	"github.com/sarchlab/cachesim/mem/trace"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newTestHierarchy() *hierarchy.Hierarchy {
	h, err := hierarchy.New(hierarchy.Config{
		BlockSize: 16,
		L1Size:    32,
		L1Assoc:   1,
		L2Size:    64,
		L2Assoc:   1,
	})
	Expect(err).NotTo(HaveOccurred())

	return h
}

func get(m *Monitor, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	m.Router().ServeHTTP(rec, req)

	return rec
}

var _ = Describe("Monitor", func() {
	var (
		m *Monitor
		h *hierarchy.Hierarchy
	)

	BeforeEach(func() {
		m = NewMonitor()
		h = newTestHierarchy()
	})

	It("should report no levels before anything is published", func() {
		rec := get(m, "/api/levels")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp levelsRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Levels).To(BeEmpty())
		Expect(rsp.MemoryTransactions).To(BeZero())
	})

	It("should serve the published snapshot", func() {
		h.ProcessAccess(trace.OpWrite, 0x0)
		h.ProcessAccess(trace.OpWrite, 0x20)
		h.ProcessAccess(trace.OpRead, 0x40)
		m.Publish(h)

		rec := get(m, "/api/levels")

		var rsp levelsRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Levels).To(HaveLen(2))
		Expect(rsp.Levels[0].Name).To(Equal("L1"))
		Expect(rsp.Levels[0].Writes).To(Equal(uint64(2)))
		Expect(rsp.Levels[0].ReadsDemand).To(Equal(uint64(1)))
		Expect(rsp.Levels[1].Name).To(Equal("L2"))
		Expect(rsp.MemoryTransactions).To(Equal(h.Memory().Transactions()))
	})

	It("should not follow the hierarchy after publishing", func() {
		m.Publish(h)
		h.ProcessAccess(trace.OpRead, 0x0)

		snapshot, found := m.findSnapshot("L1")

		Expect(found).To(BeTrue())
		Expect(snapshot.ReadsDemand).To(BeZero())
	})

	It("should serialize a single level", func() {
		h.ProcessAccess(trace.OpRead, 0x0)
		m.Publish(h)

		rec := get(m, "/api/level/L1")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should return not found for an unknown level", func() {
		m.Publish(h)

		rec := get(m, "/api/level/L3")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should report resource usage", func() {
		rec := get(m, "/api/resource")

		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should list and complete progress bars", func() {
		bar := m.CreateProgressBar("replay", 10)
		bar.SetFinished(3)
		bar.SetFinished(5)

		rec := get(m, "/api/progress")

		var bars []progressBarStatus
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].ID).To(Equal(bar.ID))
		Expect(bars[0].Name).To(Equal("replay"))
		Expect(bars[0].Total).To(Equal(uint64(10)))
		Expect(bars[0].Finished).To(Equal(uint64(5)))

		m.CompleteProgressBar(bar)

		rec = get(m, "/api/progress")
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(BeEmpty())
	})

	It("should give every progress bar its own ID", func() {
		a := m.CreateProgressBar("a", 1)
		b := m.CreateProgressBar("b", 1)

		Expect(a.ID).NotTo(Equal(b.ID))
	})

	It("should replace a reserved port with a random one", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})
})
