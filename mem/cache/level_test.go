package cache

import (
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/sim/hooking"
)

var _ = Describe("Level", func() {
	var (
		mockCtrl *gomock.Controller
		next     *MockLowerLevel
		l        *Level
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		next = NewMockLowerLevel(mockCtrl)

		var err error
		// 16B blocks, 2 sets, direct mapped
		l, err = MakeBuilder().
			WithBlockSize(16).
			WithByteSize(32).
			WithWayAssociativity(1).
			WithNext(next).
			Build("L1")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should derive the geometry", func() {
		Expect(l.Name()).To(Equal("L1"))
		Expect(l.NumSets()).To(Equal(2))
		Expect(l.OffsetBits()).To(Equal(4))
		Expect(l.IndexBits()).To(Equal(1))
		Expect(l.Next()).To(BeIdenticalTo(next))
	})

	It("should fetch the original address on a read miss", func() {
		next.EXPECT().Access(uint32(0x4), DemandRead).Return(false)

		hit := l.Access(0x4, DemandRead)

		Expect(hit).To(BeFalse())
		Expect(l.Stats()).To(Equal(Stats{ReadsDemand: 1, ReadMissesDemand: 1}))
	})

	It("should hit without going to the next level", func() {
		next.EXPECT().Access(uint32(0x0), DemandRead).Return(false)
		l.Access(0x0, DemandRead)

		hit := l.Access(0xc, DemandRead)

		Expect(hit).To(BeTrue())
		Expect(l.Stats()).To(Equal(Stats{ReadsDemand: 2, ReadMissesDemand: 1}))
		Expect(l.Contents()[0]).To(Equal([]LineInfo{{Tag: 0, Dirty: false}}))
	})

	It("should allocate on a write miss and mark the block dirty", func() {
		next.EXPECT().Access(uint32(0x10), DemandRead).Return(false)

		hit := l.Access(0x10, DemandWrite)

		Expect(hit).To(BeFalse())
		Expect(l.Stats()).To(Equal(Stats{Writes: 1, WriteMisses: 1}))
		Expect(l.Contents()[1]).To(Equal([]LineInfo{{Tag: 0, Dirty: true}}))
	})

	It("should mark the block dirty on a write hit", func() {
		next.EXPECT().Access(uint32(0x0), DemandRead).Return(false)
		l.Access(0x0, DemandRead)

		hit := l.Access(0x0, DemandWrite)

		Expect(hit).To(BeTrue())
		Expect(l.Contents()[0]).To(Equal([]LineInfo{{Tag: 0, Dirty: true}}))
	})

	It("should write back a dirty victim after fetching", func() {
		next.EXPECT().Access(uint32(0x0), DemandRead).Return(false)
		l.Access(0x0, DemandWrite)

		gomock.InOrder(
			next.EXPECT().Access(uint32(0x20), DemandRead).Return(false),
			next.EXPECT().Access(uint32(0x0), Writeback).Return(false),
		)

		l.Access(0x20, DemandWrite)

		Expect(l.Stats()).To(Equal(Stats{Writes: 2, WriteMisses: 2, Writebacks: 1}))
		Expect(l.Contents()[0]).To(Equal([]LineInfo{{Tag: 1, Dirty: true}}))
	})

	It("should drop a clean victim silently", func() {
		next.EXPECT().Access(uint32(0x0), DemandRead).Return(false)
		next.EXPECT().Access(uint32(0x20), DemandRead).Return(false)

		l.Access(0x0, DemandRead)
		l.Access(0x20, DemandRead)

		Expect(l.Stats().Writebacks).To(BeZero())
	})

	It("should install a writeback miss without fetching", func() {
		hit := l.Access(0x30, Writeback)

		Expect(hit).To(BeFalse())
		Expect(l.Stats()).To(Equal(Stats{Writes: 1, WriteMisses: 1}))
		Expect(l.Contents()[1]).To(Equal([]LineInfo{{Tag: 1, Dirty: true}}))
	})

	It("should chain a writeback that evicts a dirty block", func() {
		l.Access(0x10, Writeback)

		next.EXPECT().Access(uint32(0x10), Writeback).Return(false)

		l.Access(0x30, Writeback)

		Expect(l.Stats()).To(Equal(Stats{Writes: 2, WriteMisses: 2, Writebacks: 1}))
	})

	It("should absorb a writeback hit", func() {
		next.EXPECT().Access(uint32(0x10), DemandRead).Return(false)
		l.Access(0x10, DemandRead)

		hit := l.Access(0x10, Writeback)

		Expect(hit).To(BeTrue())
		Expect(l.Stats()).To(Equal(Stats{ReadsDemand: 1, ReadMissesDemand: 1, Writes: 1}))
		Expect(l.Contents()[1]).To(Equal([]LineInfo{{Tag: 0, Dirty: true}}))
	})

	It("should invoke hooks", func() {
		var accesses []AccessEvent
		var evictions []EvictEvent

		l.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			Expect(ctx.Domain).To(BeIdenticalTo(l))

			switch ctx.Pos {
			case HookPosAccess:
				accesses = append(accesses, ctx.Item.(AccessEvent))
			case HookPosEvict:
				evictions = append(evictions, ctx.Item.(EvictEvent))
			}
		}))

		next.EXPECT().Access(gomock.Any(), gomock.Any()).Return(false).AnyTimes()

		l.Access(0x0, DemandWrite)
		l.Access(0x0, DemandRead)
		l.Access(0x20, DemandRead)

		Expect(accesses).To(Equal([]AccessEvent{
			{Addr: 0x0, Kind: DemandWrite, Hit: false},
			{Addr: 0x0, Kind: DemandRead, Hit: true},
			{Addr: 0x20, Kind: DemandRead, Hit: false},
		}))
		Expect(evictions).To(Equal([]EvictEvent{{Addr: 0x0, Dirty: true}}))
	})
})

var _ = Describe("Level backed by memory", func() {
	It("should thrash on direct-mapped aliases", func() {
		mem := NewMemory()
		l, err := MakeBuilder().
			WithBlockSize(32).
			WithByteSize(1024).
			WithWayAssociativity(1).
			WithNext(mem).
			Build("L1")
		Expect(err).NotTo(HaveOccurred())
		Expect(l.NumSets()).To(Equal(32))

		for _, addr := range []uint32{0x0, 0x400, 0x0} {
			l.Access(addr, DemandRead)
		}

		Expect(l.Stats()).To(Equal(Stats{ReadsDemand: 3, ReadMissesDemand: 3}))
		Expect(mem.Transactions()).To(Equal(uint64(3)))
	})

	It("should send the dirty victim to memory", func() {
		mem := NewMemory()
		l, err := MakeBuilder().
			WithBlockSize(16).
			WithByteSize(32).
			WithWayAssociativity(1).
			WithNext(mem).
			Build("L1")
		Expect(err).NotTo(HaveOccurred())

		l.Access(0x0, DemandWrite)
		l.Access(0x20, DemandWrite)

		Expect(l.Stats().Writebacks).To(Equal(uint64(1)))
		Expect(l.Stats().WriteMisses).To(Equal(uint64(2)))
		Expect(mem.Transactions()).To(Equal(uint64(3)))
	})

	It("should create its own memory when no next level is given", func() {
		l, err := MakeBuilder().Build("L1")
		Expect(err).NotTo(HaveOccurred())

		mem, ok := l.Next().(*Memory)
		Expect(ok).To(BeTrue())

		l.Access(0x1234, DemandRead)
		Expect(mem.Transactions()).To(Equal(uint64(1)))
		Expect(mem.ByteSize()).To(BeZero())
	})

	It("should keep its invariants and conserve its counters", func() {
		l, err := MakeBuilder().
			WithBlockSize(16).
			WithByteSize(512).
			WithWayAssociativity(4).
			Build("L1")
		Expect(err).NotTo(HaveOccurred())

		r := rand.New(rand.NewSource(1))
		kinds := []AccessKind{DemandRead, DemandWrite, Writeback}
		arrivals := uint64(0)
		hits := uint64(0)

		for i := 0; i < 5000; i++ {
			addr := uint32(r.Intn(4096))
			if l.Access(addr, kinds[r.Intn(len(kinds))]) {
				hits++
			}
			arrivals++

			Expect(l.Verify()).To(Succeed())
		}

		s := l.Stats()
		Expect(s.Accesses()).To(Equal(arrivals))
		Expect(s.Hits()).To(Equal(hits))
		Expect(s.Hits() + s.Misses()).To(Equal(s.Accesses()))
	})
})

var _ = Describe("Builder", func() {
	DescribeTable("should reject invalid geometry",
		func(blockSize, byteSize, assoc int) {
			b := MakeBuilder().
				WithBlockSize(blockSize).
				WithByteSize(byteSize).
				WithWayAssociativity(assoc)

			_, err := b.Build("L1")
			Expect(errors.Is(err, ErrInvalidGeometry)).To(BeTrue())

			validateErr := b.Validate("L1")
			Expect(errors.Is(validateErr, ErrInvalidGeometry)).To(BeTrue())
			Expect(validateErr).To(MatchError(err.Error()))
		},
		Entry("block size not a power of two", 24, 1536, 2),
		Entry("set count not a power of two", 16, 96, 2),
		Entry("partial set", 16, 40, 2),
		Entry("zero size", 16, 0, 1),
		Entry("zero associativity", 16, 1024, 0),
	)

	It("should accept a fully associative level", func() {
		l, err := MakeBuilder().
			WithBlockSize(16).
			WithByteSize(128).
			WithWayAssociativity(8).
			Build("L1")

		Expect(err).NotTo(HaveOccurred())
		Expect(l.NumSets()).To(Equal(1))
		Expect(l.IndexBits()).To(BeZero())
	})

	It("should reject unknown replace strategies", func() {
		_, err := MakeBuilder().WithReplaceStrategy("fifo").Build("L1")

		Expect(err).To(MatchError(ContainSubstring("unknown replace strategy")))
		Expect(MakeBuilder().WithReplaceStrategy("fifo").Validate("L1")).
			To(MatchError(ContainSubstring("unknown replace strategy")))
	})

	It("should validate a buildable level", func() {
		Expect(MakeBuilder().Validate("L1")).To(Succeed())
	})
})
