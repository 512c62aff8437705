package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xcoresim/xcoresim/core"
)

var _ = Describe("Signal", func() {
	Describe("a constant signal", func() {
		It("returns the same value at every tick", func() {
			sig := core.NewConstSignal(1)
			Expect(sig.GetValue(0)).To(Equal(uint32(1)))
			Expect(sig.GetValue(1000)).To(Equal(uint32(1)))
			Expect(sig.IsClock()).To(BeFalse())
		})
	})

	Describe("a clock signal", func() {
		var sig core.Signal

		BeforeEach(func() {
			sig = core.NewClockSignal(0, 4, 2)
		})

		It("holds its initial value before the phase offset", func() {
			Expect(sig.GetValue(0)).To(Equal(uint32(0)))
			Expect(sig.GetValue(1)).To(Equal(uint32(0)))
		})

		It("alternates value every half period after the phase offset", func() {
			Expect(sig.GetValue(2)).To(Equal(uint32(1)))
			Expect(sig.GetValue(5)).To(Equal(uint32(1)))
			Expect(sig.GetValue(6)).To(Equal(uint32(0)))
			Expect(sig.GetValue(10)).To(Equal(uint32(1)))
		})

		It("reports the next rising edge strictly after t", func() {
			edge := sig.GetNextEdge(0, core.Rising)
			Expect(edge.Tick).To(Equal(core.Tick(2)))
			Expect(edge.Kind).To(Equal(core.Rising))
		})

		It("reports the next falling edge strictly after t", func() {
			edge := sig.GetNextEdge(2, core.Falling)
			Expect(edge.Tick).To(Equal(core.Tick(6)))
		})
	})

	Describe("EdgeIterator", func() {
		var sig core.Signal

		BeforeEach(func() {
			sig = core.NewClockSignal(0, 4, 2)
		})

		It("starts at the first edge after t", func() {
			it := sig.GetEdgeIterator(0)
			Expect(it.Edge().Tick).To(Equal(core.Tick(2)))
			Expect(it.Edge().Kind).To(Equal(core.Rising))
		})

		It("alternates edge kind as it advances", func() {
			it := sig.GetEdgeIterator(0)
			first := it.Edge()
			second := it.Next().Edge()
			Expect(first.Kind).To(Equal(core.Rising))
			Expect(second.Kind).To(Equal(core.Falling))
			Expect(second.Tick).To(Equal(core.Tick(6)))
		})

		It("can move backward and is the inverse of Next", func() {
			it := sig.GetEdgeIterator(0)
			advanced := it.Next()
			back := advanced.Prev()
			Expect(back.Equal(it)).To(BeTrue())
		})

		It("jumps forward by n edges consistently with repeated Next", func() {
			it := sig.GetEdgeIterator(0)
			jumped := it.Plus(3)
			stepped := it.Next().Next().Next()
			Expect(jumped.Equal(stepped)).To(BeTrue())
		})

		It("computes distance between two iterators", func() {
			it := sig.GetEdgeIterator(0)
			ahead := it.Plus(5)
			Expect(ahead.Distance(it)).To(Equal(5))
			Expect(it.Distance(ahead)).To(Equal(-5))
		})
	})
})
