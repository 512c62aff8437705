package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xcoresim/xcoresim/core"
)

func newTestPort(scheduler *core.RunnableQueue, name string, w core.Width) *core.Port {
	clk := core.NewClockBlockBuilder().
		WithSignal(core.NewClockSignal(0, 4, 0)).
		Build(name + ".clk")
	p := core.NewPortBuilder(scheduler).WithWidth(w).WithClock(clk).Build(name)
	return p
}

var _ = Describe("Port", func() {
	var (
		scheduler *core.RunnableQueue
		p         *core.Port
	)

	BeforeEach(func() {
		scheduler = core.NewRunnableQueue()
		p = newTestPort(scheduler, "p", core.Width4)
	})

	It("starts in use with a transfer width equal to its pin width", func() {
		Expect(p.IsInUse()).To(BeTrue())
		Expect(p.GetTransferWidth()).To(Equal(uint32(4)))
	})

	Describe("Out", func() {
		It("accepts the first write without blocking", func() {
			th := core.NewThread(func(*core.Thread) {})
			result := p.Out(th, 0xA, 0)
			Expect(result).To(Equal(core.Continue))
		})

		It("parks the writer when a previous transfer is still pending", func() {
			th1 := core.NewThread(func(*core.Thread) {})
			th2 := core.NewThread(func(*core.Thread) {})
			Expect(p.Out(th1, 0x1, 0)).To(Equal(core.Continue))
			result := p.Out(th2, 0x2, 0)
			Expect(result).To(Equal(core.Deschedule))
		})
	})

	Describe("In", func() {
		It("parks the reader on a port still configured as output", func() {
			th1 := core.NewThread(func(*core.Thread) {})
			Expect(p.Out(th1, 0x1, 0)).To(Equal(core.Continue))

			th2 := core.NewThread(func(*core.Thread) {})
			result, _ := p.In(th2, 0)
			Expect(result).To(Equal(core.Deschedule))
		})
	})

	Describe("Endin", func() {
		It("is illegal on an output-configured port", func() {
			th := core.NewThread(func(*core.Thread) {})
			Expect(p.Out(th, 0x1, 0)).To(Equal(core.Continue))
			result, _ := p.Endin(0)
			Expect(result).To(Equal(core.Illegal))
		})

		It("is illegal on an unbuffered input port", func() {
			result, _ := p.Endin(0)
			Expect(result).To(Equal(core.Illegal))
		})
	})

	Describe("SetBuffered", func() {
		It("refuses to disable buffering while a non-default ready mode is set", func() {
			Expect(p.SetBuffered(0, true)).To(BeTrue())
			Expect(p.SetReadyMode(0, core.Strobed)).To(BeTrue())
			Expect(p.SetBuffered(0, false)).To(BeFalse())
		})

		It("allows disabling buffering once ready mode is back to NoReady", func() {
			Expect(p.SetBuffered(0, true)).To(BeTrue())
			Expect(p.SetReadyMode(0, core.NoReady)).To(BeTrue())
			Expect(p.SetBuffered(0, false)).To(BeTrue())
		})
	})

	Describe("SetReadyMode", func() {
		It("refuses a non-NoReady mode on an unbuffered port", func() {
			Expect(p.SetReadyMode(0, core.Handshake)).To(BeFalse())
		})
	})

	Describe("SetPortInv", func() {
		It("refuses inversion on a port wider than one bit", func() {
			Expect(p.SetPortInv(0, true)).To(BeFalse())
		})

		It("permits inversion on a width-1 port", func() {
			p1 := newTestPort(scheduler, "p1", core.Width1)
			Expect(p1.SetPortInv(0, true)).To(BeTrue())
		})
	})

	Describe("SetTransferWidth", func() {
		It("accepts the port's own width", func() {
			Expect(p.SetTransferWidth(0, 4)).To(BeTrue())
		})

		It("accepts a wider byte/word transfer width", func() {
			Expect(p.SetTransferWidth(0, 32)).To(BeTrue())
		})

		It("rejects a width smaller than the port's physical width", func() {
			Expect(p.SetTransferWidth(0, 1)).To(BeFalse())
		})
	})
})
