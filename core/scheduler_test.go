package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xcoresim/xcoresim/core"
)

type recordingRunnable struct {
	name string
	runs *[]core.Tick
}

func (r *recordingRunnable) RunnableName() string { return r.name }
func (r *recordingRunnable) Run(t core.Tick)       { *r.runs = append(*r.runs, t) }

var _ = Describe("RunnableQueue", func() {
	It("runs entries in tick order regardless of push order", func() {
		q := core.NewRunnableQueue()
		var runs []core.Tick
		a := &recordingRunnable{name: "a", runs: &runs}
		b := &recordingRunnable{name: "b", runs: &runs}
		c := &recordingRunnable{name: "c", runs: &runs}

		q.Push(a, 5)
		q.Push(b, 1)
		q.Push(c, 3)

		q.RunUntilEmpty(100)

		Expect(runs).To(Equal([]core.Tick{1, 3, 5}))
	})

	It("drains every pushed entry regardless of tie ties on the same tick", func() {
		q := core.NewRunnableQueue()
		var runs []core.Tick
		first := &recordingRunnable{name: "first", runs: &runs}
		second := &recordingRunnable{name: "second", runs: &runs}

		q.Push(first, 10)
		q.Push(second, 10)
		q.RunUntilEmpty(100)

		Expect(runs).To(Equal([]core.Tick{10, 10}))
		Expect(q.Len()).To(Equal(0))
	})

	It("advances Now() to the tick of the most recently run entry", func() {
		q := core.NewRunnableQueue()
		var runs []core.Tick
		r := &recordingRunnable{name: "r", runs: &runs}

		q.Push(r, 42)
		q.RunUntilEmpty(10)

		Expect(q.Now()).To(Equal(core.Tick(42)))
	})

	It("lets a Runnable reschedule itself to extend the run", func() {
		q := core.NewRunnableQueue()
		count := 0
		var self core.Runnable
		rr := &runnableFunc{f: func(t core.Tick) {
			count++
			if count < 3 {
				q.Push(self, t+1)
			}
		}}
		self = rr

		q.Push(rr, 0)
		q.RunUntilEmpty(100)

		Expect(count).To(Equal(3))
	})
})

// runnableFunc is a pointer type so it can serve as the scheduler's
// per-Runnable map key; a bare func type is not hashable.
type runnableFunc struct{ f func(t core.Tick) }

func (r *runnableFunc) RunnableName() string { return "runnableFunc" }
func (r *runnableFunc) Run(t core.Tick)      { r.f(t) }
