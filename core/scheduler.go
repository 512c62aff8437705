package core

import (
	"container/heap"

	"github.com/rs/xid"
)

// Runnable is the scheduler's dispatch surface: a component that can be
// popped off the RunnableQueue and told to run at its scheduled tick. Ports
// and peripheral state machines implement it. This replaces
// the original C++ model's virtual Runnable interface per spec.md §9 with a
// plain Go interface.
type Runnable interface {
	// Run executes the Runnable's behavior for the edge/event at tick t. The
	// Runnable is responsible for rescheduling itself via the scheduler it
	// was constructed with if it wants to run again.
	Run(t Tick)
	// RunnableName identifies the Runnable in traces; it need not be unique.
	RunnableName() string
}

type scheduledEntry struct {
	tick  Tick
	seq   uint64 // insertion order, for FIFO tie-breaking
	r     Runnable
	index int // heap index, maintained by container/heap
}

type entryHeap []*scheduledEntry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].tick != h[j].tick {
		return h[i].tick < h[j].tick
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *entryHeap) Push(x any) {
	e := x.(*scheduledEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// RunnableQueue is the discrete-event scheduler: a min-heap keyed by tick,
// with ties broken in FIFO insertion order. It is the sole driver of
// simulated time; see spec.md §4.1 and §5.
type RunnableQueue struct {
	id      xid.ID
	heap    entryHeap
	byOwner map[Runnable]*scheduledEntry
	seq     uint64
	now     Tick
}

// NewRunnableQueue creates an empty scheduler.
func NewRunnableQueue() *RunnableQueue {
	return &RunnableQueue{
		id:      xid.New(),
		byOwner: make(map[Runnable]*scheduledEntry),
	}
}

// ID uniquely identifies this scheduler instance, for trace correlation.
func (q *RunnableQueue) ID() xid.ID { return q.id }

// Now returns the tick simulated time last advanced to via Pop.
func (q *RunnableQueue) Now() Tick { return q.now }

// Push schedules r to run at tick t, unless r already has an earlier
// scheduled tick, in which case the request is ignored. Each Runnable is
// present in the queue at most once.
func (q *RunnableQueue) Push(r Runnable, t Tick) {
	if e, ok := q.byOwner[r]; ok {
		if t < e.tick {
			e.tick = t
			heap.Fix(&q.heap, e.index)
		}
		return
	}
	e := &scheduledEntry{tick: t, seq: q.seq, r: r}
	q.seq++
	q.byOwner[r] = e
	heap.Push(&q.heap, e)
}

// Len reports how many Runnables are currently scheduled.
func (q *RunnableQueue) Len() int { return len(q.heap) }

// Pop removes and returns the earliest-scheduled Runnable, advancing
// simulated time to its tick. Panics if the queue is empty: callers should
// check Len() first.
func (q *RunnableQueue) Pop() (Tick, Runnable) {
	e := heap.Pop(&q.heap).(*scheduledEntry)
	delete(q.byOwner, e.r)
	if e.tick > q.now {
		q.now = e.tick
	}
	return e.tick, e.r
}

// RunUntilEmpty repeatedly pops and runs Runnables until the queue is
// empty, or until maxSteps have been executed (0 means unlimited) —
// the step cap guards against accidentally-infinite peripheral
// self-rescheduling loops during tests.
func (q *RunnableQueue) RunUntilEmpty(maxSteps int) {
	steps := 0
	for q.Len() > 0 {
		if maxSteps > 0 && steps >= maxSteps {
			return
		}
		t, r := q.Pop()
		r.Run(t)
		steps++
	}
}

// Thread is the minimal external-collaborator boundary for the CPU thread
// that issues Port operations. The instruction decoder, ALU and register
// file are out of scope (spec.md §1); a Thread exposes only what a Port
// needs to park and resume it.
type Thread struct {
	// PC is the thread's program counter. This package never reads or
	// changes it (Schedule leaves it as is); advancing it after a completed
	// blocking op is left to the owner's onSchedule callback.
	PC uint32
	// Time is the tick at which the thread becomes runnable again.
	Time Tick
	// onSchedule lets the thread be re-enqueued without the core package
	// depending on a specific CPU scheduler implementation.
	onSchedule func(th *Thread)
}

// NewThread creates a Thread whose resumption invokes onSchedule. The core
// CPU scheduler (out of scope) supplies onSchedule to re-enqueue its own
// execution context; core itself never dereferences CPU state.
func NewThread(onSchedule func(th *Thread)) *Thread {
	return &Thread{onSchedule: onSchedule}
}

// Schedule marks the thread runnable again at its current Time and PC,
// invoking the owner-supplied resumption callback.
func (t *Thread) Schedule() {
	if t.onSchedule != nil {
		t.onSchedule(t)
	}
}
