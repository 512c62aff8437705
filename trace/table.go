// Package trace renders Port/ClockBlock pin-change hooks as a table,
// grounded on the teacher's go-pretty/v6/table usage for its CGRA
// PEStateLog/CycleAccumulator dumps.
package trace

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/akita/v4/sim"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// tickPrinter formats tick counts with thousands separators, so a long
// waveform dump (tens of thousands of ticks) stays readable in a table
// column instead of running digits together.
var tickPrinter = message.NewPrinter(language.English)

// Row is one recorded pin-level event.
type Row struct {
	Tick   uint64
	Source string
	Event  string
	Value  string
}

// TableRenderer accumulates Rows from hook invocations and renders them as
// an aligned table on Flush.
type TableRenderer struct {
	rows []Row
}

// NewTableRenderer creates an empty renderer.
func NewTableRenderer() *TableRenderer {
	return &TableRenderer{}
}

// Record appends a row built from a hook context. Domain is expected to
// expose a Name() string (Port, ClockBlock); pos carries the hook's
// registered name.
func (r *TableRenderer) Record(tick uint64, domain sim.Named, pos *sim.HookPos, value any) {
	r.rows = append(r.rows, Row{
		Tick:   tick,
		Source: domain.Name(),
		Event:  pos.Name,
		Value:  toString(value),
	})
}

func toString(v any) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	return sprintValue(v)
}

func sprintValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Flush renders the accumulated rows to w and clears the buffer.
func (r *TableRenderer) Flush(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Tick", "Source", "Event", "Value"})
	for _, row := range r.rows {
		t.AppendRow(table.Row{tickPrinter.Sprintf("%d", row.Tick), row.Source, row.Event, row.Value})
	}
	t.Render()
	r.rows = r.rows[:0]
}
