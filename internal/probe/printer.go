package probe

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rickgao/sqlprobe/internal/query"
	"github.com/rickgao/sqlprobe/internal/value"
)

// Printer writes probe output for a terminal.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintRows writes every row as a JSON array, one per line.
func (p *Printer) PrintRows(res *Result) error {
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = encodeCell(v)
		}
		if _, err := fmt.Fprintf(p.w, "[%s]\n", strings.Join(cells, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// PrintField writes the row count, then the value at path for each row.
func (p *Printer) PrintField(res *Result, path string) error {
	if _, err := fmt.Fprintf(p.w, "%d results...\n", res.RowCount()); err != nil {
		return err
	}
	for i := range res.Rows {
		line := "<missing>"
		if v, ok := res.Field(i, path); ok {
			line = encodeCell(v)
		}
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return err
		}
	}
	return nil
}

// PrintFrame writes the detected dtypes followed by the frame as JSON.
func (p *Printer) PrintFrame(f *Frame) error {
	fmt.Fprintln(p.w, "\ndataframe sees these types:")
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for i, name := range f.Names {
		fmt.Fprintf(tw, "%s\t%s\n", name, f.DTypes[i])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(p.w, "\njson:")
	return f.WriteJSON(p.w)
}

// PrintMatrix writes one line per probe.
func (p *Printer) PrintMatrix(cells []Cell) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUERY\tLAYER\tSTATUS\tROWS\tTYPES\tNOTE")
	for _, c := range cells {
		status := "ok"
		if !c.OK() {
			status = "failed"
		}

		note := ""
		switch {
		case !c.AsExpected() && c.OK():
			note = "expected failure, succeeded"
		case !c.AsExpected():
			note = "unexpected failure: " + firstLine(c.Err.Error())
		case !c.OK():
			note = "expected: " + firstLine(c.Err.Error())
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			c.Query.Name, c.Layer, status, c.Rows, strings.Join(c.Columns, ","), note)
	}
	return tw.Flush()
}

// PrintCatalog lists the available queries.
func (p *Printer) PrintCatalog(queries []query.Query) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFIELD\tEXPECT\tDESCRIPTION")
	for _, q := range queries {
		expect := "ok"
		if q.ExpectFailure {
			expect = "failure"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", q.Name, q.Field, expect, q.Description)
	}
	return tw.Flush()
}

func encodeCell(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// NaN floats and other values JSON cannot carry.
		return strconv.Quote(value.Render(v))
	}
	return string(b)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
