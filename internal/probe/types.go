package probe

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickgao/sqlprobe/internal/query"
	"github.com/rickgao/sqlprobe/internal/value"
)

// Layer names an access layer.
type Layer string

const (
	LayerDriver  Layer = "driver"
	LayerToolkit Layer = "toolkit"
	LayerFrame   Layer = "frame"
)

// Layers returns every layer in execution order.
func Layers() []Layer {
	return []Layer{LayerDriver, LayerToolkit, LayerFrame}
}

// ParseLayer converts a layer name.
func ParseLayer(s string) (Layer, error) {
	for _, l := range Layers() {
		if string(l) == strings.ToLower(s) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown layer %q (want driver, toolkit or frame)", s)
}

// Column describes one result column.
type Column struct {
	Name string
	// TypeName is the database type name as reported by the layer, upper case.
	// Extension types without a registered codec are reported by OID.
	TypeName string
}

// Result holds the normalized rows returned by one query on one layer.
type Result struct {
	Layer   Layer
	Query   query.Query
	Columns []Column
	Rows    [][]any
	Elapsed time.Duration
}

// RowCount returns the number of rows fetched.
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// ColumnIndex returns the index of the first column named name, or -1.
func (r *Result) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Field resolves a path such as "bird.iam" in row i: the first segment names
// the column, the rest is looked up inside its value.
func (r *Result) Field(i int, path string) (any, bool) {
	if i < 0 || i >= len(r.Rows) {
		return nil, false
	}

	col, rest, _ := strings.Cut(path, ".")
	idx := r.ColumnIndex(col)
	if idx < 0 || idx >= len(r.Rows[i]) {
		return nil, false
	}
	return value.Lookup(r.Rows[i][idx], rest)
}
