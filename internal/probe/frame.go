package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/rickgao/sqlprobe/internal/query"
	"github.com/rickgao/sqlprobe/internal/value"
)

// Pandas-style dtype labels reported for frame columns.
const (
	DTypeInt      = "int64"
	DTypeFloat    = "float64"
	DTypeBool     = "bool"
	DTypeObject   = "object"
	DTypeDatetime = "datetime64[ns]"
)

// Frame is a query result loaded into a DataFrame.
type Frame struct {
	Query  query.Query
	Names  []string
	DTypes []string

	df   dataframe.DataFrame
	cols [][]any
	rows int
}

// FrameLoader reads query results through the toolkit layer into frames.
type FrameLoader struct {
	toolkit *Toolkit
	logger  *slog.Logger
}

// NewFrameLoader creates a frame-layer prober on top of toolkit.
func NewFrameLoader(toolkit *Toolkit, logger *slog.Logger) *FrameLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameLoader{
		toolkit: toolkit,
		logger:  logger.With("layer", LayerFrame),
	}
}

// Load runs q and loads the rows into a frame.
func (l *FrameLoader) Load(ctx context.Context, q query.Query) (*Frame, error) {
	res, err := l.toolkit.Run(ctx, q)
	if err != nil {
		return nil, err
	}

	f, err := NewFrame(res)
	if err != nil {
		return nil, fmt.Errorf("load frame for %s: %w", q.Name, err)
	}
	l.logger.Debug("frame loaded", "query", q.Name, "rows", f.Nrow(), "dtypes", f.DTypes)
	return f, nil
}

// NewFrame builds a frame from res. Each column's type comes from the Go
// types of its values, never from their text: strings and documents stay
// object, JSON numbers narrow to int64 when every value fits and otherwise
// widen to a lossy float64.
func NewFrame(res *Result) (*Frame, error) {
	names := uniqueNames(res.Columns)
	f := &Frame{
		Query:  res.Query,
		Names:  names,
		DTypes: make([]string, len(names)),
		cols:   make([][]any, len(names)),
		rows:   len(res.Rows),
	}

	all := make([]series.Series, len(names))
	for c, name := range names {
		raw := make([]any, len(res.Rows))
		for i, row := range res.Rows {
			if c < len(row) {
				raw[i] = row[c]
			}
		}

		dtype, cells := convertColumn(raw)
		f.DTypes[c] = dtype
		f.cols[c] = cells
		all[c] = series.New(cells, seriesType(dtype), name)
	}

	if f.rows == 0 {
		return f, nil
	}

	f.df = dataframe.New(all...)
	if f.df.Err != nil {
		return nil, f.df.Err
	}
	return f, nil
}

// Nrow returns the number of rows.
func (f *Frame) Nrow() int {
	return f.rows
}

// Cell returns the value at row i of column col: int, float64, bool, string
// or nil for a missing value. Values are kept alongside the DataFrame since
// gota treats the text "NaN" as missing.
func (f *Frame) Cell(col, i int) any {
	if col < 0 || col >= len(f.cols) || i < 0 || i >= len(f.cols[col]) {
		return nil
	}
	return f.cols[col][i]
}

// WriteJSON writes the frame column-oriented, keyed by column then row index.
func (f *Frame) WriteJSON(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for c, name := range f.Names {
		if c > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return fmt.Errorf("encode column name: %w", err)
		}
		buf.Write(key)
		buf.WriteString(":{")
		for i := 0; i < f.rows; i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			cell, err := json.Marshal(f.Cell(c, i))
			if err != nil {
				return fmt.Errorf("encode %s[%d]: %w", name, i, err)
			}
			buf.WriteString(strconv.Quote(strconv.Itoa(i)))
			buf.WriteByte(':')
			buf.Write(cell)
		}
		buf.WriteByte('}')
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// String renders the frame as a table.
func (f *Frame) String() string {
	if f.rows == 0 {
		return fmt.Sprintf("Empty DataFrame\nColumns: %v", f.Names)
	}
	return f.df.String()
}

func seriesType(dtype string) series.Type {
	switch dtype {
	case DTypeInt:
		return series.Int
	case DTypeFloat:
		return series.Float
	case DTypeBool:
		return series.Bool
	default:
		return series.String
	}
}

type columnKind int

const (
	kindNone columnKind = iota
	kindInt
	kindFloat
	kindBool
	kindTime
	kindObject
)

// convertColumn picks the dtype of a column from its values and returns the
// cells in that dtype's Go form. Non-finite floats become missing values.
func convertColumn(raw []any) (string, []any) {
	kind := kindNone
	for _, v := range raw {
		kind = mergeKind(kind, kindOf(v))
	}

	cells := make([]any, len(raw))
	for i, v := range raw {
		if v == nil {
			continue
		}
		switch kind {
		case kindInt:
			cells[i] = toInt(v)
		case kindFloat:
			if x := toFloat(v); !math.IsNaN(x) && !math.IsInf(x, 0) {
				cells[i] = x
			}
		case kindBool:
			cells[i] = v.(bool)
		default:
			cells[i] = value.Render(v)
		}
	}

	switch kind {
	case kindInt:
		return DTypeInt, cells
	case kindFloat:
		return DTypeFloat, cells
	case kindBool:
		return DTypeBool, cells
	case kindTime:
		return DTypeDatetime, cells
	default:
		return DTypeObject, cells
	}
}

func kindOf(v any) columnKind {
	switch v := v.(type) {
	case nil:
		return kindNone
	case int, int8, int16, int32:
		return kindInt
	case int64:
		if int64(int(v)) != v {
			return kindFloat
		}
		return kindInt
	case float32, float64:
		return kindFloat
	case json.Number:
		if _, err := strconv.ParseInt(v.String(), 10, strconv.IntSize); err == nil {
			return kindInt
		}
		if _, err := v.Float64(); err == nil {
			return kindFloat
		}
		return kindObject
	case bool:
		return kindBool
	case time.Time:
		return kindTime
	default:
		return kindObject
	}
}

// mergeKind combines the kinds of two values in one column. Ints widen to
// floats; any other mix is object.
func mergeKind(a, b columnKind) columnKind {
	switch {
	case a == kindNone:
		return b
	case b == kindNone, a == b:
		return a
	case (a == kindInt && b == kindFloat) || (a == kindFloat && b == kindInt):
		return kindFloat
	default:
		return kindObject
	}
}

func toInt(v any) int {
	switch v := v.(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case json.Number:
		n, _ := strconv.ParseInt(v.String(), 10, strconv.IntSize)
		return int(n)
	}
	return 0
}

func toFloat(v any) float64 {
	switch v := v.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int64:
		return float64(v)
	case json.Number:
		x, _ := v.Float64()
		return x
	default:
		return float64(toInt(v))
	}
}

// uniqueNames suffixes repeated column names, as a join selecting two
// columns of the same name would otherwise collide in the frame.
func uniqueNames(cols []Column) []string {
	names := make([]string, len(cols))
	used := make(map[string]bool, len(cols))
	for _, c := range cols {
		used[c.Name] = true
	}
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		name := c.Name
		// A suffixed name must not take one a later column carries literally.
		for n := 1; seen[name] || (name != c.Name && used[name]); n++ {
			name = fmt.Sprintf("%s_%d", c.Name, n)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}
