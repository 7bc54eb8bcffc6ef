package probe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/sqlprobe/internal/query"
)

// Runner dispatches queries to the access layers.
type Runner struct {
	Driver  *Driver
	Toolkit *Toolkit
	Frames  *FrameLoader

	logger *slog.Logger
}

// NewRunner creates a runner over the given layers.
func NewRunner(driver *Driver, toolkit *Toolkit, frames *FrameLoader, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Driver:  driver,
		Toolkit: toolkit,
		Frames:  frames,
		logger:  logger,
	}
}

// Cell is the outcome of one query on one layer.
type Cell struct {
	Query   query.Query
	Layer   Layer
	Rows    int
	Columns []string // dtypes for the frame layer, type names otherwise
	Err     error
	Elapsed time.Duration
}

// OK reports whether the query succeeded.
func (c Cell) OK() bool {
	return c.Err == nil
}

// AsExpected reports whether the outcome matches the query's ExpectFailure.
func (c Cell) AsExpected() bool {
	return c.OK() != c.Query.ExpectFailure
}

// Probe runs q on layer and summarizes the outcome.
func (r *Runner) Probe(ctx context.Context, layer Layer, q query.Query) Cell {
	start := time.Now()
	cell := Cell{Query: q, Layer: layer}

	switch layer {
	case LayerDriver:
		res, err := r.Driver.Run(ctx, q)
		cell.Err = err
		if err == nil {
			cell.Rows = res.RowCount()
			cell.Columns = columnTypes(res.Columns)
		}
	case LayerToolkit:
		res, err := r.Toolkit.Run(ctx, q)
		cell.Err = err
		if err == nil {
			cell.Rows = res.RowCount()
			cell.Columns = columnTypes(res.Columns)
		}
	case LayerFrame:
		f, err := r.Frames.Load(ctx, q)
		cell.Err = err
		if err == nil {
			cell.Rows = f.Nrow()
			cell.Columns = f.DTypes
		}
	default:
		cell.Err = fmt.Errorf("unknown layer %q", layer)
	}

	cell.Elapsed = time.Since(start)
	return cell
}

// Matrix runs every query on every layer, one after another. It stops early
// only when ctx is cancelled.
func (r *Runner) Matrix(ctx context.Context, layers []Layer, queries []query.Query) ([]Cell, error) {
	cells := make([]Cell, 0, len(layers)*len(queries))
	for _, q := range queries {
		for _, layer := range layers {
			if err := ctx.Err(); err != nil {
				return cells, err
			}

			cell := r.Probe(ctx, layer, q)
			if cell.AsExpected() {
				r.logger.Debug("probe", "query", q.Name, "layer", layer, "ok", cell.OK(), "rows", cell.Rows)
			} else {
				r.logger.Warn("unexpected probe outcome",
					"query", q.Name,
					"layer", layer,
					"expect_failure", q.ExpectFailure,
					"error", cell.Err,
				)
			}
			cells = append(cells, cell)
		}
	}
	return cells, nil
}

func columnTypes(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.TypeName
	}
	return out
}
