package probe

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rickgao/sqlprobe/internal/query"
	"github.com/rickgao/sqlprobe/internal/value"
)

// sqlRows is the part of *sql.Rows the toolkit layer reads.
type sqlRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() ([]string, error)
	ColumnTypes() ([]*sql.ColumnType, error)
}

// Toolkit runs raw SQL through gorm. Values arrive through database/sql, so
// json and hstore columns come back as bytes or text and are decoded here.
type Toolkit struct {
	raw     func(ctx context.Context, stmt string) (sqlRows, error)
	timeout time.Duration
	logger  *slog.Logger
}

// NewToolkit creates a toolkit-layer prober backed by db.
func NewToolkit(db *gorm.DB, timeout time.Duration, logger *slog.Logger) *Toolkit {
	raw := func(ctx context.Context, stmt string) (sqlRows, error) {
		return db.WithContext(ctx).Raw(stmt).Rows()
	}
	return newToolkit(raw, timeout, logger)
}

func newToolkit(raw func(context.Context, string) (sqlRows, error), timeout time.Duration, logger *slog.Logger) *Toolkit {
	if logger == nil {
		logger = slog.Default()
	}
	return &Toolkit{
		raw:     raw,
		timeout: timeout,
		logger:  logger.With("layer", LayerToolkit),
	}
}

// Run executes q and iterates every row.
func (t *Toolkit) Run(ctx context.Context, q query.Query) (*Result, error) {
	ctx, cancel := withTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	t.logger.Debug("executing query", "query", q.Name)

	rows, err := t.raw(ctx, q.SQL)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Name, err)
	}
	defer rows.Close()

	columns, err := toolkitColumns(rows)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", q.Name, err)
	}

	var out [][]any
	for rows.Next() {
		dest := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d of %s: %w", len(out), q.Name, err)
		}

		row := make([]any, len(columns))
		for i, v := range dest {
			row[i] = value.DecodeColumn(columns[i].TypeName, v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", q.Name, err)
	}

	res := &Result{
		Layer:   LayerToolkit,
		Query:   q,
		Columns: columns,
		Rows:    out,
		Elapsed: time.Since(start),
	}
	t.logger.Debug("query complete", "query", q.Name, "rows", res.RowCount(), "elapsed", res.Elapsed)
	return res, nil
}

func toolkitColumns(rows sqlRows) ([]Column, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i].Name = name
	}

	// Type names are best effort; a driver that cannot report them leaves
	// values undecoded.
	types, err := rows.ColumnTypes()
	if err == nil && len(types) == len(names) {
		for i, ct := range types {
			if ct != nil {
				columns[i].TypeName = strings.ToUpper(ct.DatabaseTypeName())
			}
		}
	}
	return columns, nil
}
