package probe

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rickgao/sqlprobe/internal/query"
	"github.com/rickgao/sqlprobe/internal/value"
)

// Querier is satisfied by *pgx.Conn and *pgxpool.Pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Driver runs queries through pgx directly.
type Driver struct {
	db      Querier
	timeout time.Duration
	logger  *slog.Logger
}

// NewDriver creates a driver-layer prober.
func NewDriver(db Querier, timeout time.Duration, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		db:      db,
		timeout: timeout,
		logger:  logger.With("layer", LayerDriver),
	}
}

// Run executes q and fetches every row.
func (d *Driver) Run(ctx context.Context, q query.Query) (*Result, error) {
	ctx, cancel := withTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	d.logger.Debug("executing query", "query", q.Name)

	rows, err := d.db.Query(ctx, q.SQL)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Name, err)
	}
	defer rows.Close()

	typeMap := pgtype.NewMap()
	if conn := rows.Conn(); conn != nil {
		typeMap = conn.TypeMap()
	}
	columns := driverColumns(rows.FieldDescriptions(), typeMap)

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row %d of %s: %w", len(out), q.Name, err)
		}
		row := make([]any, len(vals))
		for i, v := range vals {
			row[i] = value.Normalize(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", q.Name, err)
	}

	res := &Result{
		Layer:   LayerDriver,
		Query:   q,
		Columns: columns,
		Rows:    out,
		Elapsed: time.Since(start),
	}
	d.logger.Debug("query complete", "query", q.Name, "rows", res.RowCount(), "elapsed", res.Elapsed)
	return res, nil
}

func driverColumns(fields []pgconn.FieldDescription, m *pgtype.Map) []Column {
	columns := make([]Column, len(fields))
	for i, fd := range fields {
		columns[i] = Column{
			Name:     fd.Name,
			TypeName: typeName(m, fd.DataTypeOID),
		}
	}
	return columns
}

// typeName mirrors the naming used by pgx's database/sql adapter.
func typeName(m *pgtype.Map, oid uint32) string {
	if t, ok := m.TypeForOID(oid); ok {
		return strings.ToUpper(t.Name)
	}
	return strconv.FormatUint(uint64(oid), 10)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
