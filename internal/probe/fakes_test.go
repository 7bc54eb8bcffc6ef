package probe

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRows is an in-memory pgx.Rows.
type fakeRows struct {
	fields []pgconn.FieldDescription
	values [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) Scan(dest ...any) error                       { return errors.New("scan not supported") }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Err() error {
	if r.pos >= len(r.values) {
		return r.err
	}
	return nil
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.values[r.pos-1], nil
}

// fakeQuerier serves fakeRows by SQL text.
type fakeQuerier struct {
	rows map[string]*fakeRows
}

func (q *fakeQuerier) Query(ctx context.Context, stmt string, args ...any) (pgx.Rows, error) {
	rows, ok := q.rows[stmt]
	if !ok {
		return nil, fmt.Errorf("relation does not exist: %s", stmt)
	}
	return rows, nil
}

// stubTable is a canned database/sql result.
type stubTable struct {
	cols  []string
	types []string
	rows  [][]driver.Value
}

var (
	stubMu     sync.Mutex
	stubTables = map[string]stubTable{}
	stubOnce   sync.Once
)

// openStubDB returns a database/sql handle whose queries are answered from tables.
func openStubDB(t *testing.T, tables map[string]stubTable) *sql.DB {
	t.Helper()
	stubOnce.Do(func() { sql.Register("sqlprobe-stub", stubDriver{}) })

	stubMu.Lock()
	for q, tbl := range tables {
		stubTables[q] = tbl
	}
	stubMu.Unlock()

	db, err := sql.Open("sqlprobe-stub", "")
	if err != nil {
		t.Fatalf("open stub db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newStubToolkit builds a Toolkit over a stub database.
func newStubToolkit(t *testing.T, tables map[string]stubTable) *Toolkit {
	t.Helper()
	db := openStubDB(t, tables)
	raw := func(ctx context.Context, stmt string) (sqlRows, error) {
		return db.QueryContext(ctx, stmt)
	}
	return newToolkit(raw, time.Second, nil)
}

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(q string) (driver.Stmt, error) { return stubStmt{q: q}, nil }
func (stubConn) Close() error                          { return nil }
func (stubConn) Begin() (driver.Tx, error)             { return nil, errors.New("transactions not supported") }

type stubStmt struct {
	q string
}

func (s stubStmt) Close() error  { return nil }
func (s stubStmt) NumInput() int { return -1 }

func (s stubStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, errors.New("exec not supported")
}

func (s stubStmt) Query([]driver.Value) (driver.Rows, error) {
	stubMu.Lock()
	tbl, ok := stubTables[s.q]
	stubMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("relation does not exist: %s", s.q)
	}
	return &stubRows{tbl: tbl}, nil
}

type stubRows struct {
	tbl stubTable
	pos int
}

func (r *stubRows) Columns() []string { return r.tbl.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.tbl.rows) {
		return io.EOF
	}
	copy(dest, r.tbl.rows[r.pos])
	r.pos++
	return nil
}

func (r *stubRows) ColumnTypeDatabaseTypeName(i int) string {
	if i < len(r.tbl.types) {
		return r.tbl.types[i]
	}
	return ""
}
