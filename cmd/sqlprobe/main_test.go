package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rickgao/sqlprobe/internal/config"
	"github.com/rickgao/sqlprobe/internal/probe"
	"github.com/rickgao/sqlprobe/internal/query"
)

type fakeLayer struct {
	res   *probe.Result
	err   error
	calls int
}

func (f *fakeLayer) Run(_ context.Context, q query.Query) (*probe.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	res := *f.res
	res.Query = q
	return &res, nil
}

func (f *fakeLayer) Load(ctx context.Context, q query.Query) (*probe.Frame, error) {
	res, err := f.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	return probe.NewFrame(res)
}

type fakeMatrix struct {
	cells []probe.Cell
	err   error
}

func (f *fakeMatrix) Matrix(context.Context, []probe.Layer, []query.Query) ([]probe.Cell, error) {
	return f.cells, f.err
}

func birdResult() *probe.Result {
	return &probe.Result{
		Columns: []probe.Column{{Name: "trade_user"}, {Name: "bird"}},
		Rows: [][]any{
			{"Dan", map[string]any{"iam": "bird"}},
			{"Ann", nil},
		},
	}
}

func TestRunOne(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		want    []string
		wantErr string
	}{
		{
			name: "driver prints the query's field",
			opts: options{layer: "driver", query: "juxt_bird"},
			want: []string{"2 results...", `"bird"`, "<missing>"},
		},
		{
			name: "driver prints an explicit field",
			opts: options{layer: "driver", query: "user_names", field: "trade_user"},
			want: []string{"2 results...", `"Dan"`, `"Ann"`},
		},
		{
			name: "driver without a field prints rows",
			opts: options{layer: "driver", query: "user_names"},
			want: []string{`["Dan", {"iam":"bird"}]`},
		},
		{
			name: "toolkit prints the query's field",
			opts: options{layer: "toolkit", query: "juxt_bird"},
			want: []string{"2 results...", `"bird"`},
		},
		{
			name: "frame prints dtypes",
			opts: options{layer: "frame", query: "juxt_bird"},
			want: []string{"dataframe sees these types:", "json:"},
		},
		{
			name:    "frame rejects a field",
			opts:    options{layer: "frame", query: "juxt_bird", field: "bird.iam"},
			wantErr: "--field is not supported with --layer frame",
		},
		{
			name:    "parquet needs the frame layer",
			opts:    options{layer: "driver", query: "juxt_bird", parquet: "out.parquet"},
			wantErr: "--parquet requires --layer frame",
		},
		{
			name:    "unknown query",
			opts:    options{layer: "driver", query: "nope"},
			wantErr: `unknown query "nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeLayer{res: birdResult()}
			l := layers{driver: fake, toolkit: fake, frames: fake}
			var buf bytes.Buffer

			err := runOne(context.Background(), l, query.NewCatalog(), probe.NewPrinter(&buf), tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("runOne() error = %v, want %q", err, tt.wantErr)
				}
				if fake.calls != 0 {
					t.Errorf("layer ran %d times after a usage error", fake.calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("runOne() error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestRunOne_LayerError(t *testing.T) {
	fake := &fakeLayer{err: errors.New("column \"matt_nums\" does not exist")}
	l := layers{driver: fake, toolkit: fake, frames: fake}

	err := runOne(context.Background(), l, query.NewCatalog(), probe.NewPrinter(&bytes.Buffer{}),
		options{layer: "toolkit", query: "join_matt_nums"})
	if err == nil || !strings.Contains(err.Error(), "matt_nums") {
		t.Errorf("runOne() error = %v, want the layer's error", err)
	}
}

func TestRunMatrix(t *testing.T) {
	failing := query.Query{Name: "join_matt_nums", ExpectFailure: true}
	working := query.Query{Name: "join_plain"}
	boom := errors.New("boom")

	tests := []struct {
		name    string
		cells   []probe.Cell
		err     error
		wantErr string
	}{
		{
			name: "expected failure passes",
			cells: []probe.Cell{
				{Query: failing, Layer: probe.LayerDriver, Err: boom},
				{Query: working, Layer: probe.LayerDriver, Rows: 2},
			},
		},
		{
			name: "unexpected failure fails",
			cells: []probe.Cell{
				{Query: working, Layer: probe.LayerToolkit, Err: boom},
			},
			wantErr: "1 unexpected outcomes: join_plain/toolkit",
		},
		{
			name: "unexpected success fails",
			cells: []probe.Cell{
				{Query: failing, Layer: probe.LayerFrame, Rows: 1},
			},
			wantErr: "1 unexpected outcomes: join_matt_nums/frame",
		},
		{
			name:    "cancelled",
			err:     context.Canceled,
			wantErr: context.Canceled.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			m := &fakeMatrix{cells: tt.cells, err: tt.err}

			err := runMatrix(context.Background(), m, query.NewCatalog(), probe.NewPrinter(&buf))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("runMatrix() unexpected error: %v", err)
				}
			} else if err == nil || err.Error() != tt.wantErr {
				t.Errorf("runMatrix() error = %v, want %q", err, tt.wantErr)
			}
			if !strings.HasPrefix(buf.String(), "QUERY") {
				t.Errorf("matrix not printed:\n%s", buf.String())
			}
		})
	}
}

func TestExtraQueries(t *testing.T) {
	got := extraQueries([]config.QueryConfig{
		{Name: "big", SQL: "SELECT 1", Field: "bird.n", ExpectFailure: true, Description: "big numbers"},
	})

	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	q := got[0]
	if q.Name != "big" || q.SQL != "SELECT 1" || q.Field != "bird.n" || !q.ExpectFailure || q.Description != "big numbers" {
		t.Errorf("extraQueries() = %+v", q)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "frame", "driver"); got != "frame" {
		t.Errorf("firstNonEmpty() = %q, want frame", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestNewLogger_Level(t *testing.T) {
	l := newLogger(config.LogConfig{Level: "warn", Format: "json"})
	if l.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	if !l.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn disabled at warn level")
	}
}
