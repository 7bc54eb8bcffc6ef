// sqlprobe runs fixed SQL statements through three PostgreSQL access layers
// and prints what each one returns.
// Usage: go run ./cmd/sqlprobe --layer frame --query juxt_bird
//
// Connection settings come from --config (YAML) or fall back to a local test
// database. A .env file in the working directory is loaded first.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/rickgao/sqlprobe/internal/config"
	"github.com/rickgao/sqlprobe/internal/database"
	"github.com/rickgao/sqlprobe/internal/probe"
	"github.com/rickgao/sqlprobe/internal/query"
	"github.com/rickgao/sqlprobe/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to a local test database)")
	layerName := flag.String("layer", "", "access layer: driver, toolkit or frame")
	queryName := flag.String("query", "", "name of the query to run")
	field := flag.String("field", "", "dotted path printed per row, e.g. bird.iam")
	parquetPath := flag.String("parquet", "", "write the frame to this parquet file (frame layer)")
	matrix := flag.Bool("matrix", false, "run every query through every layer")
	list := flag.Bool("list", false, "list the available queries and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log).With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	catalog := query.NewCatalog(extraQueries(cfg.Queries)...)
	printer := probe.NewPrinter(os.Stdout)

	if *list {
		if err := printer.PrintCatalog(catalog.All()); err != nil {
			logger.Error("failed to print catalog", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Debug("starting sqlprobe", "version", version.Version, "commit", version.Commit)
	logger.Info("connecting to database", "dsn", database.Redacted(cfg.Database))

	handles, err := database.Open(ctx, cfg.Database, cfg.Probe.Echo, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner := newRunner(handles, cfg, logger)

	if *matrix {
		err = runMatrix(ctx, runner, catalog, printer)
	} else {
		l := layers{driver: runner.Driver, toolkit: runner.Toolkit, frames: runner.Frames}
		err = runOne(ctx, l, catalog, printer, options{
			layer:   firstNonEmpty(*layerName, cfg.Probe.DefaultLayer),
			query:   firstNonEmpty(*queryName, cfg.Probe.DefaultQuery),
			field:   *field,
			parquet: *parquetPath,
		})
	}

	handles.Close()

	if err != nil {
		logger.Error("probe failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	layer   string
	query   string
	field   string
	parquet string
}

type resultRunner interface {
	Run(ctx context.Context, q query.Query) (*probe.Result, error)
}

type frameLoader interface {
	Load(ctx context.Context, q query.Query) (*probe.Frame, error)
}

type matrixRunner interface {
	Matrix(ctx context.Context, layers []probe.Layer, queries []query.Query) ([]probe.Cell, error)
}

// layers holds one implementation per access layer.
type layers struct {
	driver  resultRunner
	toolkit resultRunner
	frames  frameLoader
}

func newRunner(h *database.Handles, cfg *config.ProbeConfig, logger *slog.Logger) *probe.Runner {
	driver := probe.NewDriver(h.Pool, cfg.Probe.Timeout, logger)
	toolkit := probe.NewToolkit(h.Gorm, cfg.Probe.Timeout, logger)
	frames := probe.NewFrameLoader(toolkit, logger)
	return probe.NewRunner(driver, toolkit, frames, logger)
}

func runOne(ctx context.Context, l layers, catalog *query.Catalog, p *probe.Printer, opts options) error {
	layer, err := probe.ParseLayer(opts.layer)
	if err != nil {
		return err
	}
	q, err := catalog.Get(opts.query)
	if err != nil {
		return err
	}

	if opts.parquet != "" && layer != probe.LayerFrame {
		return errors.New("--parquet requires --layer frame")
	}
	if opts.field != "" && layer == probe.LayerFrame {
		return errors.New("--field is not supported with --layer frame")
	}

	switch layer {
	case probe.LayerDriver, probe.LayerToolkit:
		run := l.driver
		if layer == probe.LayerToolkit {
			run = l.toolkit
		}
		res, err := run.Run(ctx, q)
		if err != nil {
			return err
		}
		if field := firstNonEmpty(opts.field, q.Field); field != "" {
			return p.PrintField(res, field)
		}
		return p.PrintRows(res)

	case probe.LayerFrame:
		f, err := l.frames.Load(ctx, q)
		if err != nil {
			return err
		}
		if err := p.PrintFrame(f); err != nil {
			return err
		}
		if opts.parquet != "" {
			return writeParquet(f, opts.parquet)
		}
		return nil
	}

	return fmt.Errorf("unknown layer %q", layer)
}

func runMatrix(ctx context.Context, r matrixRunner, catalog *query.Catalog, p *probe.Printer) error {
	cells, err := r.Matrix(ctx, probe.Layers(), catalog.All())
	if printErr := p.PrintMatrix(cells); printErr != nil {
		return printErr
	}
	if err != nil {
		return err
	}

	var unexpected []string
	for _, c := range cells {
		if !c.AsExpected() {
			unexpected = append(unexpected, c.Query.Name+"/"+string(c.Layer))
		}
	}
	if len(unexpected) > 0 {
		return fmt.Errorf("%d unexpected outcomes: %s", len(unexpected), strings.Join(unexpected, ", "))
	}
	return nil
}

func writeParquet(f *probe.Frame, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	if err := f.WriteParquet(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	slog.Info("frame written", "path", path, "rows", f.Nrow())
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	// Logs go to stderr so stdout carries only probe output.
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func extraQueries(cfgs []config.QueryConfig) []query.Query {
	out := make([]query.Query, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, query.Query{
			Name:          c.Name,
			SQL:           c.SQL,
			Description:   c.Description,
			Field:         c.Field,
			ExpectFailure: c.ExpectFailure,
		})
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
