package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rickgao/sqlprobe/internal/config"
)

// Handles holds the database handles for one probe run.
type Handles struct {
	// Pool backs the driver layer.
	Pool *pgxpool.Pool

	// Gorm backs the toolkit and frame layers.
	Gorm *gorm.DB
}

// Open connects both handles. echo routes the SQL issued through gorm to logger.
func Open(ctx context.Context, cfg config.DBConfig, echo bool, logger *slog.Logger) (*Handles, error) {
	pool, err := Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect driver: %w", err)
	}

	db, err := OpenGorm(ctx, cfg, NewGormLogger(logger, echo))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect toolkit: %w", err)
	}

	return &Handles{
		Pool: pool,
		Gorm: db,
	}, nil
}

// Connect creates a pgx connection pool. When cfg.NativeHstore is set, every
// new connection registers the hstore type so values decode to maps.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	if cfg.NativeHstore {
		poolCfg.AfterConnect = RegisterHstore
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// RegisterHstore loads the hstore extension type into the connection's type map.
func RegisterHstore(ctx context.Context, conn *pgx.Conn) error {
	t, err := conn.LoadType(ctx, "hstore")
	if err != nil {
		return fmt.Errorf("load hstore type: %w", err)
	}
	conn.TypeMap().RegisterType(t)
	return nil
}

// OpenGorm opens a gorm DB over the pgx stdlib driver.
func OpenGorm(ctx context.Context, cfg config.DBConfig, log gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(BuildConnString(cfg)), &gorm.Config{
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Close closes both handles.
func (h *Handles) Close() {
	if h.Pool != nil {
		h.Pool.Close()
	}
	if h.Gorm != nil {
		if sqlDB, err := h.Gorm.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
