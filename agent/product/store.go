package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

// Config describes the durable store connection and its pool limits.
type Config struct {
	// DSN is a postgres:// URL. When empty, the caller is expected to fall
	// back to the in-memory store.
	DSN            string        `envconfig:"DSN" split_words:"true"`
	PoolSize       int           `envconfig:"POOL_SIZE" split_words:"true" default:"10"`
	AcquireTimeout time.Duration `envconfig:"ACQUIRE_TIMEOUT" split_words:"true" default:"5s"`
}

// Store persists products in PostgreSQL through bun. Every operation
// explicitly acquires one pooled connection, runs at most one transaction
// on it, and releases it on all exit paths.
type Store struct {
	db             *bun.DB
	acquireTimeout time.Duration
}

var _ contractx.ProductStore = (*Store)(nil)

// NewStore opens the connection pool and verifies connectivity.
func NewStore(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: store dsn is required", contractx.ErrValidation)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	sqldb.SetMaxOpenConns(poolSize)
	sqldb.SetMaxIdleConns(poolSize)

	db := bun.NewDB(sqldb, pgdialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", contractx.ErrStoreUnavailable, err)
	}

	return &Store{db: db, acquireTimeout: acquireTimeout}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for schema bootstrap.
func (s *Store) DB() *bun.DB {
	return s.db
}

// conn acquires one pooled connection, waiting at most the configured
// acquisition timeout. Callers must Close the returned connection.
func (s *Store) conn(ctx context.Context) (bun.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	conn, err := s.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return bun.Conn{}, fmt.Errorf("%w: pool exhausted after %s", contractx.ErrStoreUnavailable, s.acquireTimeout)
		}
		if ctx.Err() != nil {
			return bun.Conn{}, fmt.Errorf("%w: %v", contractx.ErrTimeout, ctx.Err())
		}
		return bun.Conn{}, fmt.Errorf("%w: acquire connection: %v", contractx.ErrStoreUnavailable, err)
	}
	return conn, nil
}

func (s *Store) List(ctx context.Context) ([]contractx.Product, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []row
	if err := conn.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: list products: %v", contractx.ErrStoreUnavailable, err)
	}

	products := make([]contractx.Product, 0, len(rows))
	for i := range rows {
		products = append(products, rows[i].toProduct())
	}
	return products, nil
}

func (s *Store) Get(ctx context.Context, sel contractx.Selector) (contractx.Product, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return contractx.Product{}, err
	}
	defer conn.Close()

	var r row
	q := conn.NewSelect().Model(&r).Limit(1)
	if sel.Numeric {
		q = q.Where("p.id = ?", sel.ID)
	} else {
		q = q.Where("lower(p.name) = lower(?)", sel.Name)
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.Product{}, fmt.Errorf("%w: selector %q", contractx.ErrNotFound, sel.Raw)
		}
		return contractx.Product{}, fmt.Errorf("%w: get product: %v", contractx.ErrStoreUnavailable, err)
	}
	return r.toProduct(), nil
}

// Add inserts one product inside a scoped transaction. On any failure the
// transaction rolls back and the store is left exactly as before the call.
func (s *Store) Add(ctx context.Context, fields contractx.NewProduct) (contractx.Product, error) {
	if err := ValidateNew(fields); err != nil {
		return contractx.Product{}, err
	}

	conn, err := s.conn(ctx)
	if err != nil {
		return contractx.Product{}, err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return contractx.Product{}, fmt.Errorf("%w: begin tx: %v", contractx.ErrStoreUnavailable, err)
	}

	r := rowFromFields(fields)
	if _, err := tx.NewInsert().Model(r).Exec(ctx); err != nil {
		_ = tx.Rollback()
		if ctx.Err() != nil {
			return contractx.Product{}, fmt.Errorf("%w: %v", contractx.ErrTimeout, ctx.Err())
		}
		return contractx.Product{}, fmt.Errorf("%w: insert product: %v", contractx.ErrStoreUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return contractx.Product{}, fmt.Errorf("%w: commit: %v", contractx.ErrStoreUnavailable, err)
	}

	log.Debug().Int64("product_id", r.ID).Str("name", r.Name).Msg("product added")
	return r.toProduct(), nil
}

// Stats aggregates in a single statement so count and average are always
// taken from the same table version.
func (s *Store) Stats(ctx context.Context) (contractx.ProductStats, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return contractx.ProductStats{}, err
	}
	defer conn.Close()

	var stats contractx.ProductStats
	err = conn.NewSelect().
		Model((*row)(nil)).
		ColumnExpr("count(*)").
		ColumnExpr("coalesce(avg(p.price), 0)").
		ColumnExpr("coalesce(min(p.price), 0)").
		ColumnExpr("coalesce(max(p.price), 0)").
		Scan(ctx, &stats.Count, &stats.AveragePrice, &stats.MinPrice, &stats.MaxPrice)
	if err != nil {
		return contractx.ProductStats{}, fmt.Errorf("%w: stats: %v", contractx.ErrStoreUnavailable, err)
	}
	return stats, nil
}
