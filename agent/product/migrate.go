package product

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

//go:embed products.json
var seedRaw []byte

// Migrate creates the products table when it does not exist yet. Invoked
// once at process start, before any query is served.
func Migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*row)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create products table: %v", contractx.ErrStoreUnavailable, err)
	}
	return nil
}

// Seed loads the embedded catalog into an empty store. All rows go through
// the store's transactional write path; a non-empty store is left alone.
func Seed(ctx context.Context, store contractx.ProductStore) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.Count > 0 {
		return nil
	}

	var fields []contractx.NewProduct
	if err := json.Unmarshal(seedRaw, &fields); err != nil {
		return fmt.Errorf("%w: decode seed data: %v", contractx.ErrValidation, err)
	}

	for _, f := range fields {
		if _, err := store.Add(ctx, f); err != nil {
			return err
		}
	}

	log.Info().Int("products", len(fields)).Msg("seeded empty catalog")
	return nil
}
