// Package provider exposes the product operations as named tools behind a
// request/response boundary. Server executes them against the store and is
// the in-process adapter used by tests; Client reaches a Server over HTTP
// and is the production adapter.
package provider

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

// The four named operations of the tool provider boundary.
const (
	OpListProducts = "list_products"
	OpGetProduct   = "get_product"
	OpAddProduct   = "add_product"
	OpGetStats     = "get_stats"
)

// Ops returns the operation names in a stable order.
func Ops() []string {
	return []string{OpListProducts, OpGetProduct, OpAddProduct, OpGetStats}
}

// Server implements the tool operations directly against a ProductStore.
type Server struct {
	store contractx.ProductStore
}

var _ contractx.ToolProvider = (*Server)(nil)

func NewServer(store contractx.ProductStore) (*Server, error) {
	if store == nil {
		return nil, errors.New("product store is required")
	}
	return &Server{store: store}, nil
}

func (s *Server) ListProducts(ctx context.Context) ([]contractx.Product, error) {
	log.Debug().Str("op", OpListProducts).Msg("tool invoked")
	return s.store.List(ctx)
}

func (s *Server) GetProduct(ctx context.Context, selector string) (contractx.Product, error) {
	log.Debug().Str("op", OpGetProduct).Str("selector", selector).Msg("tool invoked")
	return s.store.Get(ctx, contractx.ParseSelector(selector))
}

func (s *Server) AddProduct(ctx context.Context, fields contractx.NewProduct) (contractx.Product, error) {
	log.Debug().Str("op", OpAddProduct).Str("name", fields.Name).Msg("tool invoked")
	return s.store.Add(ctx, fields)
}

func (s *Server) GetStats(ctx context.Context) (contractx.ProductStats, error) {
	log.Debug().Str("op", OpGetStats).Msg("tool invoked")
	return s.store.Stats(ctx)
}
