package product

import (
	"context"
	"fmt"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

// MemStore is an in-memory ProductStore with the same transactional
// contract as the durable one: reads run concurrently under a shared lock,
// writes are serialized and either commit a complete row or nothing.
// It backs tests and standalone runs without a database.
type MemStore struct {
	mu     sync.RWMutex
	rows   []contractx.Product
	nextID int64

	// commitFault, when set, is invoked after validation but before the
	// row becomes visible; an error aborts the write. Test hook only.
	commitFault func() error
}

var _ contractx.ProductStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{nextID: 1}
}

func (m *MemStore) List(ctx context.Context) ([]contractx.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrTimeout, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]contractx.Product, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *MemStore) Get(ctx context.Context, sel contractx.Selector) (contractx.Product, error) {
	if err := ctx.Err(); err != nil {
		return contractx.Product{}, fmt.Errorf("%w: %v", contractx.ErrTimeout, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.rows {
		if sel.Numeric && p.ID == sel.ID {
			return p, nil
		}
		if !sel.Numeric && strings.EqualFold(p.Name, sel.Name) {
			return p, nil
		}
	}
	return contractx.Product{}, fmt.Errorf("%w: selector %q", contractx.ErrNotFound, sel.Raw)
}

func (m *MemStore) Add(ctx context.Context, fields contractx.NewProduct) (contractx.Product, error) {
	if err := ValidateNew(fields); err != nil {
		return contractx.Product{}, err
	}
	if err := ctx.Err(); err != nil {
		return contractx.Product{}, fmt.Errorf("%w: %v", contractx.ErrTimeout, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.commitFault != nil {
		if err := m.commitFault(); err != nil {
			return contractx.Product{}, fmt.Errorf("%w: %v", contractx.ErrStoreUnavailable, err)
		}
	}

	p := contractx.Product{
		ID:       m.nextID,
		Name:     fields.Name,
		Price:    fields.Price,
		Category: fields.Category,
		InStock:  fields.InStock,
	}
	m.nextID++
	m.rows = append(m.rows, p)
	return p, nil
}

// Stats computes all aggregates under one read lock, so count and average
// always describe the same snapshot.
func (m *MemStore) Stats(ctx context.Context) (contractx.ProductStats, error) {
	if err := ctx.Err(); err != nil {
		return contractx.ProductStats{}, fmt.Errorf("%w: %v", contractx.ErrTimeout, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := contractx.ProductStats{Count: int64(len(m.rows))}
	if stats.Count == 0 {
		return stats, nil
	}

	var total float64
	stats.MinPrice = m.rows[0].Price
	stats.MaxPrice = m.rows[0].Price
	for _, p := range m.rows {
		total += p.Price
		if p.Price < stats.MinPrice {
			stats.MinPrice = p.Price
		}
		if p.Price > stats.MaxPrice {
			stats.MaxPrice = p.Price
		}
	}
	stats.AveragePrice = total / float64(stats.Count)
	return stats, nil
}
