package product

import (
	"fmt"
	"math"
	"strings"

	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

// row is the bun mapping of the products table.
type row struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID       int64   `bun:"id,pk,autoincrement"`
	Name     string  `bun:"name,notnull"`
	Price    float64 `bun:"price,notnull"`
	Category string  `bun:"category,notnull"`
	InStock  bool    `bun:"in_stock,notnull,default:true"`
}

func (r *row) toProduct() contractx.Product {
	return contractx.Product{
		ID:       r.ID,
		Name:     r.Name,
		Price:    r.Price,
		Category: r.Category,
		InStock:  r.InStock,
	}
}

func rowFromFields(fields contractx.NewProduct) *row {
	return &row{
		Name:     fields.Name,
		Price:    fields.Price,
		Category: fields.Category,
		InStock:  fields.InStock,
	}
}

// ValidateNew checks the caller-supplied fields before any store touches
// them. Price must be a finite, non-negative number and the name non-empty.
func ValidateNew(fields contractx.NewProduct) error {
	if strings.TrimSpace(fields.Name) == "" {
		return fmt.Errorf("%w: product name is required", contractx.ErrValidation)
	}
	if math.IsNaN(fields.Price) || math.IsInf(fields.Price, 0) {
		return fmt.Errorf("%w: price must be a finite number", contractx.ErrValidation)
	}
	if fields.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", contractx.ErrValidation)
	}
	if strings.TrimSpace(fields.Category) == "" {
		return fmt.Errorf("%w: category is required", contractx.ErrValidation)
	}
	return nil
}
