// Package intent turns free text into a typed intent. Resolution is total:
// an ordered table of recognizers is evaluated most-specific first, and
// text nothing matches becomes Unrecognized rather than an error.
package intent

import (
	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

type Kind string

const (
	KindListProducts      Kind = "list_products"
	KindGetProduct        Kind = "get_product"
	KindAddProduct        Kind = "add_product"
	KindStats             Kind = "get_stats"
	KindCalculateDiscount Kind = "calculate_discount"
	KindProductDiscount   Kind = "product_discount"
	KindCalculate         Kind = "calculate"
	KindFormatText        Kind = "format_text"
	KindUnrecognized      Kind = "unrecognized"
)

// Intent is a tagged value: exactly one concrete kind per resolved query.
// Constructed once by the resolver, consumed once by dispatch, never
// persisted.
type Intent interface {
	Kind() Kind
}

type ListProducts struct{}

func (ListProducts) Kind() Kind { return KindListProducts }

type GetProduct struct {
	Selector contractx.Selector
}

func (GetProduct) Kind() Kind { return KindGetProduct }

type AddProduct struct {
	Name     string
	Price    float64
	Category string
	InStock  bool
}

func (AddProduct) Kind() Kind { return KindAddProduct }

type Stats struct{}

func (Stats) Kind() Kind { return KindStats }

// CalculateDiscount is the generic form: a discount on a bare number.
type CalculateDiscount struct {
	Amount  float64
	Percent float64
}

func (CalculateDiscount) Kind() Kind { return KindCalculateDiscount }

// ProductDiscount is a discount on a product known to exist at resolve
// time; dispatch re-fetches it by selector for the current price.
type ProductDiscount struct {
	Selector contractx.Selector
	Percent  float64
}

func (ProductDiscount) Kind() Kind { return KindProductDiscount }

type Calculate struct {
	Expression string
}

func (Calculate) Kind() Kind { return KindCalculate }

type FormatText struct {
	Text  string
	Style string
}

func (FormatText) Kind() Kind { return KindFormatText }

type Unrecognized struct {
	RawText string
}

func (Unrecognized) Kind() Kind { return KindUnrecognized }
