package contract

import "context"

// ProductStore is the persistence contract for the product catalog.
// Reads may run concurrently; Add is transactional and either commits a
// complete row or leaves the store untouched.
type ProductStore interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, sel Selector) (Product, error)
	Add(ctx context.Context, fields NewProduct) (Product, error)
	Stats(ctx context.Context) (ProductStats, error)
}

// ToolProvider exposes the four named product operations behind a
// request/response boundary. Implementations must return ErrNotFound for a
// selector miss and ErrToolUnavailable for transport failures; they never
// reach into the store except through ProductStore.
type ToolProvider interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, selector string) (Product, error)
	AddProduct(ctx context.Context, fields NewProduct) (Product, error)
	GetStats(ctx context.Context) (ProductStats, error)
}

// ProductLookup is the narrow read surface the intent resolver uses to
// disambiguate product-specific discounts from generic ones.
type ProductLookup interface {
	GetProduct(ctx context.Context, selector string) (Product, error)
}
