package domain

import (
	"context"
	"time"
)

// ProductMeta is the metadata slice of a product needed for business rules.
// RootCategory is the parent category name when the product's category has a
// parent, otherwise the category's own name.
type ProductMeta struct {
	ProductID    int64
	Brand        *string
	CategoryID   int64
	CategoryName string
	RootCategory string
}

// OrderIDBounds describes the order-id key space of an analysis window.
type OrderIDBounds struct {
	MinID int64
	MaxID int64
	Count int64
}

// Repository exposes the read-only catalog queries the engine depends on.
type Repository interface {
	// ActiveProductMeta returns metadata for every active product, keyed by id.
	ActiveProductMeta(ctx context.Context) (map[int64]ProductMeta, error)

	// CountLineItems counts order line items in qualifying orders within the window.
	CountLineItems(ctx context.Context, start, end time.Time) (int64, error)

	// OrderBounds returns the order-id range of qualifying orders within the window.
	OrderBounds(ctx context.Context, start, end time.Time) (OrderIDBounds, error)
}
