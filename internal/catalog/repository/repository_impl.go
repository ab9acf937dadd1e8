package repository

import (
	"context"
	"time"

	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
	"gorm.io/gorm"
)

type catalogRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) catalogdomain.Repository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) ActiveProductMeta(ctx context.Context) (map[int64]catalogdomain.ProductMeta, error) {
	var rows []catalogdomain.ProductMeta
	err := r.db.WithContext(ctx).Raw(
		`SELECT p.id AS product_id,
		        p.brand,
		        p.category_id,
		        c.name AS category_name,
		        COALESCE(parent.name, c.name) AS root_category
		 FROM products p
		 JOIN categories c ON p.category_id = c.id
		 LEFT JOIN categories parent ON c.parent_id = parent.id
		 WHERE p.active = ?`,
		true,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	meta := make(map[int64]catalogdomain.ProductMeta, len(rows))
	for _, row := range rows {
		meta[row.ProductID] = row
	}
	return meta, nil
}

func (r *catalogRepo) CountLineItems(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&catalogdomain.OrderItem{}).
		Joins("JOIN orders o ON order_items.order_id = o.id").
		Where("o.placed_at >= ? AND o.placed_at <= ?", start, end).
		Where("o.status IN ?", catalogdomain.SuccessfulOrderStatuses()).
		Count(&count).Error
	return count, err
}

func (r *catalogRepo) OrderBounds(ctx context.Context, start, end time.Time) (catalogdomain.OrderIDBounds, error) {
	var bounds catalogdomain.OrderIDBounds
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(MIN(id), 0) AS min_id,
		        COALESCE(MAX(id), 0) AS max_id,
		        COUNT(*) AS count
		 FROM orders
		 WHERE placed_at >= ? AND placed_at <= ?
		   AND status IN ?`,
		start, end, catalogdomain.SuccessfulOrderStatuses(),
	).Scan(&bounds).Error
	return bounds, err
}
