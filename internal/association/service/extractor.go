package service

import (
	"context"
	"time"

	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
	"gorm.io/gorm"
)

type lineRow struct {
	OrderID   int64
	ProductID int64
	PlacedAt  time.Time
}

// orderLines is one qualifying order with its distinct products.
type orderLines struct {
	orderID  int64
	placedAt time.Time
	products []int64
}

// streamOrders scans qualifying line items in the window ordered by order
// id, regrouping rows per order and invoking fn once per order. The scan
// is a plain ordered query, so re-running it over an unchanged window
// yields the same groups.
func streamOrders(ctx context.Context, db *gorm.DB, start, end time.Time, fn func(order orderLines) error) error {
	rows, err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT oi.order_id, oi.product_id, o.placed_at
		 FROM order_items oi
		 JOIN orders o ON oi.order_id = o.id
		 WHERE o.placed_at >= ? AND o.placed_at <= ?
		   AND o.status IN ?
		 ORDER BY oi.order_id, oi.product_id`,
		start, end, catalogdomain.SuccessfulOrderStatuses(),
	).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	var current orderLines
	flush := func() error {
		if current.orderID == 0 || len(current.products) < 2 {
			// Single-product orders contribute no pairs.
			return nil
		}
		return fn(current)
	}

	for rows.Next() {
		var row lineRow
		if err := db.ScanRows(rows, &row); err != nil {
			return err
		}
		if row.OrderID != current.orderID {
			if err := flush(); err != nil {
				return err
			}
			current = orderLines{orderID: row.OrderID, placedAt: row.PlacedAt}
		}
		current.products = append(current.products, row.ProductID)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return flush()
}
