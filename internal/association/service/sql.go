package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
	"gorm.io/gorm"
)

// aggRow is one SQL-side aggregated pair before rounding.
type aggRow struct {
	ProductAID        int64   `gorm:"column:product_a_id"`
	ProductBID        int64   `gorm:"column:product_b_id"`
	WeightedFrequency float64 `gorm:"column:weighted_frequency"`
	UniqueOrders      int64   `gorm:"column:unique_orders"`
	LastOrderAt       sqlTime `gorm:"column:last_order_at"`
}

// sqlTime scans timestamp aggregates whose declared column type the
// driver cannot see (MAX(placed_at) AS last_order_at). Postgres and
// mysql hand back time.Time; sqlite hands back the stored text.
type sqlTime struct{ time.Time }

var sqlTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

func (t *sqlTime) Scan(v interface{}) error {
	switch val := v.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = val
		return nil
	case []byte:
		return t.parse(string(val))
	case string:
		return t.parse(val)
	}
	return fmt.Errorf("cannot scan %T into timestamp", v)
}

func (t *sqlTime) parse(s string) error {
	var err error
	for _, layout := range sqlTimeLayouts {
		var parsed time.Time
		if parsed, err = time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return err
}

// aggQuery describes one SQL-side pair aggregation. The inner SELECT
// DISTINCT deduplicates repeated line items per order and generates each
// pair exactly once via the one-directional join predicate.
type aggQuery struct {
	windowStart time.Time
	windowEnd   time.Time
	weighted    bool
	now         time.Time

	// orderRange, when set, restricts the join to one contiguous slice
	// of the order-id key space.
	orderRange *orderRange

	// minSupport > 0 filters pairs below the support threshold and
	// requires the distinct-order minimum in SQL.
	minSupport int

	// limit > 0 caps the result set, highest frequency first.
	limit int
}

// buildPairQuery renders the grouped aggregation without ordering or a
// row limit, so the same SQL serves both the fetch and the COUNT wrap.
func buildPairQuery(q aggQuery) (string, []interface{}) {
	args := make([]interface{}, 0, 10)

	weightExpr := "1.0"
	if q.weighted {
		weightExpr = strings.TrimSpace(`
			CASE
				WHEN o.placed_at >= ? THEN 2.0
				WHEN o.placed_at >= ? THEN 1.5
				WHEN o.placed_at >= ? THEN 1.2
				ELSE 1.0
			END`)
		args = append(args,
			q.now.AddDate(0, 0, -30),
			q.now.AddDate(0, 0, -90),
			q.now.AddDate(0, 0, -180),
		)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT pairs.product_a_id,
       pairs.product_b_id,
       SUM(pairs.weight) AS weighted_frequency,
       COUNT(DISTINCT pairs.order_id) AS unique_orders,
       MAX(pairs.placed_at) AS last_order_at
FROM (
    SELECT DISTINCT oi1.order_id,
           oi1.product_id AS product_a_id,
           oi2.product_id AS product_b_id,
           o.placed_at,
           `)
	sb.WriteString(weightExpr)
	sb.WriteString(` AS weight
    FROM order_items oi1
    JOIN order_items oi2 ON oi1.order_id = oi2.order_id
        AND oi1.product_id < oi2.product_id
    JOIN orders o ON oi1.order_id = o.id
    WHERE o.placed_at >= ? AND o.placed_at <= ?
      AND o.status IN ?`)
	args = append(args, q.windowStart, q.windowEnd, catalogdomain.SuccessfulOrderStatuses())

	if q.orderRange != nil {
		sb.WriteString(`
      AND oi1.order_id BETWEEN ? AND ?`)
		args = append(args, q.orderRange.start, q.orderRange.end)
	}

	sb.WriteString(`
) pairs
GROUP BY pairs.product_a_id, pairs.product_b_id`)

	if q.minSupport > 0 {
		sb.WriteString(fmt.Sprintf(`
HAVING SUM(pairs.weight) >= ? AND COUNT(DISTINCT pairs.order_id) >= %d`, minDistinctOrders))
		args = append(args, float64(q.minSupport))
	}

	return sb.String(), args
}

func aggregatePairs(ctx context.Context, db *gorm.DB, q aggQuery) ([]aggRow, error) {
	query, args := buildPairQuery(q)

	query += `
ORDER BY weighted_frequency DESC, pairs.product_a_id ASC, pairs.product_b_id ASC`

	if q.limit > 0 {
		query += `
LIMIT ?`
		args = append(args, q.limit)
	}

	var rows []aggRow
	err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error
	return rows, err
}

// countPairs reports how many pairs the aggregation would produce with
// no row limit applied.
func countPairs(ctx context.Context, db *gorm.DB, q aggQuery) (int64, error) {
	q.limit = 0
	query, args := buildPairQuery(q)

	var count int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM ("+query+") counted", args...).
		Scan(&count).Error
	return count, err
}

// toPairs rounds SQL-side weighted sums to the integer frequencies the
// store persists.
func toPairs(rows []aggRow) []associationdomain.Pair {
	pairs := make([]associationdomain.Pair, 0, len(rows))
	for _, row := range rows {
		frequency := int64(math.Round(row.WeightedFrequency))
		if frequency < 1 {
			frequency = 1
		}
		pairs = append(pairs, associationdomain.Pair{
			ProductAID:  row.ProductAID,
			ProductBID:  row.ProductBID,
			Frequency:   frequency,
			LastOrderAt: row.LastOrderAt.Time,
		})
	}
	return pairs
}
