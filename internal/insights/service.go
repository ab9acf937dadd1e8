package insights

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidLimit = errors.New("invalid_limit")

const defaultLimit = 20

// TopPair is a single association joined with product names.
type TopPair struct {
	ProductAID   int64     `gorm:"column:product_a_id" json:"product_a_id"`
	ProductAName string    `gorm:"column:product_a_name" json:"product_a_name"`
	ProductBID   int64     `gorm:"column:product_b_id" json:"product_b_id"`
	ProductBName string    `gorm:"column:product_b_name" json:"product_b_name"`
	Frequency    int64     `gorm:"column:frequency_count" json:"frequency"`
	LastActivity time.Time `gorm:"column:last_calculated" json:"last_activity"`
}

// CategoryAffinity aggregates association strength between two distinct
// categories.
type CategoryAffinity struct {
	CategoryA string `gorm:"column:category_a" json:"category_a"`
	CategoryB string `gorm:"column:category_b" json:"category_b"`
	Pairs     int64  `gorm:"column:pairs" json:"pairs"`
	Frequency int64  `gorm:"column:total_frequency" json:"total_frequency"`
}

// BrandAffinity aggregates association strength between two distinct brands.
// Pairs where either product has no brand are excluded.
type BrandAffinity struct {
	BrandA    string `gorm:"column:brand_a" json:"brand_a"`
	BrandB    string `gorm:"column:brand_b" json:"brand_b"`
	Pairs     int64  `gorm:"column:pairs" json:"pairs"`
	Frequency int64  `gorm:"column:total_frequency" json:"total_frequency"`
}

type Service interface {
	TopPairs(ctx context.Context, limit int) ([]TopPair, error)
	CategoryMatrix(ctx context.Context, limit int) ([]CategoryAffinity, error)
	BrandMatrix(ctx context.Context, limit int) ([]BrandAffinity, error)
}

type service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) Service {
	return &service{db: db, log: log.Named("insights.service")}
}

func normalizeLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, ErrInvalidLimit
	}
	if limit == 0 {
		return defaultLimit, nil
	}
	return limit, nil
}

func (s *service) TopPairs(ctx context.Context, limit int) ([]TopPair, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	var rows []TopPair
	err = s.db.WithContext(ctx).Raw(`
		SELECT pa.product_a_id,
		       a.name AS product_a_name,
		       pa.product_b_id,
		       b.name AS product_b_name,
		       pa.frequency_count,
		       pa.last_calculated
		FROM product_associations pa
		JOIN products a ON a.id = pa.product_a_id
		JOIN products b ON b.id = pa.product_b_id
		ORDER BY pa.frequency_count DESC, pa.product_a_id ASC, pa.product_b_id ASC
		LIMIT ?`, limit).Scan(&rows).Error
	return rows, err
}

func (s *service) CategoryMatrix(ctx context.Context, limit int) ([]CategoryAffinity, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	var rows []CategoryAffinity
	err = s.db.WithContext(ctx).Raw(`
		SELECT CASE WHEN ca.name < cb.name THEN ca.name ELSE cb.name END AS category_a,
		       CASE WHEN ca.name < cb.name THEN cb.name ELSE ca.name END AS category_b,
		       COUNT(*) AS pairs,
		       SUM(pa.frequency_count) AS total_frequency
		FROM product_associations pa
		JOIN products a ON a.id = pa.product_a_id
		JOIN products b ON b.id = pa.product_b_id
		JOIN categories ca ON ca.id = a.category_id
		JOIN categories cb ON cb.id = b.category_id
		WHERE ca.id <> cb.id
		GROUP BY 1, 2
		ORDER BY total_frequency DESC, category_a ASC, category_b ASC
		LIMIT ?`, limit).Scan(&rows).Error
	return rows, err
}

func (s *service) BrandMatrix(ctx context.Context, limit int) ([]BrandAffinity, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	var rows []BrandAffinity
	err = s.db.WithContext(ctx).Raw(`
		SELECT CASE WHEN a.brand < b.brand THEN a.brand ELSE b.brand END AS brand_a,
		       CASE WHEN a.brand < b.brand THEN b.brand ELSE a.brand END AS brand_b,
		       COUNT(*) AS pairs,
		       SUM(pa.frequency_count) AS total_frequency
		FROM product_associations pa
		JOIN products a ON a.id = pa.product_a_id
		JOIN products b ON b.id = pa.product_b_id
		WHERE a.brand IS NOT NULL
		  AND b.brand IS NOT NULL
		  AND a.brand <> b.brand
		GROUP BY 1, 2
		ORDER BY total_frequency DESC, brand_a ASC, brand_b ASC
		LIMIT ?`, limit).Scan(&rows).Error
	return rows, err
}
