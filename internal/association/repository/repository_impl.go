package repository

import (
	"context"
	"strings"
	"time"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type store struct {
	db        *gorm.DB
	batchSize int
}

func Provide(db *gorm.DB) associationdomain.Store {
	return &store{db: db, batchSize: 500}
}

// ProvideWithBatchSize is used by the engine to honor the configured
// write batch size.
func ProvideWithBatchSize(db *gorm.DB, batchSize int) associationdomain.Store {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &store{db: db, batchSize: batchSize}
}

func (s *store) ReplaceAll(ctx context.Context, pairs []associationdomain.Pair, calculatedAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&associationdomain.ProductAssociation{}).Error; err != nil {
			return err
		}
		rows := toRows(pairs, calculatedAt)
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, s.batchSize).Error
	})
}

func (s *store) UpsertAdd(ctx context.Context, pairs []associationdomain.Pair, calculatedAt time.Time) error {
	rows := toRows(pairs, calculatedAt)
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt := tx.Clauses(frequencyAddClause(tx, calculatedAt))
		return stmt.CreateInBatches(rows, s.batchSize).Error
	})
}

// frequencyAddClause builds the additive on-conflict assignment. The
// excluded pseudo-table is postgres/sqlite syntax; mysql reads the
// incoming row through VALUES().
func frequencyAddClause(db *gorm.DB, calculatedAt time.Time) clause.OnConflict {
	add := gorm.Expr("product_associations.frequency_count + excluded.frequency_count")
	if db != nil && strings.EqualFold(db.Dialector.Name(), "mysql") {
		add = gorm.Expr("frequency_count + VALUES(frequency_count)")
	}
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "product_a_id"}, {Name: "product_b_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"frequency_count": add,
			"last_calculated": calculatedAt,
		}),
	}
}

func (s *store) Prune(ctx context.Context, minSupport int64) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("frequency_count < ?", minSupport).
		Delete(&associationdomain.ProductAssociation{})
	return result.RowsAffected, result.Error
}

func (s *store) CleanupStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("last_calculated < ?", cutoff).
		Delete(&associationdomain.ProductAssociation{})
	return result.RowsAffected, result.Error
}

func (s *store) ListByFrequency(ctx context.Context) ([]associationdomain.ProductAssociation, error) {
	var rows []associationdomain.ProductAssociation
	err := s.db.WithContext(ctx).
		Order("frequency_count DESC, product_a_id ASC, product_b_id ASC").
		Find(&rows).Error
	return rows, err
}

func (s *store) DeletePairs(ctx context.Context, keys []associationdomain.PairKey) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(keys); start += s.batchSize {
			end := start + s.batchSize
			if end > len(keys) {
				end = len(keys)
			}
			pairs := make([][]int64, 0, end-start)
			for _, key := range keys[start:end] {
				pairs = append(pairs, []int64{key.ProductAID, key.ProductBID})
			}
			result := tx.Where("(product_a_id, product_b_id) IN ?", pairs).
				Delete(&associationdomain.ProductAssociation{})
			if result.Error != nil {
				return result.Error
			}
			removed += result.RowsAffected
		}
		return nil
	})
	return removed, err
}

func (s *store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&associationdomain.ProductAssociation{}).
		Count(&count).Error
	return count, err
}

func toRows(pairs []associationdomain.Pair, calculatedAt time.Time) []associationdomain.ProductAssociation {
	rows := make([]associationdomain.ProductAssociation, 0, len(pairs))
	for _, pair := range pairs {
		last := pair.LastOrderAt
		if last.IsZero() {
			last = calculatedAt
		}
		rows = append(rows, associationdomain.ProductAssociation{
			ProductAID:     pair.ProductAID,
			ProductBID:     pair.ProductBID,
			FrequencyCount: pair.Frequency,
			LastCalculated: last,
		})
	}
	return rows
}
