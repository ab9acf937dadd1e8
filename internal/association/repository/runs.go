package repository

import (
	"context"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	"gorm.io/gorm"
)

type runStore struct {
	db *gorm.DB
}

func ProvideRunStore(db *gorm.DB) associationdomain.RunStore {
	return &runStore{db: db}
}

func (s *runStore) Create(ctx context.Context, run *associationdomain.AssociationRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *runStore) Finish(ctx context.Context, run *associationdomain.AssociationRun) error {
	return s.db.WithContext(ctx).
		Model(&associationdomain.AssociationRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"stats":       run.Stats,
			"error":       run.Error,
			"finished_at": run.FinishedAt,
		}).Error
}
