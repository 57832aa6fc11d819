package repositoryImp

import (
	"context"

	"gorm.io/gorm"

	"cropyield/entities"
	"cropyield/pkg/train/repository"
)

type runRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.TrainingRunRepository { return &runRepo{db} }

func (r *runRepo) Create(ctx context.Context, run *entities.TrainingRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepo) Recent(ctx context.Context, limit int) ([]entities.TrainingRun, error) {
	out := []entities.TrainingRun{}
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
