package repositoryImp

import (
	"context"

	"gorm.io/gorm"

	"cropyield/entities"
	"cropyield/pkg/record/repository"
)

// markChunk keeps IN lists under sqlite's bound parameter limit.
const markChunk = 500

type recordRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.RecordRepository { return &recordRepo{db} }

func (r *recordRepo) Create(ctx context.Context, rec *entities.Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *recordRepo) BulkCreate(ctx context.Context, rs []entities.Record) error {
	if len(rs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&rs, 200).Error
}

func (r *recordRepo) Untrained(ctx context.Context) ([]entities.Record, error) {
	out := []entities.Record{}
	if err := r.db.WithContext(ctx).Where("is_trained = ?", false).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recordRepo) MarkTrained(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(ids); start += markChunk {
			end := min(start+markChunk, len(ids))
			res := tx.Model(&entities.Record{}).
				Where("id IN ? AND is_trained = ?", ids[start:end], false).
				Update("is_trained", true)
			if res.Error != nil {
				return res.Error
			}
			n += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
