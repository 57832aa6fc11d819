package repository

import (
	"context"

	"cropyield/entities"
)

type TrainingRunRepository interface {
	Create(ctx context.Context, run *entities.TrainingRun) error
	Recent(ctx context.Context, limit int) ([]entities.TrainingRun, error)
}
