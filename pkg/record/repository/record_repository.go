package repository

import (
	"context"

	"cropyield/entities"
)

type RecordRepository interface {
	Create(ctx context.Context, r *entities.Record) error
	BulkCreate(ctx context.Context, rs []entities.Record) error
	// Untrained returns every record not yet consumed by a successful fit,
	// oldest first.
	Untrained(ctx context.Context) ([]entities.Record, error)
	// MarkTrained flips is_trained for the given ids and reports how many rows
	// changed. It never sets the flag back to false.
	MarkTrained(ctx context.Context, ids []uint) (int64, error)
}
