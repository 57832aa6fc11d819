package service

import (
	"context"

	"cropyield/entities"
)

// PredictionError wraps whatever made a prediction fail. Its message is the
// cause's.
type PredictionError struct{ Err error }

func (e *PredictionError) Error() string { return e.Err.Error() }
func (e *PredictionError) Unwrap() error { return e.Err }

type PredictService interface {
	Predict(ctx context.Context, in entities.PredictionInput) (float64, error)
}
