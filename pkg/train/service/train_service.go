package service

import (
	"context"

	"github.com/pkg/errors"

	"cropyield/entities"
	"cropyield/pkg/artifact"
	"cropyield/pkg/nn"
)

// MaxBatchSize caps the mini-batch size of every fit.
const MaxBatchSize = 16

var ErrEmptyTrainingSet = errors.New("training data must include at least one record")

// TrainingError wraps whatever made a fit fail. Its message is the cause's.
type TrainingError struct{ Err error }

func (e *TrainingError) Error() string { return e.Err.Error() }
func (e *TrainingError) Unwrap() error { return e.Err }

type Options struct {
	// BatchSizeHint may lower the batch size below min(n, 16); it never raises it.
	BatchSizeHint int
	Source        string
	// MarkTrained lists record ids to flag once the snapshot is committed.
	MarkTrained []uint
}

type Result struct {
	RunID     string
	Records   int
	BatchSize int
	Snapshot  *artifact.Snapshot
	History   *nn.History
	Marked    int64
}

type TrainService interface {
	Train(ctx context.Context, records []entities.TrainingInput, opts Options) (*Result, error)
}

// EffectiveBatchSize is min(n, 16), lowered further by a positive hint.
func EffectiveBatchSize(n, hint int) int {
	b := min(n, MaxBatchSize)
	if hint > 0 && hint < b {
		b = hint
	}
	return b
}
