package nn

import (
	"context"
	"fmt"
	"io"
)

// Batch is a rank-3 tensor laid out as [sample][timestep][feature].
type Batch [][][]float64

// Shape returns (samples, timesteps, features) of the first sample. Ragged
// batches are rejected by Validate.
func (b Batch) Shape() (int, int, int) {
	if len(b) == 0 {
		return 0, 0, 0
	}
	if len(b[0]) == 0 {
		return len(b), 0, 0
	}
	return len(b), len(b[0]), len(b[0][0])
}

func (b Batch) Validate(features int) error {
	if len(b) == 0 {
		return fmt.Errorf("empty batch")
	}
	for n, seq := range b {
		if len(seq) == 0 {
			return fmt.Errorf("sample %d has no timesteps", n)
		}
		for t, step := range seq {
			if len(step) != features {
				return fmt.Errorf("sample %d step %d: expected %d features, got %d", n, t, features, len(step))
			}
		}
	}
	return nil
}

// Model maps a (n, t, f) batch to (n, 1) outputs.
type Model interface {
	Predict(x Batch) ([][]float64, error)
	Fit(ctx context.Context, x Batch, y [][]float64, opts FitOptions) (*History, error)
	Clone() Model
	Save(w io.Writer) error
	// InputWidth is the number of features per timestep the model accepts.
	InputWidth() int
}
