package nn

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

const (
	MonitorValLoss = "val_loss"
	MonitorLoss    = "loss"
)

type FitOptions struct {
	Epochs          int
	BatchSize       int
	ValidationSplit float64
	// Patience is the number of epochs without improvement of the monitored
	// loss before training stops. Zero disables early stopping.
	Patience           int
	RestoreBestWeights bool
	LearningRate       float64
	// Seed drives shuffling; zero picks a time based seed.
	Seed int64
}

type History struct {
	Loss    []float64 `json:"loss"`
	ValLoss []float64 `json:"val_loss,omitempty"`

	Monitor      string  `json:"monitor"`
	BestEpoch    int     `json:"best_epoch"`
	BestLoss     float64 `json:"best_loss"`
	StoppedEarly bool    `json:"stopped_early"`
	TrainSamples int     `json:"train_samples"`
	ValSamples   int     `json:"val_samples"`
	BatchSize    int     `json:"batch_size"`
}

// Epochs is the number of epochs actually run.
func (h *History) Epochs() int { return len(h.Loss) }

// Monitored returns the series early stopping watched.
func (h *History) Monitored() []float64 {
	if h.Monitor == MonitorValLoss {
		return h.ValLoss
	}
	return h.Loss
}

// splitValidation holds out the trailing fraction of samples, before any
// shuffling. When either side would be empty every sample is used for
// training and nothing is held out.
func splitValidation(n int, split float64) (train, val []int) {
	at := n
	if split > 0 && split < 1 {
		at = int(math.Floor(float64(n) * (1 - split)))
	}
	if at <= 0 || at >= n {
		at = n
	}
	train = make([]int, at)
	for i := range train {
		train[i] = i
	}
	for i := at; i < n; i++ {
		val = append(val, i)
	}
	return train, val
}

func fit(ctx context.Context, m *LSTM, x Batch, y [][]float64, opts FitOptions) (*History, error) {
	if err := x.Validate(m.InputSize); err != nil {
		return nil, errors.Wrap(err, "fit")
	}
	if len(y) != len(x) {
		return nil, errors.Errorf("fit: %d samples but %d targets", len(x), len(y))
	}
	for n, t := range y {
		if len(t) != 1 {
			return nil, errors.Errorf("fit: target %d has %d columns, expected 1", n, len(t))
		}
	}
	if opts.Epochs <= 0 {
		return nil, errors.New("fit: epochs must be positive")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	trainIdx, valIdx := splitValidation(len(x), opts.ValidationSplit)
	hist := &History{
		Monitor:      MonitorLoss,
		BestEpoch:    -1,
		BestLoss:     math.Inf(1),
		TrainSamples: len(trainIdx),
		ValSamples:   len(valIdx),
		BatchSize:    opts.BatchSize,
	}
	if len(valIdx) > 0 {
		hist.Monitor = MonitorValLoss
	}

	opt := NewAdam(opts.LearningRate)
	params := m.params()
	var best *LSTM
	wait := 0

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })

		var lossSum float64
		for start := 0; start < len(trainIdx); start += opts.BatchSize {
			if err := ctx.Err(); err != nil {
				return hist, err
			}
			end := start + opts.BatchSize
			if end > len(trainIdx) {
				end = len(trainIdx)
			}
			grad := zeroLSTM(m.InputSize, m.HiddenSize)
			size := float64(end - start)
			var batchLoss float64
			for _, n := range trainIdx[start:end] {
				p, caches, hLast := m.forward(x[n])
				d := p - y[n][0]
				batchLoss += d * d
				m.backward(grad, caches, hLast, 2*d/size)
			}
			opt.Step(params, grad.params())
			lossSum += batchLoss
		}
		hist.Loss = append(hist.Loss, lossSum/float64(len(trainIdx)))

		current := hist.Loss[epoch]
		if len(valIdx) > 0 {
			current = m.mse(x, y, valIdx)
			hist.ValLoss = append(hist.ValLoss, current)
		}
		if math.IsNaN(current) || math.IsInf(current, 0) {
			return hist, errors.Errorf("fit: loss diverged at epoch %d", epoch+1)
		}

		if current < hist.BestLoss {
			hist.BestLoss = current
			hist.BestEpoch = epoch
			wait = 0
			if opts.RestoreBestWeights {
				best = m.clone()
			}
			continue
		}
		wait++
		if opts.Patience > 0 && wait >= opts.Patience {
			hist.StoppedEarly = true
			break
		}
	}

	if best != nil {
		m.copyFrom(best)
	}
	return hist, nil
}
