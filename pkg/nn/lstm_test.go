package nn

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearDataset(n int, seed int64) (Batch, [][]float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make(Batch, n)
	y := make([][]float64, n)
	for i := range x {
		row := make([]float64, 6)
		for j := range row {
			row[j] = rng.Float64()*2 - 1
		}
		x[i] = [][]float64{row}
		y[i] = []float64{0.5*row[0] - 0.3*row[1] + 0.2*row[5]}
	}
	return x, y
}

func TestLSTM_Predict(t *testing.T) {
	m := NewLSTM(6, 4, 1)

	t.Run("it returns one scalar per sample", func(t *testing.T) {
		x, _ := linearDataset(3, 2)
		out, err := m.Predict(x)
		require.NoError(t, err)
		require.Len(t, out, 3)
		for _, o := range out {
			assert.Len(t, o, 1)
		}
	})

	t.Run("it is deterministic for the same weights", func(t *testing.T) {
		x, _ := linearDataset(5, 3)
		a, err := m.Predict(x)
		require.NoError(t, err)
		b, err := m.Predict(x)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("it rejects a wrong feature count", func(t *testing.T) {
		_, err := m.Predict(Batch{{{1, 2, 3}}})
		assert.Error(t, err)
	})

	t.Run("it rejects an empty batch", func(t *testing.T) {
		_, err := m.Predict(Batch{})
		assert.Error(t, err)
	})
}

func TestLSTM_BackwardMatchesFiniteDifference(t *testing.T) {
	m := NewLSTM(3, 2, 7)
	seq := [][]float64{{0.3, -0.2, 0.9}, {-0.5, 0.4, 0.1}}
	target := 0.25

	loss := func() float64 {
		p, _, _ := m.forward(seq)
		return (p - target) * (p - target)
	}

	grad := zeroLSTM(3, 2)
	p, caches, hLast := m.forward(seq)
	m.backward(grad, caches, hLast, 2*(p-target))

	params := m.params()
	grads := grad.params()
	const eps = 1e-6
	for i := range params {
		for j := range params[i] {
			orig := params[i][j]
			params[i][j] = orig + eps
			up := loss()
			params[i][j] = orig - eps
			down := loss()
			params[i][j] = orig
			numeric := (up - down) / (2 * eps)
			assert.InDelta(t, numeric, grads[i][j], 1e-6, "param %d/%d", i, j)
		}
	}
}

func TestLSTM_SaveLoad(t *testing.T) {
	m := NewLSTM(6, 5, 11)
	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	loaded, err := LoadLSTM(&buf)
	require.NoError(t, err)

	x, _ := linearDataset(4, 5)
	want, err := m.Predict(x)
	require.NoError(t, err)
	got, err := loaded.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("it rejects an unknown format", func(t *testing.T) {
		_, err := LoadLSTM(bytes.NewBufferString(`{"format":"keras-h5","input_size":6,"hidden_size":2}`))
		assert.Error(t, err)
	})

	t.Run("it rejects truncated weights", func(t *testing.T) {
		_, err := LoadLSTM(bytes.NewBufferString(`{"format":"lstm-regressor/v1","input_size":6,"hidden_size":2,"kernel":[[0]]}`))
		assert.Error(t, err)
	})
}

func TestLSTM_CloneIsIndependent(t *testing.T) {
	m := NewLSTM(6, 3, 3)
	c := m.Clone().(*LSTM)
	c.DenseB[0] += 10

	x, _ := linearDataset(1, 1)
	a, _ := m.Predict(x)
	b, _ := c.Predict(x)
	assert.InDelta(t, 10, b[0][0]-a[0][0], 1e-9)
}

func TestSplitValidation(t *testing.T) {
	for _, tc := range []struct {
		n, train, val int
	}{
		{n: 1, train: 1, val: 0},
		{n: 2, train: 1, val: 1},
		{n: 3, train: 2, val: 1},
		{n: 10, train: 8, val: 2},
		{n: 16, train: 12, val: 4},
	} {
		train, val := splitValidation(tc.n, 0.2)
		assert.Len(t, train, tc.train, "n=%d", tc.n)
		assert.Len(t, val, tc.val, "n=%d", tc.n)
		if tc.val > 0 {
			assert.Equal(t, tc.n-1, val[len(val)-1], "validation takes the trailing samples")
		}
	}
}

func TestFit(t *testing.T) {
	ctx := context.Background()

	t.Run("it lowers the training error", func(t *testing.T) {
		x, y := linearDataset(60, 21)
		m := NewLSTM(6, 8, 5)
		all := make([]int, len(x))
		for i := range all {
			all[i] = i
		}
		before := m.mse(x, y, all)

		hist, err := m.Fit(ctx, x, y, FitOptions{
			Epochs: 50, BatchSize: 16, ValidationSplit: 0.2,
			Patience: 5, RestoreBestWeights: true, LearningRate: 0.01, Seed: 9,
		})
		require.NoError(t, err)
		assert.Equal(t, MonitorValLoss, hist.Monitor)
		assert.Equal(t, 48, hist.TrainSamples)
		assert.Equal(t, 12, hist.ValSamples)
		assert.Less(t, m.mse(x, y, all), before)
	})

	t.Run("it stops after patience epochs without improvement", func(t *testing.T) {
		x, y := linearDataset(10, 4)
		m := NewLSTM(6, 3, 2)
		hist, err := m.Fit(ctx, x, y, FitOptions{
			Epochs: 50, BatchSize: 4, ValidationSplit: 0.2,
			Patience: 3, RestoreBestWeights: true, LearningRate: 1e-300, Seed: 1,
		})
		require.NoError(t, err)
		assert.True(t, hist.StoppedEarly)
		assert.Equal(t, 4, hist.Epochs())
		assert.Equal(t, 0, hist.BestEpoch)
	})

	t.Run("it monitors training loss when nothing can be held out", func(t *testing.T) {
		x, y := linearDataset(1, 4)
		m := NewLSTM(6, 3, 2)
		hist, err := m.Fit(ctx, x, y, FitOptions{Epochs: 3, BatchSize: 1, ValidationSplit: 0.2, Seed: 1})
		require.NoError(t, err)
		assert.Equal(t, MonitorLoss, hist.Monitor)
		assert.Empty(t, hist.ValLoss)
		assert.Equal(t, 3, hist.Epochs())
		assert.False(t, math.IsInf(hist.BestLoss, 0))
	})

	t.Run("it stops when the context is cancelled", func(t *testing.T) {
		x, y := linearDataset(8, 4)
		m := NewLSTM(6, 3, 2)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := m.Fit(cctx, x, y, FitOptions{Epochs: 3, BatchSize: 2})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("it rejects mismatched targets", func(t *testing.T) {
		x, y := linearDataset(4, 4)
		m := NewLSTM(6, 3, 2)
		_, err := m.Fit(ctx, x, y[:3], FitOptions{Epochs: 1})
		assert.Error(t, err)
	})
}
