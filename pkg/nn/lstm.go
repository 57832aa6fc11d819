package nn

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

const lstmFormat = "lstm-regressor/v1"

// LSTM is a single recurrent layer followed by a dense scalar head. Gate
// columns follow the i, f, c, o order.
type LSTM struct {
	InputSize  int `json:"input_size"`
	HiddenSize int `json:"hidden_size"`

	Kernel    [][]float64 `json:"kernel"`           // input x 4*hidden
	Recurrent [][]float64 `json:"recurrent_kernel"` // hidden x 4*hidden
	Bias      []float64   `json:"bias"`             // 4*hidden
	DenseW    []float64   `json:"dense_kernel"`     // hidden
	DenseB    []float64   `json:"dense_bias"`       // 1
}

type lstmFile struct {
	Format string `json:"format"`
	*LSTM
}

// NewLSTM returns a Glorot-initialised network with the forget gate bias set to 1.
func NewLSTM(inputSize, hiddenSize int, seed int64) *LSTM {
	rng := rand.New(rand.NewSource(seed))
	m := zeroLSTM(inputSize, hiddenSize)
	glorot(rng, m.Kernel, inputSize, 4*hiddenSize)
	glorot(rng, m.Recurrent, hiddenSize, 4*hiddenSize)
	for j := hiddenSize; j < 2*hiddenSize; j++ {
		m.Bias[j] = 1
	}
	limit := math.Sqrt(6 / float64(hiddenSize+1))
	for j := range m.DenseW {
		m.DenseW[j] = (rng.Float64()*2 - 1) * limit
	}
	return m
}

func zeroLSTM(inputSize, hiddenSize int) *LSTM {
	m := &LSTM{
		InputSize:  inputSize,
		HiddenSize: hiddenSize,
		Kernel:     make([][]float64, inputSize),
		Recurrent:  make([][]float64, hiddenSize),
		Bias:       make([]float64, 4*hiddenSize),
		DenseW:     make([]float64, hiddenSize),
		DenseB:     make([]float64, 1),
	}
	for k := range m.Kernel {
		m.Kernel[k] = make([]float64, 4*hiddenSize)
	}
	for k := range m.Recurrent {
		m.Recurrent[k] = make([]float64, 4*hiddenSize)
	}
	return m
}

func glorot(rng *rand.Rand, w [][]float64, fanIn, fanOut int) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for _, row := range w {
		for j := range row {
			row[j] = (rng.Float64()*2 - 1) * limit
		}
	}
}

// params lists every trainable slice in a fixed order; zeroLSTM of the same
// shape yields an aligned list, which is how gradients and optimizer moments
// are laid out.
func (m *LSTM) params() [][]float64 {
	out := make([][]float64, 0, len(m.Kernel)+len(m.Recurrent)+3)
	out = append(out, m.Kernel...)
	out = append(out, m.Recurrent...)
	return append(out, m.Bias, m.DenseW, m.DenseB)
}

func (m *LSTM) Clone() Model { return m.clone() }

func (m *LSTM) InputWidth() int { return m.InputSize }

func (m *LSTM) clone() *LSTM {
	c := zeroLSTM(m.InputSize, m.HiddenSize)
	dst := c.params()
	for i, p := range m.params() {
		copy(dst[i], p)
	}
	return c
}

func (m *LSTM) copyFrom(o *LSTM) {
	dst := m.params()
	for i, p := range o.params() {
		copy(dst[i], p)
	}
}

type stepCache struct {
	x, hPrev, cPrev []float64
	i, f, g, o, c   []float64
	tanhC           []float64
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// forward runs one sequence and returns the scalar output, the per-step
// caches and the final hidden state.
func (m *LSTM) forward(seq [][]float64) (float64, []stepCache, []float64) {
	H := m.HiddenSize
	h := make([]float64, H)
	c := make([]float64, H)
	caches := make([]stepCache, len(seq))
	z := make([]float64, 4*H)
	for t, x := range seq {
		copy(z, m.Bias)
		for k, xv := range x {
			if xv == 0 {
				continue
			}
			for j, w := range m.Kernel[k] {
				z[j] += xv * w
			}
		}
		for k, hv := range h {
			if hv == 0 {
				continue
			}
			for j, w := range m.Recurrent[k] {
				z[j] += hv * w
			}
		}
		sc := stepCache{
			x: x, hPrev: h, cPrev: c,
			i: make([]float64, H), f: make([]float64, H), g: make([]float64, H), o: make([]float64, H),
			c: make([]float64, H), tanhC: make([]float64, H),
		}
		hNext := make([]float64, H)
		for j := 0; j < H; j++ {
			sc.i[j] = sigmoid(z[j])
			sc.f[j] = sigmoid(z[H+j])
			sc.g[j] = math.Tanh(z[2*H+j])
			sc.o[j] = sigmoid(z[3*H+j])
			sc.c[j] = sc.f[j]*c[j] + sc.i[j]*sc.g[j]
			sc.tanhC[j] = math.Tanh(sc.c[j])
			hNext[j] = sc.o[j] * sc.tanhC[j]
		}
		caches[t] = sc
		h, c = hNext, sc.c
	}
	y := m.DenseB[0]
	for j, hv := range h {
		y += hv * m.DenseW[j]
	}
	return y, caches, h
}

// backward accumulates into grad the gradient of the loss given dy = dL/dy.
func (m *LSTM) backward(grad *LSTM, caches []stepCache, hLast []float64, dy float64) {
	H := m.HiddenSize
	grad.DenseB[0] += dy
	dh := make([]float64, H)
	for j, hv := range hLast {
		grad.DenseW[j] += dy * hv
		dh[j] = dy * m.DenseW[j]
	}
	dc := make([]float64, H)
	dz := make([]float64, 4*H)
	for t := len(caches) - 1; t >= 0; t-- {
		sc := caches[t]
		dcPrev := make([]float64, H)
		for j := 0; j < H; j++ {
			do := dh[j] * sc.tanhC[j]
			dc[j] += dh[j] * sc.o[j] * (1 - sc.tanhC[j]*sc.tanhC[j])
			di := dc[j] * sc.g[j]
			dg := dc[j] * sc.i[j]
			df := dc[j] * sc.cPrev[j]
			dcPrev[j] = dc[j] * sc.f[j]
			dz[j] = di * sc.i[j] * (1 - sc.i[j])
			dz[H+j] = df * sc.f[j] * (1 - sc.f[j])
			dz[2*H+j] = dg * (1 - sc.g[j]*sc.g[j])
			dz[3*H+j] = do * sc.o[j] * (1 - sc.o[j])
		}
		for j, d := range dz {
			grad.Bias[j] += d
		}
		for k, xv := range sc.x {
			row := grad.Kernel[k]
			for j, d := range dz {
				row[j] += xv * d
			}
		}
		dhPrev := make([]float64, H)
		for k, hv := range sc.hPrev {
			row := grad.Recurrent[k]
			w := m.Recurrent[k]
			var acc float64
			for j, d := range dz {
				row[j] += hv * d
				acc += w[j] * d
			}
			dhPrev[k] = acc
		}
		dh, dc = dhPrev, dcPrev
	}
}

func (m *LSTM) Predict(x Batch) ([][]float64, error) {
	if err := x.Validate(m.InputSize); err != nil {
		return nil, errors.Wrap(err, "predict")
	}
	out := make([][]float64, len(x))
	for n, seq := range x {
		y, _, _ := m.forward(seq)
		out[n] = []float64{y}
	}
	return out, nil
}

// mse returns the mean squared error of the model over the given samples.
func (m *LSTM) mse(x Batch, y [][]float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, n := range idx {
		p, _, _ := m.forward(x[n])
		d := p - y[n][0]
		sum += d * d
	}
	return sum / float64(len(idx))
}

func (m *LSTM) Fit(ctx context.Context, x Batch, y [][]float64, opts FitOptions) (*History, error) {
	return fit(ctx, m, x, y, opts)
}

func (m *LSTM) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	return errors.Wrap(enc.Encode(lstmFile{Format: lstmFormat, LSTM: m}), "encode lstm")
}

// LoadLSTM decodes a network written by Save and checks its shapes.
func LoadLSTM(r io.Reader) (*LSTM, error) {
	f := lstmFile{LSTM: &LSTM{}}
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode lstm")
	}
	if f.Format != lstmFormat {
		return nil, errors.Errorf("unsupported model format %q", f.Format)
	}
	m := f.LSTM
	if m.InputSize <= 0 || m.HiddenSize <= 0 {
		return nil, errors.Errorf("invalid model dimensions %dx%d", m.InputSize, m.HiddenSize)
	}
	want := zeroLSTM(m.InputSize, m.HiddenSize).params()
	got := m.params()
	if len(m.Kernel) != m.InputSize || len(m.Recurrent) != m.HiddenSize || len(got) != len(want) {
		return nil, errors.New("model weights do not match declared dimensions")
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			return nil, errors.New("model weights do not match declared dimensions")
		}
	}
	return m, nil
}
