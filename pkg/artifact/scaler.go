package artifact

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Scaler is a per-column affine transform: x' = (x - Offset) / Scale.
type Scaler struct {
	Kind   string    `json:"kind"`
	Offset []float64 `json:"offset"`
	Scale  []float64 `json:"scale"`
}

func (s *Scaler) Width() int { return len(s.Offset) }

func (s *Scaler) validate() error {
	if len(s.Offset) == 0 || len(s.Offset) != len(s.Scale) {
		return fmt.Errorf("scaler: offset has %d columns, scale %d", len(s.Offset), len(s.Scale))
	}
	for i, v := range s.Scale {
		if v == 0 {
			return fmt.Errorf("scaler: column %d has zero scale", i)
		}
	}
	return nil
}

func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != s.Width() {
		return nil, fmt.Errorf("scaler expects %d columns, got %d", s.Width(), len(row))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v - s.Offset[i]) / s.Scale[i]
	}
	return out, nil
}

func (s *Scaler) Inverse(row []float64) ([]float64, error) {
	if len(row) != s.Width() {
		return nil, fmt.Errorf("scaler expects %d columns, got %d", s.Width(), len(row))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = v*s.Scale[i] + s.Offset[i]
	}
	return out, nil
}

// FitScaler fits one column per entry of columns. Constant columns get a
// scale of 1 so they map to zero.
func FitScaler(kind string, columns [][]float64) (*Scaler, error) {
	s := &Scaler{Kind: kind, Offset: make([]float64, len(columns)), Scale: make([]float64, len(columns))}
	for i, col := range columns {
		data := stats.Float64Data(col)
		switch kind {
		case ScalerStandard:
			mean, err := stats.Mean(data)
			if err != nil {
				return nil, errors.Wrapf(err, "column %d mean", i)
			}
			sd, err := stats.StandardDeviationPopulation(data)
			if err != nil {
				return nil, errors.Wrapf(err, "column %d stddev", i)
			}
			s.Offset[i], s.Scale[i] = mean, sd
		case ScalerMinMax:
			lo, err := stats.Min(data)
			if err != nil {
				return nil, errors.Wrapf(err, "column %d min", i)
			}
			hi, err := stats.Max(data)
			if err != nil {
				return nil, errors.Wrapf(err, "column %d max", i)
			}
			s.Offset[i], s.Scale[i] = lo, hi-lo
		default:
			return nil, errors.Errorf("unknown scaler kind %q", kind)
		}
		if s.Scale[i] == 0 {
			s.Scale[i] = 1
		}
	}
	return s, s.validate()
}
