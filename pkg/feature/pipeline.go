// Package feature turns yield records into the scaled (n, 1, 6) tensors the
// model was fitted on. Column order is fixed:
// area_code, item_code, rainfall, pesticides, temp, year.
package feature

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"cropyield/entities"
	"cropyield/pkg/artifact"
	"cropyield/pkg/nn"
)

// MalformedInputError reports a numeric field that is NaN or infinite.
type MalformedInputError struct {
	Field string
	Value float64
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.Field, e.Value)
}

type Pipeline struct {
	area     *artifact.LabelEncoder
	item     *artifact.LabelEncoder
	features *artifact.Scaler
	target   *artifact.Scaler
}

func New(area, item *artifact.LabelEncoder, features, target *artifact.Scaler) *Pipeline {
	return &Pipeline{area: area, item: item, features: features, target: target}
}

func FromStore(s *artifact.Store) *Pipeline {
	return New(s.AreaEncoder, s.ItemEncoder, s.FeatureScaler, s.TargetScaler)
}

// Row builds the unscaled feature row.
func (p *Pipeline) Row(in entities.PredictionInput) ([]float64, error) {
	for _, f := range []struct {
		name string
		v    float64
	}{{"rainfall", in.Rainfall}, {"pesticides", in.Pesticides}, {"temp", in.Temp}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return nil, &MalformedInputError{Field: f.name, Value: f.v}
		}
	}
	areaCode, err := p.area.Encode(in.Area)
	if err != nil {
		return nil, err
	}
	itemCode, err := p.item.Encode(in.Item)
	if err != nil {
		return nil, err
	}
	return []float64{
		float64(areaCode),
		float64(itemCode),
		in.Rainfall,
		in.Pesticides,
		in.Temp,
		float64(in.Year),
	}, nil
}

// EncodeOne returns a (1, 1, 6) batch.
func (p *Pipeline) EncodeOne(in entities.PredictionInput) (nn.Batch, error) {
	row, err := p.Row(in)
	if err != nil {
		return nil, err
	}
	scaled, err := p.features.Transform(row)
	if err != nil {
		return nil, errors.Wrap(err, "scale features")
	}
	return Reshape([][]float64{scaled}), nil
}

// EncodeBatch returns the (n, 1, 6) features and the (n, 1) scaled targets.
func (p *Pipeline) EncodeBatch(records []entities.TrainingInput) (nn.Batch, [][]float64, error) {
	rows := make([][]float64, len(records))
	targets := make([][]float64, len(records))
	for i, r := range records {
		row, err := p.Row(r.PredictionInput)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "record %d", i)
		}
		if rows[i], err = p.features.Transform(row); err != nil {
			return nil, nil, errors.Wrapf(err, "record %d: scale features", i)
		}
		if math.IsNaN(r.YieldValue) || math.IsInf(r.YieldValue, 0) {
			return nil, nil, errors.Wrapf(&MalformedInputError{Field: "yield_value", Value: r.YieldValue}, "record %d", i)
		}
		if targets[i], err = p.target.Transform([]float64{r.YieldValue}); err != nil {
			return nil, nil, errors.Wrapf(err, "record %d: scale target", i)
		}
	}
	return Reshape(rows), targets, nil
}

// DecodeTarget maps a scaled model output back to a yield.
func (p *Pipeline) DecodeTarget(v float64) (float64, error) {
	out, err := p.target.Inverse([]float64{v})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Reshape presents each row as a one-step sequence.
func Reshape(rows [][]float64) nn.Batch {
	b := make(nn.Batch, len(rows))
	for i, r := range rows {
		b[i] = [][]float64{r}
	}
	return b
}
