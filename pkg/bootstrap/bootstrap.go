// Package bootstrap fits a complete artifact set from a historical dataset:
// the two label encoders, both scalers and an initial model.
package bootstrap

import (
	"context"

	"github.com/pkg/errors"

	"cropyield/entities"
	"cropyield/pkg/artifact"
	"cropyield/pkg/feature"
	"cropyield/pkg/nn"
)

type Options struct {
	HiddenSize    int
	FeatureScaler string
	TargetScaler  string
	Seed          int64
	Fit           nn.FitOptions
}

// DefaultOptions fit a 32 unit model with standard scaling for 50 epochs.
func DefaultOptions() Options {
	return Options{
		HiddenSize:    32,
		FeatureScaler: artifact.ScalerStandard,
		TargetScaler:  artifact.ScalerStandard,
		Seed:          42,
		Fit: nn.FitOptions{
			Epochs:             50,
			BatchSize:          32,
			ValidationSplit:    0.2,
			Patience:           5,
			RestoreBestWeights: true,
			LearningRate:       0.001,
			Seed:               42,
		},
	}
}

// Fit builds the transforms from records and trains a fresh model on them.
func Fit(ctx context.Context, records []entities.TrainingInput, opts Options) (artifact.Bundle, *nn.History, error) {
	if len(records) == 0 {
		return artifact.Bundle{}, nil, errors.New("bootstrap needs at least one record")
	}

	areas := make([]string, len(records))
	items := make([]string, len(records))
	for i, r := range records {
		areas[i], items[i] = r.Area, r.Item
	}
	b := artifact.Bundle{
		AreaEncoder: artifact.FitLabelEncoder("area", areas),
		ItemEncoder: artifact.FitLabelEncoder("item", items),
	}

	// Scalers are fitted on the encoded rows, before any scaling.
	raw := feature.New(b.AreaEncoder, b.ItemEncoder, nil, nil)
	columns := make([][]float64, artifact.FeatureCount)
	target := make([]float64, len(records))
	for i, r := range records {
		row, err := raw.Row(r.PredictionInput)
		if err != nil {
			return artifact.Bundle{}, nil, errors.Wrapf(err, "record %d", i)
		}
		for c, v := range row {
			columns[c] = append(columns[c], v)
		}
		target[i] = r.YieldValue
	}

	var err error
	if b.FeatureScaler, err = artifact.FitScaler(opts.FeatureScaler, columns); err != nil {
		return artifact.Bundle{}, nil, errors.Wrap(err, "fit feature scaler")
	}
	if b.TargetScaler, err = artifact.FitScaler(opts.TargetScaler, [][]float64{target}); err != nil {
		return artifact.Bundle{}, nil, errors.Wrap(err, "fit target scaler")
	}

	x, y, err := feature.New(b.AreaEncoder, b.ItemEncoder, b.FeatureScaler, b.TargetScaler).EncodeBatch(records)
	if err != nil {
		return artifact.Bundle{}, nil, err
	}
	m := nn.NewLSTM(artifact.FeatureCount, opts.HiddenSize, opts.Seed)
	hist, err := m.Fit(ctx, x, y, opts.Fit)
	if err != nil {
		return artifact.Bundle{}, nil, errors.Wrap(err, "fit model")
	}
	b.Model = m
	return b, hist, nil
}
