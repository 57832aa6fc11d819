package bootstrap

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropyield/entities"
	"cropyield/internal/testutils"
	"cropyield/pkg/artifact"
	"cropyield/pkg/feature"
)

func dataset() []entities.TrainingInput {
	var out []entities.TrainingInput
	for i, area := range testutils.Areas {
		for j, item := range testutils.Items {
			in := testutils.TrainingInput(area, item, float64(10000*(i+1)+2500*j))
			in.Year = 1990 + i + j
			in.Rainfall = float64(600 + 200*i)
			out = append(out, in)
		}
	}
	return out
}

func TestFit(t *testing.T) {
	opts := DefaultOptions()
	opts.HiddenSize = 4
	opts.Fit.Epochs = 3

	b, hist, err := Fit(context.Background(), dataset(), opts)
	require.NoError(t, err)
	assert.Equal(t, testutils.Areas, b.AreaEncoder.Classes)
	assert.Equal(t, testutils.Items, b.ItemEncoder.Classes)
	assert.Equal(t, artifact.FeatureCount, b.FeatureScaler.Width())
	assert.Equal(t, 1, b.TargetScaler.Width())
	assert.Equal(t, 3, hist.Epochs())

	t.Run("the written bundle opens as a store that predicts", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, artifact.WriteBundle(fs, "model", b))
		s, err := artifact.Open(fs, "model")
		require.NoError(t, err)

		x, err := feature.FromStore(s).EncodeOne(dataset()[0].PredictionInput)
		require.NoError(t, err)
		out, err := s.Current().Model.Predict(x)
		require.NoError(t, err)
		require.Len(t, out, 1)
	})
}

func TestFitRejectsEmpty(t *testing.T) {
	_, _, err := Fit(context.Background(), nil, DefaultOptions())
	assert.Error(t, err)
}
