package repositoryImp

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropyield/entities"
	"cropyield/internal/testutils"
)

func TestTrainingRunRepository(t *testing.T) {
	ctx := context.Background()
	r := New(testutils.DB(t, &entities.TrainingRun{}))

	got, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	for i := 1; i <= 3; i++ {
		require.NoError(t, r.Create(ctx, &entities.TrainingRun{
			RunID:       uuid.NewString(),
			Source:      entities.TrainingSourceAPI,
			Records:     i,
			BatchSize:   i,
			Epochs:      50,
			LossHistory: []float64{0.5, 0.25},
		}))
	}

	got, err = r.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Records)
	assert.Equal(t, 2, got[1].Records)
	assert.Equal(t, []float64{0.5, 0.25}, []float64(got[0].LossHistory))
}
