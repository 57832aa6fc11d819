// Package testutils builds small artifact sets and stores for tests.
package testutils

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cropyield/entities"
	"cropyield/pkg/artifact"
	"cropyield/pkg/nn"
)

const ArtifactDir = "model"

var (
	Areas = []string{"Albania", "Brazil", "India", "Kenya"}
	Items = []string{"Cassava", "Maize", "Potatoes", "Rice, paddy"}
)

// Bundle returns a small but complete artifact set with a deterministic model.
func Bundle(t testing.TB) artifact.Bundle {
	t.Helper()
	features, err := artifact.FitScaler(artifact.ScalerMinMax, [][]float64{
		{0, 3},       // area code
		{0, 3},       // item code
		{50, 3000},   // rainfall
		{0, 400000},  // pesticides
		{1, 30},      // temp
		{1990, 2013}, // year
	})
	require.NoError(t, err)
	target, err := artifact.FitScaler(artifact.ScalerStandard, [][]float64{{10000, 40000, 90000, 250000}})
	require.NoError(t, err)
	return artifact.Bundle{
		AreaEncoder:   artifact.FitLabelEncoder("area", Areas),
		ItemEncoder:   artifact.FitLabelEncoder("item", Items),
		FeatureScaler: features,
		TargetScaler:  target,
		Model:         nn.NewLSTM(artifact.FeatureCount, 4, 42),
	}
}

// Store writes Bundle into an in-memory filesystem and opens it.
func Store(t testing.TB, opts ...artifact.Option) (*artifact.Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, artifact.WriteBundle(fs, ArtifactDir, Bundle(t)))
	s, err := artifact.Open(fs, ArtifactDir, opts...)
	require.NoError(t, err)
	return s, fs
}

// FixedClock returns a clock that advances one second per call.
func FixedClock(start time.Time) func() time.Time {
	cur := start.Add(-time.Second)
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func TrainingInput(area, item string, yield float64) entities.TrainingInput {
	return entities.TrainingInput{
		PredictionInput: entities.PredictionInput{
			Area: area, Item: item, Rainfall: 1485, Pesticides: 121, Temp: 16.37, Year: 1990,
		},
		YieldValue: yield,
	}
}

// DB opens a private in-memory sqlite database with the given models migrated.
func DB(t testing.TB, models ...any) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...))
	}
	return db
}
