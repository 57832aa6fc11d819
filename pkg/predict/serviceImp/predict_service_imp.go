package serviceImp

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"cropyield/entities"
	"cropyield/pkg/artifact"
	"cropyield/pkg/feature"
	"cropyield/pkg/predict/service"
)

// cacheKey ties a cached answer to the snapshot that produced it, so a new
// snapshot never serves an old prediction.
type cacheKey struct {
	snapshot string
	in       entities.PredictionInput
}

type predictSvc struct {
	store    *artifact.Store
	pipeline *feature.Pipeline
	cache    *lru.Cache[cacheKey, float64]
}

// New builds the service. cacheSize <= 0 disables caching.
func New(store *artifact.Store, cacheSize int) (service.PredictService, error) {
	s := &predictSvc{store: store, pipeline: feature.FromStore(store)}
	if cacheSize > 0 {
		c, err := lru.New[cacheKey, float64](cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}
	return s, nil
}

func (s *predictSvc) Predict(ctx context.Context, in entities.PredictionInput) (float64, error) {
	snap := s.store.Current()
	key := cacheKey{snapshot: snap.ID, in: in}
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
	}

	x, err := s.pipeline.EncodeOne(in)
	if err != nil {
		return 0, &service.PredictionError{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return 0, &service.PredictionError{Err: err}
	}
	out, err := snap.Model.Predict(x)
	if err != nil {
		return 0, &service.PredictionError{Err: errors.Wrap(err, "model")}
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return 0, &service.PredictionError{Err: errors.New("model returned no output")}
	}
	v, err := s.pipeline.DecodeTarget(out[0][0])
	if err != nil {
		return 0, &service.PredictionError{Err: errors.Wrap(err, "decode target")}
	}

	if s.cache != nil {
		s.cache.Add(key, v)
	}
	return v, nil
}
