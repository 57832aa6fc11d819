package serviceImp

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"cropyield/entities"
	"cropyield/pkg/artifact"
	"cropyield/pkg/feature"
	"cropyield/pkg/nn"
	recordRepo "cropyield/pkg/record/repository"
	runRepo "cropyield/pkg/train/repository"
	"cropyield/pkg/train/service"
)

// DefaultFitOptions are the hyperparameters every incremental fit uses.
var DefaultFitOptions = nn.FitOptions{
	Epochs:             50,
	ValidationSplit:    0.2,
	Patience:           5,
	RestoreBestWeights: true,
	LearningRate:       0.001,
}

type trainSvc struct {
	store    *artifact.Store
	pipeline *feature.Pipeline
	records  recordRepo.RecordRepository
	runs     runRepo.TrainingRunRepository
	log      *zap.Logger
	fit      nn.FitOptions

	// mu serializes fits so two callers never start from the same snapshot.
	mu sync.Mutex
}

type Option func(*trainSvc)

// WithFitOptions overrides the hyperparameters. BatchSize is always derived
// from the record count.
func WithFitOptions(o nn.FitOptions) Option { return func(s *trainSvc) { s.fit = o } }

// WithRunRepository records an audit row for every committed fit.
func WithRunRepository(r runRepo.TrainingRunRepository) Option {
	return func(s *trainSvc) { s.runs = r }
}

func New(store *artifact.Store, records recordRepo.RecordRepository, log *zap.Logger, opts ...Option) service.TrainService {
	s := &trainSvc{
		store:    store,
		pipeline: feature.FromStore(store),
		records:  records,
		log:      log,
		fit:      DefaultFitOptions,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *trainSvc) Train(ctx context.Context, records []entities.TrainingInput, opts service.Options) (*service.Result, error) {
	if len(records) == 0 {
		return nil, service.ErrEmptyTrainingSet
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := service.EffectiveBatchSize(len(records), opts.BatchSizeHint)
	x, y, err := s.pipeline.EncodeBatch(records)
	if err != nil {
		return nil, &service.TrainingError{Err: err}
	}

	base := s.store.Current()
	m := base.Model.Clone()
	fo := s.fit
	fo.BatchSize = batch
	hist, err := m.Fit(ctx, x, y, fo)
	if err != nil {
		return nil, &service.TrainingError{Err: errors.Wrap(err, "fit")}
	}

	snap, err := s.store.Commit(m)
	if err != nil {
		return nil, &service.TrainingError{Err: errors.Wrap(err, "save model")}
	}

	res := &service.Result{
		RunID:     uuid.NewString(),
		Records:   len(records),
		BatchSize: batch,
		Snapshot:  snap,
		History:   hist,
	}
	s.log.Info("model trained",
		zap.String("run_id", res.RunID),
		zap.String("source", opts.Source),
		zap.String("from_snapshot", base.ID),
		zap.String("snapshot", snap.ID),
		zap.Int("records", len(records)),
		zap.Int("batch_size", batch),
		zap.Int("epochs", hist.Epochs()),
		zap.String("monitor", hist.Monitor),
		zap.Float64("best_loss", hist.BestLoss),
	)
	s.audit(ctx, res, opts.Source)

	// The snapshot is already live. If marking fails the records stay
	// untrained and are fitted again on the next pass.
	if len(opts.MarkTrained) > 0 {
		n, err := s.records.MarkTrained(ctx, opts.MarkTrained)
		if err != nil {
			return res, &service.TrainingError{Err: errors.Wrap(err, "mark records trained")}
		}
		res.Marked = n
	}
	return res, nil
}

func (s *trainSvc) audit(ctx context.Context, res *service.Result, source string) {
	if s.runs == nil {
		return
	}
	run := &entities.TrainingRun{
		RunID:       res.RunID,
		Source:      source,
		Records:     res.Records,
		BatchSize:   res.BatchSize,
		Epochs:      res.History.Epochs(),
		BestLoss:    res.History.BestLoss,
		Monitor:     res.History.Monitor,
		SnapshotID:  res.Snapshot.ID,
		LossHistory: res.History.Loss,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		s.log.Warn("training run not recorded", zap.String("run_id", res.RunID), zap.Error(err))
	}
}
