// Package reconcile periodically feeds records that no fit has consumed yet
// back into the model.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"cropyield/entities"
	"cropyield/pkg/loop"
	recordRepo "cropyield/pkg/record/repository"
	"cropyield/pkg/train/service"
)

// ErrBusy is returned by Tick while another tick is running.
var ErrBusy = errors.New("reconciliation already running")

type Outcome struct {
	Records    int    `json:"records"`
	Marked     int64  `json:"marked"`
	BatchSize  int    `json:"batch_size,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
}

type Reconciler struct {
	records  recordRepo.RecordRepository
	trainer  service.TrainService
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger

	running sync.Mutex
}

type Option func(*Reconciler)

// WithTickTimeout bounds each tick started by Run, fit included. Zero leaves
// ticks unbounded.
func WithTickTimeout(d time.Duration) Option { return func(r *Reconciler) { r.timeout = d } }

func New(records recordRepo.RecordRepository, trainer service.TrainService, interval time.Duration, log *zap.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{records: records, trainer: trainer, interval: interval, log: log}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Tick trains on every untrained record and marks them. With nothing pending
// it returns a zero Outcome without fitting.
func (r *Reconciler) Tick(ctx context.Context) (*Outcome, error) {
	if !r.running.TryLock() {
		return nil, ErrBusy
	}
	defer r.running.Unlock()

	rows, err := r.records.Untrained(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "query untrained records")
	}
	if len(rows) == 0 {
		r.log.Info("no untrained records")
		return &Outcome{}, nil
	}

	inputs := make([]entities.TrainingInput, len(rows))
	ids := make([]uint, len(rows))
	for i, row := range rows {
		inputs[i] = row.TrainingInput()
		ids[i] = row.ID
	}
	res, err := r.trainer.Train(ctx, inputs, service.Options{
		Source:      entities.TrainingSourceReconcile,
		MarkTrained: ids,
	})
	if err != nil {
		return nil, err
	}
	out := &Outcome{Records: len(rows), Marked: res.Marked, BatchSize: res.BatchSize, SnapshotID: res.Snapshot.ID}
	r.log.Info("reconciled untrained records",
		zap.Int("records", out.Records),
		zap.Int64("marked", out.Marked),
		zap.String("snapshot", out.SnapshotID),
	)
	return out, nil
}

// Run ticks every interval until ctx is done, starting one interval after the
// call. Failed ticks are logged and the next tick retries.
func (r *Reconciler) Run(ctx context.Context) error {
	r.log.Info("reconciliation loop started", zap.Duration("interval", r.interval), zap.Duration("timeout", r.timeout))
	var opts []loop.Option
	if r.timeout > 0 {
		opts = append(opts, loop.WithTimeout(r.timeout))
	}
	_, err := loop.Start(ctx, 0, func(ctx context.Context, pass int) (int, loop.Next) {
		if pass > 0 {
			if _, err := r.Tick(ctx); errors.Is(err, ErrBusy) {
				r.log.Info("reconciliation skipped: previous tick still running")
			} else if err != nil {
				r.log.Error("reconciliation failed", zap.Error(err))
			}
		}
		return pass + 1, loop.Continue(r.interval)
	}, opts...)
	r.log.Info("reconciliation loop stopped")
	if ctx.Err() != nil {
		return nil
	}
	return err
}
