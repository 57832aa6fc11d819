// Package app wires the stores and services shared by the server and yieldctl.
package app

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cropyield/config"
	"cropyield/database"
	"cropyield/pkg/artifact"
	predictSvc "cropyield/pkg/predict/service"
	predictSvcImp "cropyield/pkg/predict/serviceImp"
	"cropyield/pkg/reconcile"
	recordRepo "cropyield/pkg/record/repository"
	recordRepoImp "cropyield/pkg/record/repositoryImp"
	runRepo "cropyield/pkg/train/repository"
	runRepoImp "cropyield/pkg/train/repositoryImp"
	trainSvc "cropyield/pkg/train/service"
	trainSvcImp "cropyield/pkg/train/serviceImp"
)

type App struct {
	DB    *gorm.DB
	Store *artifact.Store

	Records recordRepo.RecordRepository
	Runs    runRepo.TrainingRunRepository

	Trainer    trainSvc.TrainService
	Predictor  predictSvc.PredictService
	Reconciler *reconcile.Reconciler
}

// New opens the artifact store first; a missing or corrupt artifact is
// returned as an artifact.ErrArtifactLoad error and nothing else is opened.
func New(cfg config.AppConfig, fs afero.Fs, log *zap.Logger) (*App, error) {
	store, err := artifact.Open(fs, cfg.ArtifactDir, artifact.WithLatestSnapshot(cfg.LoadLatestSnapshot))
	if err != nil {
		return nil, err
	}
	log.Info("artifacts loaded", zap.String("dir", cfg.ArtifactDir), zap.String("snapshot", store.Current().ID))

	db, err := database.Open(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "database")
	}
	return Wire(db, store, cfg, log)
}

// Wire builds repositories and services over already opened stores.
func Wire(db *gorm.DB, store *artifact.Store, cfg config.AppConfig, log *zap.Logger) (*App, error) {
	a := &App{DB: db, Store: store}
	a.Records = recordRepoImp.New(db)
	a.Runs = runRepoImp.New(db)
	a.Trainer = trainSvcImp.New(store, a.Records, log.Named("train"), trainSvcImp.WithRunRepository(a.Runs))

	var err error
	if a.Predictor, err = predictSvcImp.New(store, cfg.PredictCacheSize); err != nil {
		return nil, errors.Wrap(err, "prediction cache")
	}
	a.Reconciler = reconcile.New(a.Records, a.Trainer, cfg.ReconcileInterval, log.Named("reconcile"),
		reconcile.WithTickTimeout(cfg.ReconcileTimeout))
	return a, nil
}

func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
