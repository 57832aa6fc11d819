package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cropyield/config"
	"cropyield/internal/app"
	"cropyield/pkg/logging"
	"cropyield/router"

	healthCtrlImp "cropyield/pkg/health/controllerImp"
	predictCtrlImp "cropyield/pkg/predict/controllerImp"
	reconcileCtrlImp "cropyield/pkg/reconcile/controllerImp"
	recordCtrlImp "cropyield/pkg/record/controllerImp"
	trainCtrlImp "cropyield/pkg/train/controllerImp"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, afero.NewOsFs(), log)
	stop()
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until ctx is done. Every failure is logged here and returned so
// main exits once, after the deferred cleanup has run.
func run(ctx context.Context, cfg config.AppConfig, fs afero.Fs, log *zap.Logger) error {
	// 1) Artifacts, DB, services. Any artifact failure aborts start.
	a, err := app.New(cfg, fs, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.Close()

	// 2) Controllers + router
	r := router.New(
		echo.New(),
		log.Named("http"),
		predictCtrlImp.New(a.Predictor),
		trainCtrlImp.New(a.Trainer, a.Store, a.Runs),
		recordCtrlImp.New(a.Records),
		reconcileCtrlImp.New(a.Reconciler),
		healthCtrlImp.NewHealthCtrl(a.DB, a.Store),
	)

	// 3) Serve until ctx is done
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := r.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.Shutdown(shutdownCtx)
	})
	if cfg.ReconcileEnabled {
		g.Go(func() error { return a.Reconciler.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("bye")
	return nil
}
