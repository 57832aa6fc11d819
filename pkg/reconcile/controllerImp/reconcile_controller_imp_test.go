package controllerImp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"cropyield/entities"
	"cropyield/internal/testutils"
	"cropyield/pkg/reconcile"
	recordRepoImp "cropyield/pkg/record/repositoryImp"
	"cropyield/pkg/train/service"
)

type blockingTrainer struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingTrainer) Train(context.Context, []entities.TrainingInput, service.Options) (*service.Result, error) {
	b.entered <- struct{}{}
	<-b.release
	return nil, context.Canceled
}

func TestTrigger(t *testing.T) {
	repo := recordRepoImp.New(testutils.DB(t, &entities.Record{}))
	trainer := &blockingTrainer{entered: make(chan struct{}, 1), release: make(chan struct{})}
	r := reconcile.New(repo, trainer, time.Minute, zap.NewNop())
	e := echo.New()
	e.POST("/reconcile", New(r).Trigger)

	post := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reconcile", nil))
		return rec
	}

	rec := post()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"records":0,"marked":0}`, rec.Body.String())

	rec2 := testutils.TrainingInput("India", "Maize", 1).Record()
	assert.NoError(t, repo.Create(context.Background(), &rec2))

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- post() }()
	<-trainer.entered

	busy := post()
	assert.Equal(t, http.StatusConflict, busy.Code)
	assert.JSONEq(t, `{"error":"reconciliation already running"}`, busy.Body.String())

	close(trainer.release)
	failed := <-done
	assert.Equal(t, http.StatusInternalServerError, failed.Code)
}
