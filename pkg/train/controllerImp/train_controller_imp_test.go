package controllerImp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cropyield/entities"
	"cropyield/internal/testutils"
	"cropyield/pkg/artifact"
	"cropyield/pkg/nn"
	"cropyield/pkg/train/controller"
	runRepoImp "cropyield/pkg/train/repositoryImp"
	"cropyield/pkg/train/service"
	"cropyield/pkg/train/serviceImp"
)

type stubTrainer struct {
	got []entities.TrainingInput
	err error
}

func (s *stubTrainer) Train(_ context.Context, records []entities.TrainingInput, opts service.Options) (*service.Result, error) {
	s.got = records
	if s.err != nil {
		return nil, s.err
	}
	return &service.Result{Records: len(records), BatchSize: service.EffectiveBatchSize(len(records), opts.BatchSizeHint)}, nil
}

func serve(h controller.TrainController, req *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	e.POST("/train", h.Train)
	e.GET("/models", h.Models)
	e.GET("/training-runs", h.Runs)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func trainReq(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/train", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestTrainEndpoint(t *testing.T) {
	store, _ := testutils.Store(t)
	runs := runRepoImp.New(testutils.DB(t, &entities.TrainingRun{}))

	t.Run("an empty array is a bad request and never reaches the trainer", func(t *testing.T) {
		stub := &stubTrainer{}
		rec := serve(New(stub, store, runs), trainReq(`[]`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Training data must include at least one record."}`, rec.Body.String())
		assert.Nil(t, stub.got)
	})

	t.Run("it reports the record count and batch size", func(t *testing.T) {
		stub := &stubTrainer{}
		items := make([]string, 17)
		for i := range items {
			items[i] = `{"area":"India","item":"Maize","rainfall":1083,"pesticides":45000,"temp":26.2,"year":1999,"yield_value":18000}`
		}
		rec := serve(New(stub, store, runs), trainReq("["+strings.Join(items, ",")+"]"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"message":"Model trained successfully on 17 records.","batch_size_used":16}`, rec.Body.String())
		require.Len(t, stub.got, 17)
		assert.Equal(t, "India", stub.got[0].Area)
		assert.Equal(t, 18000.0, stub.got[0].YieldValue)
	})

	t.Run("a training failure is a 500 with the cause", func(t *testing.T) {
		stub := &stubTrainer{err: &service.TrainingError{Err: errors.New(`unknown area category: "Atlantis"`)}}
		rec := serve(New(stub, store, runs), trainReq(`[{"area":"Atlantis","item":"Maize"}]`))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"unknown area category: \"Atlantis\""}`, rec.Body.String())
	})

	t.Run("malformed json is a bad request", func(t *testing.T) {
		rec := serve(New(&stubTrainer{}, store, runs), trainReq(`{"area":"India"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestModelsAndRuns(t *testing.T) {
	ctx := context.Background()
	store, _ := testutils.Store(t)
	runs := runRepoImp.New(testutils.DB(t, &entities.TrainingRun{}))
	svc := serviceImp.New(store, nil, zap.NewNop(),
		serviceImp.WithRunRepository(runs),
		serviceImp.WithFitOptions(nn.FitOptions{Epochs: 2, LearningRate: 0.001, Seed: 1}),
	)
	h := New(svc, store, runs)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/models", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"current":"base","snapshots":[]}`, rec.Body.String())

	_, err := svc.Train(ctx, []entities.TrainingInput{testutils.TrainingInput("India", "Maize", 18000)}, service.Options{Source: entities.TrainingSourceAPI})
	require.NoError(t, err)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/models", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var models struct {
		Current   string                  `json:"current"`
		Snapshots []artifact.SnapshotInfo `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	require.Len(t, models.Snapshots, 1)
	assert.Equal(t, models.Current, models.Snapshots[0].ID)
	assert.True(t, models.Snapshots[0].Current)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/training-runs?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got []entities.TrainingRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, models.Current, got[0].SnapshotID)
	assert.Equal(t, nn.MonitorLoss, got[0].Monitor)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/training-runs?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
