package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cropyield/config"
	"cropyield/database"
	"cropyield/entities"
	"cropyield/internal/app"
	"cropyield/internal/testutils"
	"cropyield/router"

	healthCtrlImp "cropyield/pkg/health/controllerImp"
	predictCtrlImp "cropyield/pkg/predict/controllerImp"
	reconcileCtrlImp "cropyield/pkg/reconcile/controllerImp"
	recordCtrlImp "cropyield/pkg/record/controllerImp"
	trainCtrlImp "cropyield/pkg/train/controllerImp"
)

func TestRoutes(t *testing.T) {
	db := testutils.DB(t)
	require.NoError(t, database.Migrate(db))
	store, _ := testutils.Store(t)
	a, err := app.Wire(db, store, config.AppConfig{PredictCacheSize: 8, ReconcileInterval: time.Minute}, zap.NewNop())
	require.NoError(t, err)

	e := router.New(echo.New(), zap.NewNop(),
		predictCtrlImp.New(a.Predictor),
		trainCtrlImp.New(a.Trainer, a.Store, a.Runs),
		recordCtrlImp.New(a.Records),
		reconcileCtrlImp.New(a.Reconciler),
		healthCtrlImp.NewHealthCtrl(a.DB, a.Store),
	)
	call := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := call(http.MethodGet, "/", "")
	assert.JSONEq(t, `{"message":"Hello!"}`, rec.Body.String())

	rec = call(http.MethodGet, "/items/untrained", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, body := range []string{
		`{"area":"India","item":"Maize","rainfall":1083,"pesticides":45000,"temp":26.2,"year":1999,"yield_value":18000}`,
		`{"area":"Kenya","item":"Cassava","rainfall":630,"pesticides":3000,"temp":24.1,"year":2001,"yield_value":90000}`,
		`{"area":"Brazil","item":"Potatoes","rainfall":1761,"pesticides":20000,"temp":25.1,"year":2005,"yield_value":150000}`,
	} {
		rec = call(http.MethodPost, "/info/", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	predict := `{"area":"India","item":"Maize","rainfall":1083,"pesticides":45000,"temp":26.2,"year":1999}`
	rec = call(http.MethodPost, "/predict", predict)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var before map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))

	rec = call(http.MethodPost, "/reconcile", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"records":3`)

	rec = call(http.MethodGet, "/items/untrained", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = call(http.MethodPost, "/predict", predict)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var after map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.NotEqual(t, before["predicted_yield"], after["predicted_yield"])

	rec = call(http.MethodPost, "/train", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(http.MethodGet, "/training-runs", "")
	var runs []entities.TrainingRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, entities.TrainingSourceReconcile, runs[0].Source)

	rec = call(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), runs[0].SnapshotID)
}
