package controllerImp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropyield/internal/testutils"
	"cropyield/pkg/predict/serviceImp"
)

func TestPredictEndpoint(t *testing.T) {
	store, _ := testutils.Store(t)
	svc, err := serviceImp.New(store, 16)
	require.NoError(t, err)
	e := echo.New()
	e.POST("/predict", New(svc).Predict)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("it answers with the predicted yield", func(t *testing.T) {
		rec := post(`{"area":"India","item":"Rice, paddy","rainfall":1083,"pesticides":45000,"temp":26.2,"year":1999}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got map[string]float64
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Contains(t, got, "predicted_yield")
	})

	t.Run("an unknown area is a 500 carrying the cause", func(t *testing.T) {
		rec := post(`{"area":"Atlantis","item":"Maize","rainfall":1,"pesticides":1,"temp":1,"year":2000}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"unknown area category: \"Atlantis\""}`, rec.Body.String())
	})
}
