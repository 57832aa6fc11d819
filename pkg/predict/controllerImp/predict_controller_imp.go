package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cropyield/entities"
	"cropyield/pkg/predict/controller"
	"cropyield/pkg/predict/service"
)

type PredictCtrl struct{ svc service.PredictService }

func New(svc service.PredictService) controller.PredictController { return &PredictCtrl{svc} }

func (h *PredictCtrl) Predict(c echo.Context) error {
	var in entities.PredictionInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	v, err := h.svc.Predict(c.Request().Context(), in)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]float64{"predicted_yield": v})
}
