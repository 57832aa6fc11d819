package controllerImp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cropyield/entities"
	"cropyield/pkg/artifact"
	"cropyield/pkg/train/controller"
	runRepo "cropyield/pkg/train/repository"
	"cropyield/pkg/train/service"
)

const defaultRunLimit = 20

type TrainCtrl struct {
	svc   service.TrainService
	store *artifact.Store
	runs  runRepo.TrainingRunRepository
}

func New(svc service.TrainService, store *artifact.Store, runs runRepo.TrainingRunRepository) controller.TrainController {
	return &TrainCtrl{svc: svc, store: store, runs: runs}
}

func (h *TrainCtrl) Train(c echo.Context) error {
	var in []entities.TrainingInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	if len(in) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Training data must include at least one record."})
	}
	res, err := h.svc.Train(c.Request().Context(), in, service.Options{Source: entities.TrainingSourceAPI})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":         fmt.Sprintf("Model trained successfully on %d records.", res.Records),
		"batch_size_used": res.BatchSize,
	})
}

// Models lists the persisted snapshots, newest first.
func (h *TrainCtrl) Models(c echo.Context) error {
	snaps, err := h.store.Snapshots()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if snaps == nil {
		snaps = []artifact.SnapshotInfo{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"current":   h.store.Current().ID,
		"snapshots": snaps,
	})
}

func (h *TrainCtrl) Runs(c echo.Context) error {
	limit := defaultRunLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = n
	}
	out, err := h.runs.Recent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}
