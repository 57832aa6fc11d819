package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cropyield/entities"
	"cropyield/pkg/dataset"
	"cropyield/pkg/record/controller"
	repo "cropyield/pkg/record/repository"
)

type RecordCtrl struct{ repo repo.RecordRepository }

func New(repo repo.RecordRepository) controller.RecordController { return &RecordCtrl{repo} }

func (h *RecordCtrl) Create(c echo.Context) error {
	var in entities.TrainingInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	rec := in.Record()
	if err := h.repo.Create(c.Request().Context(), &rec); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *RecordCtrl) Untrained(c echo.Context) error {
	out, err := h.repo.Untrained(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

// Import stores every row of an uploaded dataset file as an untrained record.
func (h *RecordCtrl) Import(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
	}
	format, err := dataset.FormatFromName(fh.Filename)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	defer f.Close()

	inputs, err := dataset.Load(f, format)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	rows := make([]entities.Record, len(inputs))
	for i, in := range inputs {
		if err := c.Validate(&in); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		rows[i] = in.Record()
	}
	if err := h.repo.BulkCreate(c.Request().Context(), rows); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, map[string]int{"imported": len(rows)})
}
