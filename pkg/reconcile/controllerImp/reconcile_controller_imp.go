package controllerImp

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"cropyield/pkg/reconcile"
)

type ReconcileCtrl struct{ r *reconcile.Reconciler }

func New(r *reconcile.Reconciler) *ReconcileCtrl { return &ReconcileCtrl{r} }

// Trigger runs one tick now.
func (h *ReconcileCtrl) Trigger(c echo.Context) error {
	out, err := h.r.Tick(c.Request().Context())
	if errors.Is(err, reconcile.ErrBusy) {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}
