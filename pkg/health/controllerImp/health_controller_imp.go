package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"cropyield/pkg/artifact"
)

var appStart = time.Now()

type HealthCtrl struct {
	db    *gorm.DB
	store *artifact.Store
}

func NewHealthCtrl(db *gorm.DB, store *artifact.Store) *HealthCtrl {
	return &HealthCtrl{db: db, store: store}
}

// Root answers the liveness greeting.
func (h *HealthCtrl) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Hello!"})
}

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	dbOK := true
	dbErr := ""
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil {
			dbOK = false
			dbErr = "db.DB(): " + err.Error()
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbOK = false
			dbErr = "ping: " + err.Error()
		}
	} else {
		dbOK = false
		dbErr = "gorm db is nil"
	}

	modelOK := false
	modelErr := "artifact store is nil"
	snapshot := ""
	if h.store != nil {
		if cur := h.store.Current(); cur != nil {
			modelOK, modelErr, snapshot = true, "", cur.ID
		} else {
			modelErr = "no model loaded"
		}
	}

	allOK := dbOK && modelOK
	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}

	type sub struct {
		OK  bool   `json:"ok"`
		Err string `json:"err,omitempty"`
	}

	resp := map[string]any{
		"status":     map[string]any{"ok": allOK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"snapshot":   snapshot,
		"checks": map[string]any{
			"database": sub{OK: dbOK, Err: dbErr},
			"model":    sub{OK: modelOK, Err: modelErr},
		},
		"time": time.Now().Format(time.RFC3339),
	}

	return c.JSON(status, resp)
}
