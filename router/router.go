package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"cropyield/pkg/middleware"
)

func New(
	e *echo.Echo,
	log *zap.Logger,
	predictCtrl interface{ Predict(echo.Context) error },
	trainCtrl interface {
		Train(echo.Context) error
		Models(echo.Context) error
		Runs(echo.Context) error
	},
	recordCtrl interface {
		Create(echo.Context) error
		Untrained(echo.Context) error
		Import(echo.Context) error
	},
	reconcileCtrl interface{ Trigger(echo.Context) error },
	healthCtrl interface {
		Root(echo.Context) error
		Health(echo.Context) error
	},
) *echo.Echo {
	e.HideBanner = true
	e.Validator = middleware.NewValidator()
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestLog(log))

	e.GET("/", healthCtrl.Root)
	e.GET("/health", healthCtrl.Health)

	e.POST("/predict", predictCtrl.Predict)
	e.POST("/train", trainCtrl.Train)
	e.GET("/models", trainCtrl.Models)
	e.GET("/training-runs", trainCtrl.Runs)

	e.POST("/info/", recordCtrl.Create)
	e.POST("/info", recordCtrl.Create)
	e.POST("/info/import", recordCtrl.Import)
	e.GET("/items/untrained", recordCtrl.Untrained)

	e.POST("/reconcile", reconcileCtrl.Trigger)
	return e
}
