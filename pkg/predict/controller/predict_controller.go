package controller

import "github.com/labstack/echo/v4"

type PredictController interface {
	Predict(c echo.Context) error
}
