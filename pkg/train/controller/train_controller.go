package controller

import "github.com/labstack/echo/v4"

type TrainController interface {
	Train(c echo.Context) error
	Models(c echo.Context) error
	Runs(c echo.Context) error
}
