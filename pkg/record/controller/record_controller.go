package controller

import "github.com/labstack/echo/v4"

type RecordController interface {
	Create(c echo.Context) error
	Untrained(c echo.Context) error
	Import(c echo.Context) error
}
