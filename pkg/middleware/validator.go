package middleware

import (
	"github.com/asaskevich/govalidator"
	"github.com/labstack/echo/v4"
)

// Validator runs govalidator struct tags for echo's c.Validate.
type Validator struct{}

func NewValidator() echo.Validator { return Validator{} }

func (Validator) Validate(i any) error {
	_, err := govalidator.ValidateStruct(i)
	return err
}
