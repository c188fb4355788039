package service

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/limbo/discipline/pkg/entity"
)

// Package for custom validations
var (
	validate *validator.Validate
	once     sync.Once
)

func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("datekey", func(fl validator.FieldLevel) bool {
			_, err := entity.ParseDateKey(fl.Field().String())
			return err == nil
		})
	})
}

// ValidateAction checks the shape of an action. Range checks that depend on
// the habit happen when the action is applied.
func ValidateAction(a Action) error {
	InitValidator()
	if err := validate.Struct(a); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 && vErrs[0].Tag() == "datekey" {
			return errorvalues.ErrInvalidDateKey
		}
		return errors.Join(errorvalues.ErrInvalidAction, err)
	}
	return nil
}
