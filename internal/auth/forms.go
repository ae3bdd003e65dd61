package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// RegisterForm is the body of POST /register.
type RegisterForm struct {
	Username string `form:"username" binding:"required,notblank,max=100"`
	Password string `form:"password" binding:"required,notblank,max=72"`
}

// LoginForm is the body of POST /login.
type LoginForm struct {
	Username string `form:"username" binding:"required,notblank,max=100"`
	Password string `form:"password" binding:"required,max=72"`
	Next     string `form:"next"`
}

var registerValidatorsOnce sync.Once

// RegisterValidators installs the custom rules used by the form structs on
// gin's validator. Safe to call more than once.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			slog.Error("gin validator engine is not go-playground/validator")
			return
		}
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			slog.Error("failed to register notblank validator", "error", err)
		}
	})
}

// FormErrorMessage turns a binding error into a sentence suitable for an
// inline form error.
func FormErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "The form could not be read. Please try again."
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
