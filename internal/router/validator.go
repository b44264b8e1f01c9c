package router

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "vending/internal/errors"
)

// CustomValidator wraps validator for Echo and turns failures into
// user facing validation errors.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the request validator with the coin_multiple tag.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// coin_multiple accepts integers that are a multiple of the smallest coin.
	_ = v.RegisterValidation("coin_multiple", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%5 == 0
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.NewValidationError("Invalid request body")
	}
	return fieldError(verrs[0])
}

func fieldError(fe validator.FieldError) error {
	field := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperrors.NewValidationError(field + " is required")
	case "min":
		return apperrors.NewValidationError(fmt.Sprintf("%s can not be less than %s", field, fe.Param()))
	case "max":
		return apperrors.NewValidationError(fmt.Sprintf("%s can not be more than %s", field, fe.Param()))
	case "coin_multiple":
		return apperrors.NewValidationError(field + " must be multiple of 5")
	case "oneof":
		if fe.Field() == "amount" {
			return apperrors.ErrInvalidCoin
		}
		return apperrors.NewValidationError(fmt.Sprintf("Invalid %s value", strings.ToLower(field)))
	default:
		return apperrors.NewValidationError(fmt.Sprintf("Invalid %s value", strings.ToLower(field)))
	}
}

// humanize turns a json field name like product_name into "Product name".
func humanize(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return "Value"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
