package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "vending/internal/errors"
)

// Response is the success envelope shared by every endpoint.
type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	if data == nil {
		data = struct{}{}
	}
	return c.JSON(status, Response{Message: message, Data: data})
}

// fail converts a service error into an echo error carrying the failure
// envelope. The cause is kept for logging.
func fail(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

// bindAndValidate decodes the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fail(apperrors.NewValidationError("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return fail(err)
	}
	return nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fail(apperrors.NewValidationError("Invalid Id value"))
	}
	return id, nil
}
