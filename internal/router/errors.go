package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	apperrors "vending/internal/errors"
)

// HTTPErrorHandler renders every failure as the {"message": ...} envelope.
// Domain errors returned straight from middleware are mapped here too.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := resolve(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Error("internal error")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, apperrors.ErrorResponse{Message: message})
	}
	if writeErr != nil {
		logrus.WithError(writeErr).Warn("write error response")
	}
}

func resolve(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch m := he.Message.(type) {
		case apperrors.ErrorResponse:
			return he.Code, m.Message
		case string:
			return he.Code, m
		default:
			return he.Code, http.StatusText(he.Code)
		}
	}
	httpErr := apperrors.MapErrorToHTTP(err)
	return httpErr.StatusCode, httpErr.Message
}
