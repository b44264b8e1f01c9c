package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when the bearer token is missing or malformed.
	ErrUnauthenticated = errors.New("Authorization token is required.")
	// ErrInvalidToken is returned when the token has no session or fails verification.
	ErrInvalidToken = errors.New("Invalid Token.")
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("Invalid username/password")
	// ErrForbidden is returned when the caller's role may not use a route.
	ErrForbidden = errors.New("You do not have permission to access this route")

	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("User not found")
	// ErrProductNotFound is returned when a product is absent or not owned by the caller.
	ErrProductNotFound = errors.New("Product not found")

	// ErrUsernameTaken is returned when a username is already registered.
	ErrUsernameTaken = errors.New("Username already exist!")
	// ErrDuplicateProductName is returned when a seller already owns a product with the name.
	ErrDuplicateProductName = errors.New("You have a product with same name")

	// ErrOutOfStock is returned when a product has no units left.
	ErrOutOfStock = errors.New("Out of stock")
	// ErrInsufficientStock is returned when fewer units are available than requested.
	ErrInsufficientStock = errors.New("Requested quantity is not available at the moment.")
	// ErrInsufficientFunds is returned when the buyer cannot pay the total cost.
	ErrInsufficientFunds = errors.New("Insufficient balance")

	// ErrValidationFailed is returned for malformed input.
	ErrValidationFailed = errors.New("invalid request")
	// ErrInvalidCoin is returned when a deposit is not an accepted coin.
	ErrInvalidCoin = &ValidationError{Message: "Invalid coin. Accepted coins are 5,10,20,50 and 100"}
)

// ValidationError carries a user facing validation message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes every ValidationError match ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidationFailed {
		return true
	}
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ErrorResponse represents the failure envelope.
type ErrorResponse struct {
	Message string `json:"message"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{Message: e.Message}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unclassified errors are
// storage failures and never expose their text.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return NewHTTPError(http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, rootMessage(err))
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error())
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrProductNotFound):
		return NewHTTPError(http.StatusNotFound, rootMessage(err))
	case errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrDuplicateProductName),
		errors.Is(err, ErrOutOfStock),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrValidationFailed):
		return NewHTTPError(http.StatusBadRequest, rootMessage(err))
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// rootMessage returns the message of the sentinel err wraps, dropping any
// context added with fmt.Errorf.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		ErrUnauthenticated, ErrInvalidToken, ErrInvalidCredentials,
		ErrUserNotFound, ErrProductNotFound,
		ErrUsernameTaken, ErrDuplicateProductName,
		ErrOutOfStock, ErrInsufficientStock, ErrInsufficientFunds,
		ErrValidationFailed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
