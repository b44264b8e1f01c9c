package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized, "Authorization token is required."},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized, "Invalid Token."},
		{"invalid credentials", ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username/password"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "You do not have permission to access this route"},
		{"product not found", ErrProductNotFound, http.StatusNotFound, "Product not found"},
		{"wrapped user not found", fmt.Errorf("load buyer: %w", ErrUserNotFound), http.StatusNotFound, "User not found"},
		{"duplicate product", ErrDuplicateProductName, http.StatusBadRequest, "You have a product with same name"},
		{"username taken", ErrUsernameTaken, http.StatusBadRequest, "Username already exist!"},
		{"out of stock", ErrOutOfStock, http.StatusBadRequest, "Out of stock"},
		{"insufficient stock", ErrInsufficientStock, http.StatusBadRequest, "Requested quantity is not available at the moment."},
		{"insufficient funds", ErrInsufficientFunds, http.StatusBadRequest, "Insufficient balance"},
		{"invalid coin", ErrInvalidCoin, http.StatusBadRequest, "Invalid coin. Accepted coins are 5,10,20,50 and 100"},
		{"validation", NewValidationError("Quantity is required"), http.StatusBadRequest, "Quantity is required"},
		{"storage failure", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.expectedStatus, httpErr.StatusCode)
			assert.Equal(t, tt.expectedMessage, httpErr.ToErrorResponse().Message)
		})
	}
}

func TestValidationError_MatchesValidationFailed(t *testing.T) {
	err := fmt.Errorf("deposit: %w", NewValidationError("bad amount"))

	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.False(t, errors.Is(ErrOutOfStock, ErrValidationFailed))
}
