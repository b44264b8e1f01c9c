package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"vending/internal/auth"
	"vending/internal/model"
	"vending/internal/service"
)

// UserHandler handles the authenticated user's account and wallet.
type UserHandler struct {
	userService   service.UserService
	walletService service.WalletService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService, walletService service.WalletService) *UserHandler {
	return &UserHandler{userService: userService, walletService: walletService}
}

// UpdateUserRequest represents a profile update.
type UpdateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=buyer seller"`
}

// DepositRequest represents a single coin deposit.
type DepositRequest struct {
	Amount int64 `json:"amount" validate:"required,oneof=5 10 20 50 100"`
}

// Profile godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=model.User}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user [get]
func (h *UserHandler) Profile(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return fail(err)
	}

	user, err := h.userService.Profile(c.Request().Context(), identity.UserID)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "", user)
}

// Update godoc
// @Summary Update the current user
// @Description Changing the role signs the user out of every session.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateUserRequest true "Profile data"
// @Success 200 {object} Response{data=model.User}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user [put]
func (h *UserHandler) Update(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return fail(err)
	}

	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Update(c.Request().Context(), identity.UserID, req.Username, model.Role(req.Role))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "Profile updated successfully", user)
}

// Delete godoc
// @Summary Delete the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return fail(err)
	}

	if err := h.userService.Delete(c.Request().Context(), identity.UserID); err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "Account deleted successfully", nil)
}

// Deposit godoc
// @Summary Deposit a coin
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DepositRequest true "Coin"
// @Success 200 {object} Response{data=model.User}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /user/deposit [post]
func (h *UserHandler) Deposit(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return fail(err)
	}

	var req DepositRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.walletService.Deposit(c.Request().Context(), identity.UserID, req.Amount)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "", user)
}

// Reset godoc
// @Summary Reset deposit to zero
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=model.User}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /user/reset [post]
func (h *UserHandler) Reset(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return fail(err)
	}

	user, err := h.walletService.Reset(c.Request().Context(), identity.UserID)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "", user)
}
