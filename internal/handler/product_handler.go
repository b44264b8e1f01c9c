package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"vending/internal/auth"
	apperrors "vending/internal/errors"
	"vending/internal/service"
)

// ProductHandler handles inventory and purchase endpoints.
type ProductHandler struct {
	productService  service.ProductService
	purchaseService service.PurchaseService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService service.ProductService, purchaseService service.PurchaseService) *ProductHandler {
	return &ProductHandler{productService: productService, purchaseService: purchaseService}
}

// CreateProductRequest represents a new product.
type CreateProductRequest struct {
	ProductName     string `json:"product_name" validate:"required"`
	Cost            int64  `json:"cost" validate:"required,min=5,max=100,coin_multiple"`
	AmountAvailable int64  `json:"amount_available" validate:"required,min=1"`
}

// UpdateProductRequest represents a product update. Stock may be set to zero.
type UpdateProductRequest struct {
	ProductName     string `json:"product_name" validate:"required"`
	Cost            int64  `json:"cost" validate:"required,min=5,max=100,coin_multiple"`
	AmountAvailable *int64 `json:"amount_available" validate:"required,min=0"`
}

// BuyRequest represents a purchase.
type BuyRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"required,min=1"`
}

// List godoc
// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {object} Response{data=[]model.Product}
// @Failure 500 {object} errors.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.productService.List(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "", products)
}

// Get godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} Response{data=model.Product}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	product, err := h.productService.Get(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "", product)
}

// Create godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProductRequest true "Product data"
// @Success 201 {object} Response{data=model.Product}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return fail(err)
	}

	var req CreateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.productService.Create(c.Request().Context(), identity.UserID, req.ProductName, req.Cost, req.AmountAvailable)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusCreated, "", product)
}

// Update godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body UpdateProductRequest true "Product data"
// @Success 200 {object} Response{data=model.Product}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return fail(err)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req UpdateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.productService.Update(c.Request().Context(), id, identity.UserID, req.ProductName, req.Cost, *req.AmountAvailable)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "Product updated successfully", product)
}

// Delete godoc
// @Summary Delete a product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return fail(err)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.productService.Delete(c.Request().Context(), id, identity.UserID); err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "Product deleted successfully", nil)
}

// Buy godoc
// @Summary Buy a product
// @Description Charges quantity times cost and returns the remaining deposit as coins.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BuyRequest true "Purchase"
// @Success 200 {object} Response{data=service.PurchaseResult}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/buy [post]
func (h *ProductHandler) Buy(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return fail(err)
	}

	var req BuyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fail(apperrors.NewValidationError("Invalid product id value"))
	}

	result, err := h.purchaseService.Buy(c.Request().Context(), productID, identity.UserID, req.Quantity)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "", result)
}
