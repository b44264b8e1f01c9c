package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vending/internal/cache"
	apperrors "vending/internal/errors"
	"vending/internal/model"
	"vending/internal/repository"
)

// PurchaseResult describes a completed purchase. Balance is the buyer's
// remaining deposit expressed as coins.
type PurchaseResult struct {
	TotalCost int64          `json:"total_cost"`
	Balance   []int64        `json:"balance"`
	Product   *model.Product `json:"product"`
}

// PurchaseService executes buy transactions.
type PurchaseService interface {
	Buy(ctx context.Context, productID, buyerID uuid.UUID, quantity int64) (*PurchaseResult, error)
}

type purchaseService struct {
	tx    repository.Transactor
	cache *cache.Client
}

// NewPurchaseService creates a new purchase service.
func NewPurchaseService(tx repository.Transactor, cache *cache.Client) PurchaseService {
	return &purchaseService{tx: tx, cache: cache}
}

// Buy decrements stock and balance in one transaction. Checks run in a fixed
// order: product exists, not out of stock, enough stock, enough balance.
func (s *purchaseService) Buy(ctx context.Context, productID, buyerID uuid.UUID, quantity int64) (*PurchaseResult, error) {
	if quantity < 1 {
		return nil, apperrors.NewValidationError("Quantity of product can not be less than 1")
	}

	var result *PurchaseResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// Lock order is product then buyer for every purchase.
		product, err := repos.Products.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return productLookupError(err)
		}

		if product.AmountAvailable == 0 {
			return apperrors.ErrOutOfStock
		}
		if product.AmountAvailable < quantity {
			return apperrors.ErrInsufficientStock
		}

		buyer, err := repos.Users.FindByIDForUpdate(ctx, buyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("find buyer: %w", err)
		}

		totalCost := quantity * product.Cost
		if buyer.Deposit < totalCost {
			return apperrors.ErrInsufficientFunds
		}

		ok, err := repos.Products.DecrementStock(ctx, productID, quantity)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			return apperrors.ErrInsufficientStock
		}

		ok, err = repos.Users.DeductDeposit(ctx, buyerID, totalCost)
		if err != nil {
			return fmt.Errorf("deduct deposit: %w", err)
		}
		if !ok {
			return apperrors.ErrInsufficientFunds
		}

		product.AmountAvailable -= quantity
		result = &PurchaseResult{
			TotalCost: totalCost,
			Balance:   CalculateChange(buyer.Deposit - totalCost),
			Product:   product,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, userCacheKey(buyerID), productListCacheKey)

	logrus.WithFields(logrus.Fields{
		"buyer_id":   buyerID,
		"product_id": productID,
		"quantity":   quantity,
		"total_cost": result.TotalCost,
	}).Info("purchase completed")
	return result, nil
}
