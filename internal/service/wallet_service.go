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

// WalletService handles buyer deposits.
type WalletService interface {
	Deposit(ctx context.Context, userID uuid.UUID, amount int64) (*model.User, error)
	Reset(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type walletService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewWalletService creates a new wallet service.
func NewWalletService(repo repository.UserRepository, cache *cache.Client) WalletService {
	return &walletService{repo: repo, cache: cache}
}

// Deposit adds a single coin to the user's balance.
func (s *walletService) Deposit(ctx context.Context, userID uuid.UUID, amount int64) (*model.User, error) {
	if !IsCoin(amount) {
		return nil, apperrors.ErrInvalidCoin
	}

	if err := s.repo.IncrementDeposit(ctx, userID, amount); err != nil {
		return nil, walletError(err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(userID))

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, walletError(err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
		"deposit": user.Deposit,
	}).Info("deposit accepted")
	return user, nil
}

// Reset sets the user's balance to zero.
func (s *walletService) Reset(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if err := s.repo.ResetDeposit(ctx, userID); err != nil {
		return nil, walletError(err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(userID))

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, walletError(err)
	}
	return user, nil
}

func walletError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	return fmt.Errorf("update deposit: %w", err)
}
