package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"vending/internal/auth"
	"vending/internal/cache"
	apperrors "vending/internal/errors"
	"vending/internal/model"
	"vending/internal/repository"
)

// UserService exposes account operations for the authenticated user.
type UserService interface {
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	Update(ctx context.Context, userID uuid.UUID, username string, role model.Role) (*model.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	repo     repository.UserRepository
	sessions auth.SessionStore
	cache    *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, sessions auth.SessionStore, cache *cache.Client) UserService {
	return &userService{repo: repo, sessions: sessions, cache: cache}
}

func (s *userService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, userCacheKey(userID), &cached) {
		return &cached, nil
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(ctx, userCacheKey(userID), user, userCacheTTL)
	return user, nil
}

// Update changes username and role. A role change revokes every session,
// since issued tokens carry the old role.
func (s *userService) Update(ctx context.Context, userID uuid.UUID, username string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role value")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if username != user.Username {
		other, err := s.repo.FindByUsername(ctx, username)
		if err == nil && other.ID != user.ID {
			return nil, apperrors.ErrUsernameTaken
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check username: %w", err)
		}
	}

	roleChanged := user.Role != role
	user.Username = username
	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUsernameTaken
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(userID))

	if roleChanged {
		if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"user_id": userID, "role": role}).Info("role changed, sessions revoked")
	}
	return user, nil
}

// Delete removes the account and all of its sessions.
func (s *userService) Delete(ctx context.Context, userID uuid.UUID) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.repo.Delete(gctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.sessions.RevokeAllForUser(gctx, userID)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	_ = s.cache.Delete(ctx, userCacheKey(userID), productListCacheKey)
	logrus.WithField("user_id", userID).Info("account deleted")
	return nil
}

func (s *userService) findUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
