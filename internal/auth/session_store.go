package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "vending/internal/errors"
	"vending/internal/model"
	"vending/internal/repository"
)

// SessionStore tracks which bearer tokens are currently valid.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID, token, ip string) error
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	HasActive(ctx context.Context, userID uuid.UUID) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

type sessionStore struct {
	repo repository.SessionRepository
}

// Ensure sessionStore implements SessionStore
var _ SessionStore = (*sessionStore)(nil)

// NewSessionStore creates a session store backed by the session repository.
func NewSessionStore(repo repository.SessionRepository) SessionStore {
	return &sessionStore{repo: repo}
}

// HashToken returns the hex SHA-256 of a token. Raw tokens are never stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *sessionStore) Create(ctx context.Context, userID uuid.UUID, token, ip string) error {
	session := &model.Session{
		UserID:    userID,
		TokenHash: HashToken(token),
		IP:        ip,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindByToken returns the session for token, or ErrInvalidToken if there is none.
func (s *sessionStore) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	session, err := s.repo.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

func (s *sessionStore) HasActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("count sessions: %w", err)
	}
	return count > 0, nil
}

func (s *sessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}
