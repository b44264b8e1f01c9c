package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vending/internal/auth"
	apperrors "vending/internal/errors"
	"vending/internal/model"
	"vending/internal/repository"
)

const (
	bcryptCost        = 10
	minPasswordLength = 8

	// ActiveSessionWarning is returned by Login when the account was already signed in elsewhere.
	ActiveSessionWarning = "There is already an active session using your account"
)

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, username, password string, role model.Role) (*model.User, error)
	Login(ctx context.Context, username, password, ip string) (*LoginResult, error)
	LogoutAll(ctx context.Context, userID uuid.UUID) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	sessions   auth.SessionStore
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, sessions auth.SessionStore) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		sessions:   sessions,
	}
}

// Register creates a new user with a hashed password and zero balance.
func (s *authService) Register(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role value")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("Password can not be less than 8")
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return user, nil
}

// Login verifies credentials, issues a token and records a session for it.
func (s *authService) Login(ctx context.Context, username, password, ip string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	result := &LoginResult{}
	active, err := s.sessions.HasActive(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if active {
		result.Message = ActiveSessionWarning
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	if err := s.sessions.Create(ctx, user.ID, token, ip); err != nil {
		return nil, err
	}
	result.Token = token

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "ip": ip}).Info("user logged in")
	return result, nil
}

// LogoutAll revokes every session of the user.
func (s *authService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	logrus.WithField("user_id", userID).Info("all sessions revoked")
	return nil
}
