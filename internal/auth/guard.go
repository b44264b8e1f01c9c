package auth

import (
	"errors"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "vending/internal/errors"
	"vending/internal/model"
)

// identityKey is the echo context key the guard stores the caller under.
const identityKey = "identity"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uuid.UUID
	Role   model.Role
}

// Guard authenticates bearer tokens against the session store.
type Guard struct {
	jwt      *JWTService
	sessions SessionStore
}

// NewGuard creates a new guard.
func NewGuard(jwt *JWTService, sessions SessionStore) *Guard {
	return &Guard{jwt: jwt, sessions: sessions}
}

// Middleware returns the echo middleware protecting a route group.
func (g *Guard) Middleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:     identityKey,
		TokenLookup:    "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: g.ParseToken,
		ErrorHandler:   guardErrorHandler,
	})
}

// ParseToken resolves a raw bearer token into an Identity. The session
// lookup runs before signature verification, so a revoked token is rejected
// even while its signature is still valid.
func (g *Guard) ParseToken(c echo.Context, token string) (interface{}, error) {
	session, err := g.sessions.FindByToken(c.Request().Context(), token)
	if err != nil {
		return nil, err
	}

	claims, err := g.jwt.ValidateToken(token)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil || userID != session.UserID {
		return nil, apperrors.ErrInvalidToken
	}

	return &Identity{UserID: userID, Role: claims.Role}, nil
}

// guardErrorHandler turns extractor failures into ErrUnauthenticated and
// passes parse failures through for the HTTP error handler to map.
func guardErrorHandler(c echo.Context, err error) error {
	var parseErr *echojwt.TokenParsingError
	if errors.As(err, &parseErr) {
		return parseErr.Err
	}
	return apperrors.ErrUnauthenticated
}

// IdentityFrom returns the caller stored by the guard.
func IdentityFrom(c echo.Context) (*Identity, error) {
	identity, ok := c.Get(identityKey).(*Identity)
	if !ok || identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return identity, nil
}

// Authorize checks that identity holds the required role.
func Authorize(identity *Identity, required model.Role) error {
	if identity == nil {
		return apperrors.ErrUnauthenticated
	}
	if identity.Role != required {
		return apperrors.ErrForbidden
	}
	return nil
}

// RequireRole rejects callers without the given role. It must run after the
// guard middleware.
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := IdentityFrom(c)
			if err != nil {
				return err
			}
			if err := Authorize(identity, role); err != nil {
				return err
			}
			return next(c)
		}
	}
}
