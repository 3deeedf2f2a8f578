package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"nimbus/internal/config"
	"nimbus/internal/domain"
	"nimbus/internal/domain/models"
	"nimbus/internal/domain/repositories"
	"nimbus/internal/domain/services"
)

type service struct {
	users  repositories.UserRepository
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
}

// NewService creates the access boundary. Tokens are HS256-signed with
// secret and live for config.SessionTTL.
func NewService(users repositories.UserRepository, secret string, logger *slog.Logger) services.AuthService {
	return &service{
		users:  users,
		secret: []byte(secret),
		ttl:    config.SessionTTL,
		logger: logger,
	}
}

// SignIn checks the password against the stored bcrypt hash and mints a
// session token. An unknown username and a wrong password are
// indistinguishable to the caller.
func (s *service) SignIn(ctx context.Context, username, password string) (*services.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.BadRequest(domain.KindInvalidCredentials, "invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.BadRequest(domain.KindInvalidCredentials, "invalid credentials")
	}

	expiresAt := time.Now().Add(s.ttl)
	claims := &models.SessionClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, domain.Internal(domain.KindInternal, "sign session token", err)
	}

	s.logger.Info("user signed in", "user_id", user.ID, "username", user.Username)

	return &services.Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Verify parses the token, pins the algorithm to HS256 and loads the owner.
// Every failure collapses to the same unauthorized error.
func (s *service) Verify(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{},
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !token.Valid {
		return nil, domain.Unauthorized()
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || claims.Subject == "" {
		return nil, domain.Unauthorized()
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthorized()
		}
		return nil, err
	}

	return user, nil
}
