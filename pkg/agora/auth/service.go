package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// Service authenticates users against the users table.
type Service struct {
	store  *store.Store
	tokens *Tokens
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an authentication service.
func NewService(s *store.Store, tokens *Tokens, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, tokens: tokens, logger: logger, now: time.Now}
}

// Tokens returns the token issuer used by the service.
func (s *Service) Tokens() *Tokens { return s.tokens }

// LoginResult is returned on successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login checks email and password and issues an access token. Unknown
// emails and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.Users.FetchOne(ctx, store.Eq(store.UserCol.Email, email))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to look up user")
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return nil, apperr.Wrap(apperr.Unauthorized, ErrInvalidCredentials, "Invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to generate token")
	}

	now := s.now()
	if _, err := s.store.Users.Update(ctx, store.Eq(store.UserCol.ID, user.ID), store.Set(store.UserCol.LastLogin, &now)); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
	}

	return &LoginResult{AccessToken: token, TokenType: "bearer"}, nil
}

// ResolveCurrentUser verifies token and loads the user it names.
func (s *Service) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil, apperr.Wrap(apperr.Unauthorized, err, "Token has expired.")
		}
		return nil, apperr.Wrap(apperr.Unauthorized, err, "Could not validate credentials.")
	}

	user, err := s.store.Users.FetchOne(ctx, store.Eq(store.UserCol.ID, claims.UserID))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to look up user")
	}
	if user == nil {
		return nil, apperr.Wrap(apperr.Unauthorized, ErrUserNotFound, "Could not validate credentials.")
	}
	return user, nil
}
