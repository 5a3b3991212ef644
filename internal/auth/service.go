package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"ecommerce-backend/internal/user"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthResult struct {
	Tokens TokenPair
	User   *user.User
}

type Service interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error)
}

type service struct {
	users  user.Service
	tokens RefreshTokenRepository
	issuer *TokenIssuer
}

func NewService(users user.Service, tokens RefreshTokenRepository, issuer *TokenIssuer) Service {
	return &service{users: users, tokens: tokens, issuer: issuer}
}

func (s *service) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	u, err := s.users.CreateUser(ctx, name, email, password, user.RoleCustomer)
	if err != nil {
		return nil, err
	}

	return s.issuePair(ctx, u)
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service: failed to fetch user for login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", u.Email).Msg("service: login with wrong password")
		return nil, ErrInvalidCredentials
	}

	// Housekeeping: expired tokens are marked revoked on every login.
	if err := s.tokens.RevokeExpiredForUser(ctx, u.ID); err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to revoke expired refresh tokens")
	}

	result, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, err
	}

	log.Info().Stringer("user_id", u.ID).Str("email", u.Email).Msg("service: user logged in")

	return result, nil
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	claims, err := s.issuer.ParseAccessToken(accessToken, true)
	if err != nil {
		return nil, ErrInvalidToken
	}

	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("service: failed to fetch refresh token: %w", err)
	}

	if stored.UserID != claims.UserID || stored.IsRevoked() {
		log.Warn().Stringer("user_id", claims.UserID).Msg("service: refresh with revoked or mismatched token")
		return nil, ErrInvalidToken
	}

	u, err := s.users.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("service: failed to fetch user for refresh: %w", err)
	}

	result, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, err
	}

	// Rotation: the consumed token must be revoked and linked to its
	// successor before the new pair is handed out. If the revocation fails
	// the new pair is withheld, so the client can only ever hold one live
	// refresh token.
	if err := s.tokens.Revoke(ctx, stored.Token, &result.Tokens.RefreshToken); err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to revoke rotated refresh token")
		return nil, fmt.Errorf("service: failed to revoke rotated refresh token: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: tokens refreshed")

	return result, nil
}

func (s *service) issuePair(ctx context.Context, u *user.User) (*AuthResult, error) {
	accessToken, accessExpiresAt, err := s.issuer.IssueAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("service: failed to issue access token: %w", err)
	}

	refreshValue, err := NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate refresh token: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate refresh token id: %w", err)
	}

	refresh := &RefreshToken{
		ID:        id,
		UserID:    u.ID,
		Token:     refreshValue,
		ExpiresAt: time.Now().UTC().Add(s.issuer.RefreshTokenTTL()),
	}

	if err := s.tokens.Create(ctx, refresh); err != nil {
		return nil, fmt.Errorf("service: failed to store refresh token: %w", err)
	}

	return &AuthResult{
		Tokens: TokenPair{
			AccessToken:           accessToken,
			AccessTokenExpiresAt:  accessExpiresAt,
			RefreshToken:          refresh.Token,
			RefreshTokenExpiresAt: refresh.ExpiresAt,
		},
		User: u,
	}, nil
}
