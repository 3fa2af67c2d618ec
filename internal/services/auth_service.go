package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"userbase/internal/caching"
	"userbase/internal/common"
	"userbase/internal/models"
	"userbase/internal/repositories"

	"github.com/google/uuid"
)

// LoginResult is returned by every successful authentication path.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// GoogleProfile is the identity asserted by a verified Google ID token.
type GoogleProfile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// AuthService implements login, registration and federated login. Every
// successful authentication updates the user's last login before the
// response is returned.
type AuthService interface {
	Login(ctx context.Context, email, secret string) (*LoginResult, error)
	Register(ctx context.Context, name, email, secret string) (*LoginResult, error)
	LoginWithGoogle(ctx context.Context, profile *GoogleProfile) (*LoginResult, error)
}

type authService struct {
	userRepo repositories.UserRepository
	hasher   PasswordHasher
	tokens   TokenService
	cache    caching.CacheService
}

func NewAuthService(userRepo repositories.UserRepository, hasher PasswordHasher, tokens TokenService, cache caching.CacheService) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		cache:    cache,
	}
}

// Login verifies an email/secret pair. Unknown email and wrong secret answer
// with the same message so callers cannot enumerate accounts.
func (s *authService) Login(ctx context.Context, email, secret string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, common.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(secret, user.PasswordHash) {
		return nil, common.NewUnauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, common.NewUnauthorized("user is inactive")
	}

	return s.finishLogin(ctx, user)
}

// Register creates a user-role account and logs it in immediately.
func (s *authService) Register(ctx context.Context, name, email, secret string) (*LoginResult, error) {
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.NewConflict("email already in use")
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	digest, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: digest,
		Role:         models.RoleUser,
		IsActive:     true,
		LastLogin:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, common.NewConflict("email already in use")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &LoginResult{AccessToken: token, User: user}, nil
}

// LoginWithGoogle provisions an account on first sight of a federated
// identity. The Google subject stands in for a secret the user never set;
// email/password access requires setting a password through a profile update.
// Repeat logins with the same email are idempotent.
func (s *authService) LoginWithGoogle(ctx context.Context, profile *GoogleProfile) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, profile.Email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		digest, hashErr := s.hasher.Hash(profile.Subject)
		if hashErr != nil {
			return nil, fmt.Errorf("failed to hash federated identifier: %w", hashErr)
		}
		now := time.Now().UTC()
		user = &models.User{
			ID:           uuid.New(),
			Name:         profile.Name,
			Email:        profile.Email,
			PasswordHash: digest,
			Role:         models.RoleUser,
			IsActive:     true,
			LastLogin:    &now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if createErr := s.userRepo.Create(ctx, user); createErr != nil {
			return nil, fmt.Errorf("failed to provision federated user: %w", createErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	case !user.IsActive:
		return nil, common.NewUnauthorized("user is inactive")
	}

	return s.finishLogin(ctx, user)
}

// finishLogin touches last login and issues the bearer token.
func (s *authService) finishLogin(ctx context.Context, user *models.User) (*LoginResult, error) {
	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now

	if err := s.cache.InvalidateInactiveReport(ctx); err != nil {
		log.Printf("WARN: failed to invalidate inactive report cache: %v", err)
		// Continue - the cached report simply expires on its own TTL
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &LoginResult{AccessToken: token, User: user}, nil
}
