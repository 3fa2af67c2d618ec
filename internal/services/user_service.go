package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"userbase/internal/authz"
	"userbase/internal/caching"
	"userbase/internal/common"
	"userbase/internal/models"
	"userbase/internal/repositories"

	"github.com/google/uuid"
)

// reportCacheTTL bounds how stale a cached inactive users report can get
// between scheduler refreshes and login invalidations.
const reportCacheTTL = 15 * time.Minute

// CreateUserRequest is the admin-initiated creation payload.
type CreateUserRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
	IsActive *bool       `json:"isActive"`
}

// UpdateUserPatch carries the fields an update may touch; nil means keep.
type UpdateUserPatch struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"isActive"`
}

// ProfilePatch is the self-service subset of UpdateUserPatch.
type ProfilePatch struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

type UserService interface {
	Create(ctx context.Context, actor authz.Actor, req *CreateUserRequest) (*models.User, error)
	List(ctx context.Context, actor authz.Actor, filter repositories.ListFilter) ([]*models.User, error)
	Get(ctx context.Context, actor authz.Actor, targetID uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, actorID uuid.UUID) (*models.User, error)
	Update(ctx context.Context, actor authz.Actor, targetID uuid.UUID, patch *UpdateUserPatch) (*models.User, error)
	UpdateProfile(ctx context.Context, actorID uuid.UUID, patch *ProfilePatch) (*models.User, error)
	Delete(ctx context.Context, actor authz.Actor, targetID uuid.UUID) error
	ListInactive(ctx context.Context, actor authz.Actor) ([]*models.User, error)
	RefreshInactiveReport(ctx context.Context) error
}

type userService struct {
	userRepo repositories.UserRepository
	hasher   PasswordHasher
	cache    caching.CacheService
}

func NewUserService(userRepo repositories.UserRepository, hasher PasswordHasher, cache caching.CacheService) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
		cache:    cache,
	}
}

func (s *userService) Create(ctx context.Context, actor authz.Actor, req *CreateUserRequest) (*models.User, error) {
	if d := authz.CanCreateUser(actor); !d.Allowed() {
		return nil, common.NewForbidden(d.Reason())
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, common.NewValidation(fmt.Sprintf("unknown role %q", role))
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: digest,
		Role:         role,
		IsActive:     isActive,
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
	return user, nil
}

func (s *userService) List(ctx context.Context, actor authz.Actor, filter repositories.ListFilter) ([]*models.User, error) {
	if d := authz.CanListUsers(actor); !d.Allowed() {
		return nil, common.NewForbidden(d.Reason())
	}
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get checks the view policy before touching the store, so an unauthorized
// actor learns nothing about whether the target exists.
func (s *userService) Get(ctx context.Context, actor authz.Actor, targetID uuid.UUID) (*models.User, error) {
	if d := authz.CanViewUser(actor, targetID); !d.Allowed() {
		return nil, common.NewForbidden(d.Reason())
	}
	user, err := s.userRepo.GetByID(ctx, targetID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, common.NewNotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, actorID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, actorID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, common.NewNotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Update checks the update policy first, then loads the target. A self-update
// by a non-admin can never change role or activation status: an explicit
// request to do so is denied, and the fields are otherwise left untouched.
func (s *userService) Update(ctx context.Context, actor authz.Actor, targetID uuid.UUID, patch *UpdateUserPatch) (*models.User, error) {
	if d := authz.CanUpdateUser(actor, targetID); !d.Allowed() {
		return nil, common.NewForbidden(d.Reason())
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, common.NewNotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if patch.Role != nil || patch.IsActive != nil {
		if d := authz.CanChangeRole(actor); !d.Allowed() {
			return nil, common.NewForbidden(d.Reason())
		}
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, common.NewValidation(fmt.Sprintf("unknown role %q", *patch.Role))
		}
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Password != nil {
		digest, hashErr := s.hasher.Hash(*patch.Password)
		if hashErr != nil {
			return nil, fmt.Errorf("failed to hash password: %w", hashErr)
		}
		user.PasswordHash = digest
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, common.NewConflict("email already in use")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actorID uuid.UUID, patch *ProfilePatch) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, actorID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, common.NewNotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Password != nil {
		digest, hashErr := s.hasher.Hash(*patch.Password)
		if hashErr != nil {
			return nil, fmt.Errorf("failed to hash password: %w", hashErr)
		}
		user.PasswordHash = digest
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// Delete checks the policy before existence; admins may delete any account,
// including their own.
func (s *userService) Delete(ctx context.Context, actor authz.Actor, targetID uuid.UUID) error {
	if d := authz.CanDeleteUser(actor); !d.Allowed() {
		return common.NewForbidden(d.Reason())
	}
	err := s.userRepo.Delete(ctx, targetID)
	if errors.Is(err, repositories.ErrNotFound) {
		return common.NewNotFound("user")
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ListInactive serves the report from cache when possible and recomputes it
// on a miss.
func (s *userService) ListInactive(ctx context.Context, actor authz.Actor) ([]*models.User, error) {
	if d := authz.CanViewInactiveReport(actor); !d.Allowed() {
		return nil, common.NewForbidden(d.Reason())
	}

	users, err := s.cache.GetInactiveReport(ctx)
	if err == nil {
		return users, nil
	}
	if !errors.Is(err, caching.ErrCacheMiss) {
		return nil, fmt.Errorf("failed to read inactive report: %w", err)
	}

	return s.computeInactiveReport(ctx)
}

// RefreshInactiveReport recomputes the report and replaces the cached copy;
// the background scheduler calls it on an interval.
func (s *userService) RefreshInactiveReport(ctx context.Context) error {
	_, err := s.computeInactiveReport(ctx)
	return err
}

func (s *userService) computeInactiveReport(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.FindInactive(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to compute inactive report: %w", err)
	}
	if err := s.cache.SetInactiveReport(ctx, users, reportCacheTTL); err != nil {
		log.Printf("WARN: failed to cache inactive report: %v", err)
		// Continue - the report itself was computed fine
	}
	return users, nil
}
