package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-admin/pkg/logger"
)

// ServiceAPI is what the HTTP layer consumes from the auth core.
type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (TokenResponse, error)
	Register(ctx context.Context, dto RegisterDTO) (*userDatamodel.User, error)
	Authorize(ctx context.Context, token, permission string) (*User, error)
	CurrentUser(ctx context.Context, token string) (*User, error)
}

// Service is the main auth service with dependencies
type Service struct {
	users     UserStore
	evaluator PermissionEvaluator
	hasher    PasswordHasher
	tokens    TokenGenerator
	tokenTTL  time.Duration
	now       func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

// NewService creates a new auth service
func NewService(users UserStore, evaluator PermissionEvaluator, hasher PasswordHasher, tokens TokenGenerator, tokenTTL time.Duration) *Service {
	return &Service{
		users:     users,
		evaluator: evaluator,
		hasher:    hasher,
		tokens:    tokens,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Authenticate validates credentials and returns a bearer token. An unknown
// username and a wrong password produce the same error.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (TokenResponse, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return TokenResponse{}, appErr
	}

	lg := logger.From(ctx)

	u, err := s.users.GetByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			s.verifyDummy(dto.Password)
			lg.Warn("login failed: unknown username", "username", dto.Username)
			return TokenResponse{}, internal.ErrInvalidCredentials
		}
		return TokenResponse{}, fmt.Errorf("load user %q: %w", dto.Username, err)
	}

	ok, err := s.hasher.Verify(dto.Password, u.HashedPassword)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("verify password for user %d: %w", u.ID, err)
	}
	if !ok {
		lg.Warn("login failed: password mismatch", "username", dto.Username, "user_id", u.ID)
		return TokenResponse{}, internal.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(u.Username, s.tokenTTL)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("issue token: %w", err)
	}

	// last_login is informational; a failed write does not fail the login.
	if err := s.users.TouchLastLogin(ctx, u.ID, s.now()); err != nil {
		lg.Error("failed to record last login", "user_id", u.ID, "error", err)
	}

	lg.Info("login succeeded", "user_id", u.ID)

	return TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokenTTL / time.Second),
	}, nil
}

// verifyDummy spends one verify on a throwaway digest so a miss on username
// costs the same as a wrong password.
func (s *Service) verifyDummy(plain string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("rbac-admin-unused-password")
		if err == nil {
			s.dummyDigest = digest
		}
	})
	if s.dummyDigest != "" {
		_, _ = s.hasher.Verify(plain, s.dummyDigest)
	}
}

// Register creates a user with no roles.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*userDatamodel.User, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &userDatamodel.User{
		Username:       dto.Username,
		Email:          dto.Email,
		FullName:       dto.FullName,
		HashedPassword: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.From(ctx).Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Authorize resolves token to a user and requires permission to be in that
// user's effective permission set.
func (s *Service) Authorize(ctx context.Context, token, permission string) (*User, error) {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	if !principal.HasPermission(permission) {
		return principal, internal.ErrForbidden.WithDetails(map[string]string{"required_permission": permission})
	}

	return principal, nil
}

// CurrentUser resolves token to a user without a permission check.
func (s *Service) CurrentUser(ctx context.Context, token string) (*User, error) {
	return s.resolve(ctx, token)
}

func (s *Service) resolve(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, internal.ErrUnauthenticated
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, internal.ErrUnauthenticated.WithCause(err)
	}

	u, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrUnauthenticated.WithCause(err)
		}
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}

	perms, err := s.evaluator.EffectivePermissions(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("effective permissions for user %d: %w", u.ID, err)
	}

	return &User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Roles:       userDatamodel.RoleNames(u.Roles),
		Permissions: perms,
	}, nil
}
