package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/apotek-pos/apotek-pos/internal/auth"
	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// Service handles user account management rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns accounts with pagination metadata.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]User, shared.Pagination, error) {
	result, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return result, shared.NewPagination(filters.Page, filters.Limit, total), nil
}

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, fmt.Errorf("%w: invalid user id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new account with a hashed password.
func (s *Service) Create(ctx context.Context, params CreateParams) (User, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.Name = strings.TrimSpace(params.Name)
	if params.Username == "" || params.Password == "" {
		return User{}, fmt.Errorf("%w: username and password are required", httpx.ErrValidation)
	}
	if !auth.ValidRole(params.Role) {
		return User{}, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, params.Role)
	}

	taken, err := s.repo.UsernameTaken(ctx, params.Username, 0)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, fmt.Errorf("%w: username %q already exists", httpx.ErrDuplicate, params.Username)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return User{}, err
	}
	return s.repo.Insert(ctx, params, hash)
}

// Update patches an account; each field is independently optional.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (User, error) {
	if id <= 0 {
		return User{}, fmt.Errorf("%w: invalid user id", httpx.ErrValidation)
	}

	sets := map[string]any{}
	if params.Username != nil {
		username := strings.TrimSpace(*params.Username)
		if username == "" {
			return User{}, fmt.Errorf("%w: username cannot be empty", httpx.ErrValidation)
		}
		taken, err := s.repo.UsernameTaken(ctx, username, id)
		if err != nil {
			return User{}, err
		}
		if taken {
			return User{}, fmt.Errorf("%w: username %q already exists", httpx.ErrDuplicate, username)
		}
		sets["username"] = username
	}
	if params.Password != nil {
		if *params.Password == "" {
			return User{}, fmt.Errorf("%w: password cannot be empty", httpx.ErrValidation)
		}
		hash, err := auth.HashPassword(*params.Password)
		if err != nil {
			return User{}, err
		}
		sets["password_hash"] = hash
	}
	if params.Name != nil {
		sets["name"] = strings.TrimSpace(*params.Name)
	}
	if params.Role != nil {
		if !auth.ValidRole(*params.Role) {
			return User{}, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, *params.Role)
		}
		sets["role"] = *params.Role
	}

	if err := s.repo.Update(ctx, id, sets); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes an account. Deleting the calling account is rejected.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid user id", httpx.ErrValidation)
	}
	if caller, ok := shared.IdentityFromContext(ctx); ok && caller.UserID == id {
		return fmt.Errorf("%w: cannot delete the active account", httpx.ErrConflict)
	}
	referenced, err := s.repo.ReferencedByRecords(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: user is referenced by existing records", httpx.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}
