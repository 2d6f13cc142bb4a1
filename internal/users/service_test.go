package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/apotek-pos/apotek-pos/internal/auth"
	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

type memoryRepo struct {
	users      map[int64]User
	hashes     map[int64]string
	referenced map[int64]bool
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User), hashes: make(map[int64]string), referenced: make(map[int64]bool)}
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	var result []User
	for _, u := range r.users {
		result = append(result, u)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, fmt.Errorf("users: id %d: %w", id, httpx.ErrNotFound)
	}
	return u, nil
}

func (r *memoryRepo) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	for _, u := range r.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Insert(ctx context.Context, params CreateParams, passwordHash string) (User, error) {
	r.nextID++
	u := User{ID: r.nextID, Username: params.Username, Name: params.Name, Role: params.Role, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.users[u.ID] = u
	r.hashes[u.ID] = passwordHash
	return u, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, sets map[string]any) error {
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("users: id %d: %w", id, httpx.ErrNotFound)
	}
	if v, ok := sets["username"]; ok {
		u.Username = v.(string)
	}
	if v, ok := sets["name"]; ok {
		u.Name = v.(string)
	}
	if v, ok := sets["role"]; ok {
		u.Role = v.(string)
	}
	if v, ok := sets["password_hash"]; ok {
		r.hashes[id] = v.(string)
	}
	r.users[id] = u
	return nil
}

func (r *memoryRepo) ReferencedByRecords(ctx context.Context, id int64) (bool, error) {
	return r.referenced[id], nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("users: id %d: %w", id, httpx.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), CreateParams{Username: "kasir1", Password: "rahasia", Name: "Kasir Satu", Role: auth.RoleKasir})
	require.NoError(t, err)
	require.NotEmpty(t, repo.hashes[u.ID])
	require.NotEqual(t, "rahasia", repo.hashes[u.ID])
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[u.ID]), []byte("rahasia")))
}

func TestCreateDuplicateUsername(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateParams{Username: "admin", Password: "1234", Role: auth.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateParams{Username: "admin", Password: "5678", Role: auth.RoleKasir})
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	// First insert's row is unchanged.
	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, auth.RoleAdmin, got.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[first.ID]), []byte("1234")))
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateParams{Username: "x", Password: "y", Role: "superuser"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdatePartialFields(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateParams{Username: "apoteker1", Password: "obat", Name: "Apoteker", Role: auth.RoleApoteker})
	require.NoError(t, err)

	newName := "Apoteker Utama"
	updated, err := svc.Update(ctx, u.ID, UpdateParams{Name: &newName})
	require.NoError(t, err)
	require.Equal(t, newName, updated.Name)
	require.Equal(t, "apoteker1", updated.Username)
	require.Equal(t, auth.RoleApoteker, updated.Role)
}

func TestDeleteSelfRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateParams{Username: "admin", Password: "1234", Role: auth.RoleAdmin})
	require.NoError(t, err)

	callerCtx := shared.ContextWithIdentity(ctx, shared.Identity{UserID: u.ID, Username: u.Username, Role: u.Role})
	err = svc.Delete(callerCtx, u.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	otherCtx := shared.ContextWithIdentity(ctx, shared.Identity{UserID: 99, Role: auth.RoleAdmin})
	require.NoError(t, svc.Delete(otherCtx, u.ID))
}

func TestDeleteReferencedUserRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateParams{Username: "kasir1", Password: "1234", Role: auth.RoleKasir})
	require.NoError(t, err)
	repo.referenced[u.ID] = true

	callerCtx := shared.ContextWithIdentity(ctx, shared.Identity{UserID: 99, Role: auth.RoleAdmin})
	err = svc.Delete(callerCtx, u.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	// The row survives the rejected delete.
	_, err = svc.Get(ctx, u.ID)
	require.NoError(t, err)
}
