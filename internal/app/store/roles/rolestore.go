// internal/app/store/roles/rolestore.go
package rolestore

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/anaychenko/mongoidentity/internal/app/store/identitydb"
	"github.com/anaychenko/mongoidentity/internal/app/system/normalize"
	"github.com/anaychenko/mongoidentity/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("role store is closed")
	// ErrNilRole is returned when a caller passes a nil role.
	ErrNilRole = errors.New("role must not be nil")
	// ErrEmptyRoleName is returned when a caller passes a blank role name.
	ErrEmptyRoleName = errors.New("role name must not be empty")
)

// Store implements the role-store surface over the identity repository.
// It holds no state beyond the closed flag, so a single Store may be
// shared across concurrent callers.
type Store struct {
	db     *identitydb.DB
	closed atomic.Bool
}

// New borrows the repository; the Store never owns the connection.
func New(db *identitydb.DB) *Store {
	return &Store{db: db}
}

// Close marks the store disposed. Every later call fails with ErrClosed.
func (s *Store) Close() {
	s.closed.Store(true)
}

func (s *Store) guard(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Create persists a new role. It fills in the canonical normalized name
// when blank, stamps timestamps, and marks the role active. Duplicate
// names are not checked.
func (s *Store) Create(ctx context.Context, role *models.Role) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if role == nil {
		return ErrNilRole
	}
	if role.NormalizedName == "" {
		role.NormalizedName = normalize.RoleName(role.Name)
	}
	now := time.Now().UTC()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now
	role.Active = true
	return s.db.SaveRole(ctx, role)
}

// Update persists the role as-is (full-document overwrite).
func (s *Store) Update(ctx context.Context, role *models.Role) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if role == nil {
		return ErrNilRole
	}
	role.UpdatedAt = time.Now().UTC()
	return s.db.SaveRole(ctx, role)
}

// Delete soft-deletes the role: the active marker is cleared and the
// document saved. The role stays retrievable by id and name; callers that
// want to hide deleted roles must filter on Active themselves.
func (s *Store) Delete(ctx context.Context, role *models.Role) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if role == nil {
		return ErrNilRole
	}
	role.Active = false
	role.UpdatedAt = time.Now().UTC()
	return s.db.SaveRole(ctx, role)
}

// FindByID returns the role with the given identity, or (nil, nil) when
// absent. Soft-deleted roles are returned like any other.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Role, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.db.FindRoleByID(ctx, id)
}

// FindByName returns the role with the given (normalized) name, or
// (nil, nil) when absent.
func (s *Store) FindByName(ctx context.Context, name string) (*models.Role, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.db.FindRoleByName(ctx, name)
}

// RoleID returns the role's identity as a hex string.
func (s *Store) RoleID(role *models.Role) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if role == nil {
		return "", ErrNilRole
	}
	return role.ID.Hex(), nil
}

// RoleName returns the role's display name.
func (s *Store) RoleName(role *models.Role) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if role == nil {
		return "", ErrNilRole
	}
	return role.Name, nil
}

// SetRoleName sets the display name and persists. The normalized name is
// left alone; callers rename in two steps, exactly as the consuming
// framework does.
func (s *Store) SetRoleName(ctx context.Context, role *models.Role, name string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if role == nil {
		return ErrNilRole
	}
	role.Name = name
	return s.db.SaveRole(ctx, role)
}

// NormalizedRoleName returns the canonical lookup key.
func (s *Store) NormalizedRoleName(role *models.Role) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if role == nil {
		return "", ErrNilRole
	}
	return role.NormalizedName, nil
}

// SetNormalizedRoleName canonicalizes the input, sets it, and persists.
func (s *Store) SetNormalizedRoleName(ctx context.Context, role *models.Role, normalizedName string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if role == nil {
		return ErrNilRole
	}
	role.NormalizedName = normalize.RoleName(normalizedName)
	return s.db.SaveRole(ctx, role)
}

// Claims returns the role's claims projected to the plain (type, value)
// shape the framework consumes.
func (s *Store) Claims(role *models.Role) ([]models.Claim, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if role == nil {
		return nil, ErrNilRole
	}
	out := make([]models.Claim, 0, len(role.Claims))
	for _, rc := range role.Claims {
		out = append(out, models.Claim{Type: rc.ClaimType, Value: rc.ClaimValue})
	}
	return out, nil
}

// AddClaim appends a claim tied to the role's identity and persists.
func (s *Store) AddClaim(ctx context.Context, role *models.Role, claim models.Claim) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if role == nil {
		return ErrNilRole
	}
	role.Claims = append(role.Claims, models.RoleClaim{
		RoleID:     role.ID,
		ClaimType:  claim.Type,
		ClaimValue: claim.Value,
	})
	return s.db.SaveRole(ctx, role)
}

// RemoveClaim removes the first structurally matching claim and persists.
// An absent claim is a no-op, not an error, and nothing is saved.
func (s *Store) RemoveClaim(ctx context.Context, role *models.Role, claim models.Claim) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if role == nil {
		return ErrNilRole
	}
	for i, rc := range role.Claims {
		if rc.ClaimType == claim.Type && rc.ClaimValue == claim.Value {
			role.Claims = append(role.Claims[:i], role.Claims[i+1:]...)
			return s.db.SaveRole(ctx, role)
		}
	}
	return nil
}

// List exposes the role collection as a filterable sequence; a nil filter
// returns every role, including soft-deleted ones.
func (s *Store) List(ctx context.Context, filter bson.M) ([]models.Role, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.db.ListRoles(ctx, filter)
}

// Collection returns the raw role collection for callers with query needs
// List cannot express.
func (s *Store) Collection() *mongo.Collection {
	return s.db.Roles()
}
