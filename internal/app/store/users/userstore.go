// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/anaychenko/mongoidentity/internal/app/store/identitydb"
	"github.com/anaychenko/mongoidentity/internal/app/system/normalize"
	"github.com/anaychenko/mongoidentity/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("user store is closed")
	// ErrNilUser is returned when a caller passes a nil user.
	ErrNilUser = errors.New("user must not be nil")
	// ErrNilClaims is returned when a caller passes a nil claim slice.
	ErrNilClaims = errors.New("claims must not be nil")
	// ErrEmptyRoleName is returned when a caller passes a blank role name.
	ErrEmptyRoleName = errors.New("role name must not be empty")
	// ErrRoleNotFound is returned by AddToRole when the named role does not
	// exist in the role collection.
	ErrRoleNotFound = errors.New("role not found")
)

// Store implements the user-store surface over the identity repository.
// Mutating setters persist the whole user document immediately, so the
// consuming framework never has to call Update after a Set.
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

// Create persists a new user. Blank normalized fields are derived from the
// display fields, a security stamp is minted when absent, timestamps are
// stamped, and the user is marked active.
func (s *Store) Create(ctx context.Context, user *models.User) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	if user.NormalizedUserName == "" {
		user.NormalizedUserName = normalize.UserName(user.UserName)
	}
	if user.NormalizedEmail == "" {
		user.NormalizedEmail = normalize.Email(user.Email)
	}
	if user.SecurityStamp == "" {
		user.SecurityStamp = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Active = true
	return s.db.SaveUser(ctx, user)
}

// Update persists the user as-is (full-document overwrite, last write wins).
func (s *Store) Update(ctx context.Context, user *models.User) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.UpdatedAt = time.Now().UTC()
	return s.db.SaveUser(ctx, user)
}

// Delete soft-deletes the user: the active marker is cleared and the
// document saved. The user stays retrievable by every lookup; callers that
// want to hide deleted users must filter on Active themselves.
func (s *Store) Delete(ctx context.Context, user *models.User) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.Active = false
	user.UpdatedAt = time.Now().UTC()
	return s.db.SaveUser(ctx, user)
}

// FindByID returns the user with the given identity, or (nil, nil) when
// absent. Soft-deleted users are returned like any other.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.db.FindUserByID(ctx, id)
}

// FindByName returns the user with the given (normalized) user name, or
// (nil, nil) when absent.
func (s *Store) FindByName(ctx context.Context, userName string) (*models.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.db.FindUserByUserName(ctx, userName)
}

// FindByEmail returns the user with the given (normalized) email, or
// (nil, nil) when absent.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.db.FindUserByEmail(ctx, email)
}

// FindByLogin returns the user owning the (provider, providerKey) login
// binding, or (nil, nil) when no user has it.
func (s *Store) FindByLogin(ctx context.Context, loginProvider, providerKey string) (*models.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.db.FindUserByLogin(ctx, loginProvider, providerKey)
}

// UserID returns the user's identity as a hex string.
func (s *Store) UserID(user *models.User) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if user == nil {
		return "", ErrNilUser
	}
	return user.ID.Hex(), nil
}

// UserName returns the user's display name.
func (s *Store) UserName(user *models.User) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if user == nil {
		return "", ErrNilUser
	}
	return user.UserName, nil
}

// SetUserName sets the display name and persists. The normalized name is
// left alone; the consuming framework renames in two steps.
func (s *Store) SetUserName(ctx context.Context, user *models.User, userName string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.UserName = userName
	return s.db.SaveUser(ctx, user)
}

// NormalizedUserName returns the canonical lookup key for the user name.
func (s *Store) NormalizedUserName(user *models.User) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if user == nil {
		return "", ErrNilUser
	}
	return user.NormalizedUserName, nil
}

// SetNormalizedUserName canonicalizes the input, sets it, and persists.
func (s *Store) SetNormalizedUserName(ctx context.Context, user *models.User, normalizedName string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.NormalizedUserName = normalize.UserName(normalizedName)
	return s.db.SaveUser(ctx, user)
}

// PasswordHash returns the stored hash, empty when the user has none.
func (s *Store) PasswordHash(user *models.User) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if user == nil {
		return "", ErrNilUser
	}
	return user.PasswordHash, nil
}

// SetPasswordHash sets the hash and persists.
func (s *Store) SetPasswordHash(ctx context.Context, user *models.User, passwordHash string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.PasswordHash = passwordHash
	return s.db.SaveUser(ctx, user)
}

// HasPassword reports whether a hash is stored.
func (s *Store) HasPassword(user *models.User) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	if user == nil {
		return false, ErrNilUser
	}
	return user.PasswordHash != "", nil
}

// SecurityStamp returns the user's security stamp.
func (s *Store) SecurityStamp(user *models.User) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if user == nil {
		return "", ErrNilUser
	}
	return user.SecurityStamp, nil
}

// SetSecurityStamp sets the stamp and persists.
func (s *Store) SetSecurityStamp(ctx context.Context, user *models.User, stamp string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.SecurityStamp = stamp
	return s.db.SaveUser(ctx, user)
}

// AddToRole looks the role up in the role collection and appends its
// display name to the user's membership list. A missing role is an error;
// an existing membership is left alone (the append is idempotent).
func (s *Store) AddToRole(ctx context.Context, user *models.User, roleName string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	if roleName == "" {
		return ErrEmptyRoleName
	}
	role, err := s.db.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	if role == nil {
		return ErrRoleNotFound
	}
	for _, name := range user.Roles {
		if name == role.Name {
			return nil
		}
	}
	user.Roles = append(user.Roles, role.Name)
	return s.db.SaveUser(ctx, user)
}

// RemoveFromRole resolves the role document first and removes its display
// name from the membership list. An unknown role or an absent membership
// is a no-op, not an error, and nothing is saved.
func (s *Store) RemoveFromRole(ctx context.Context, user *models.User, roleName string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	if roleName == "" {
		return ErrEmptyRoleName
	}
	role, err := s.db.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	if role == nil {
		return nil
	}
	for i, name := range user.Roles {
		if name == role.Name {
			user.Roles = append(user.Roles[:i], user.Roles[i+1:]...)
			return s.db.SaveUser(ctx, user)
		}
	}
	return nil
}

// Roles returns the user's role memberships.
func (s *Store) Roles(user *models.User) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if user == nil {
		return nil, ErrNilUser
	}
	out := make([]string, len(user.Roles))
	copy(out, user.Roles)
	return out, nil
}

// IsInRole resolves the role document first, then checks the membership
// list for its display name. A role that does not exist in the role
// collection reports false even when the user carries a stale entry for
// it; membership is only as real as the role itself.
func (s *Store) IsInRole(ctx context.Context, user *models.User, roleName string) (bool, error) {
	if err := s.guard(ctx); err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrNilUser
	}
	if roleName == "" {
		return false, ErrEmptyRoleName
	}
	role, err := s.db.FindRoleByName(ctx, roleName)
	if err != nil {
		return false, err
	}
	if role == nil {
		return false, nil
	}
	for _, name := range user.Roles {
		if name == role.Name {
			return true, nil
		}
	}
	return false, nil
}

// Claims returns the user's claims.
func (s *Store) Claims(user *models.User) ([]models.Claim, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if user == nil {
		return nil, ErrNilUser
	}
	out := make([]models.Claim, len(user.Claims))
	copy(out, user.Claims)
	return out, nil
}

// AddClaims appends every claim and persists once. Duplicates are allowed,
// matching the way the consuming framework treats claim lists.
func (s *Store) AddClaims(ctx context.Context, user *models.User, claims []models.Claim) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	if claims == nil {
		return ErrNilClaims
	}
	user.Claims = append(user.Claims, claims...)
	return s.db.SaveUser(ctx, user)
}

// ReplaceClaim removes the first structural match of claim, if any, then
// appends newClaim. The new claim is appended even when the old one was
// never present.
func (s *Store) ReplaceClaim(ctx context.Context, user *models.User, claim, newClaim models.Claim) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	for i, c := range user.Claims {
		if c.Equal(claim) {
			user.Claims = append(user.Claims[:i], user.Claims[i+1:]...)
			break
		}
	}
	user.Claims = append(user.Claims, newClaim)
	return s.db.SaveUser(ctx, user)
}

// RemoveClaims removes every structural match of each given claim and
// persists. When nothing matched, nothing is saved.
func (s *Store) RemoveClaims(ctx context.Context, user *models.User, claims []models.Claim) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	if claims == nil {
		return ErrNilClaims
	}
	changed := false
	for _, claim := range claims {
		kept := user.Claims[:0]
		for _, c := range user.Claims {
			if c.Equal(claim) {
				changed = true
				continue
			}
			kept = append(kept, c)
		}
		user.Claims = kept
	}
	if !changed {
		return nil
	}
	return s.db.SaveUser(ctx, user)
}

// AddLogin appends an external-login binding tied to the user's identity
// and persists.
func (s *Store) AddLogin(ctx context.Context, user *models.User, login models.LoginInfo) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.Logins = append(user.Logins, models.UserLogin{
		UserID:              user.ID,
		LoginProvider:       login.LoginProvider,
		ProviderKey:         login.ProviderKey,
		ProviderDisplayName: login.ProviderDisplayName,
	})
	return s.db.SaveUser(ctx, user)
}

// RemoveLogin removes the binding matching (identity, provider, key) and
// persists. An absent binding is a no-op, not an error.
func (s *Store) RemoveLogin(ctx context.Context, user *models.User, loginProvider, providerKey string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	for i, l := range user.Logins {
		if l.UserID == user.ID && l.LoginProvider == loginProvider && l.ProviderKey == providerKey {
			user.Logins = append(user.Logins[:i], user.Logins[i+1:]...)
			return s.db.SaveUser(ctx, user)
		}
	}
	return nil
}

// Logins returns the user's external-login bindings projected to the
// framework-facing login-info shape.
func (s *Store) Logins(user *models.User) ([]models.LoginInfo, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if user == nil {
		return nil, ErrNilUser
	}
	out := make([]models.LoginInfo, 0, len(user.Logins))
	for _, l := range user.Logins {
		out = append(out, models.LoginInfo{
			LoginProvider:       l.LoginProvider,
			ProviderKey:         l.ProviderKey,
			ProviderDisplayName: l.ProviderDisplayName,
		})
	}
	return out, nil
}

// Email returns the user's email address.
func (s *Store) Email(user *models.User) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if user == nil {
		return "", ErrNilUser
	}
	return user.Email, nil
}

// SetEmail sets the address and persists. The normalized email is left
// alone; the framework updates it separately.
func (s *Store) SetEmail(ctx context.Context, user *models.User, email string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.Email = email
	return s.db.SaveUser(ctx, user)
}

// EmailConfirmed reports the confirmation flag.
func (s *Store) EmailConfirmed(user *models.User) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	if user == nil {
		return false, ErrNilUser
	}
	return user.EmailConfirmed, nil
}

// SetEmailConfirmed sets the flag and persists.
func (s *Store) SetEmailConfirmed(ctx context.Context, user *models.User, confirmed bool) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.EmailConfirmed = confirmed
	return s.db.SaveUser(ctx, user)
}

// NormalizedEmail returns the canonical lookup key for the email.
func (s *Store) NormalizedEmail(user *models.User) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if user == nil {
		return "", ErrNilUser
	}
	return user.NormalizedEmail, nil
}

// SetNormalizedEmail canonicalizes the input, sets it, and persists.
func (s *Store) SetNormalizedEmail(ctx context.Context, user *models.User, normalizedEmail string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.NormalizedEmail = normalize.Email(normalizedEmail)
	return s.db.SaveUser(ctx, user)
}

// LockoutEnd returns the instant the lockout expires, nil when not locked.
func (s *Store) LockoutEnd(user *models.User) (*time.Time, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if user == nil {
		return nil, ErrNilUser
	}
	return user.LockoutEnd, nil
}

// SetLockoutEnd sets the expiry (nil clears the lockout) and persists.
func (s *Store) SetLockoutEnd(ctx context.Context, user *models.User, end *time.Time) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.LockoutEnd = end
	return s.db.SaveUser(ctx, user)
}

// LockoutEnabled reports whether lockout applies to this user.
func (s *Store) LockoutEnabled(user *models.User) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	if user == nil {
		return false, ErrNilUser
	}
	return user.LockoutEnabled, nil
}

// SetLockoutEnabled sets the flag and persists.
func (s *Store) SetLockoutEnabled(ctx context.Context, user *models.User, enabled bool) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.LockoutEnabled = enabled
	return s.db.SaveUser(ctx, user)
}

// AccessFailedCount returns the current failed-sign-in counter.
func (s *Store) AccessFailedCount(user *models.User) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if user == nil {
		return 0, ErrNilUser
	}
	return user.AccessFailedCount, nil
}

// IncrementAccessFailedCount bumps the counter in memory only. The change
// reaches the database when the framework follows up with Update or a
// persisting setter; a restart before that loses the count.
func (s *Store) IncrementAccessFailedCount(user *models.User) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if user == nil {
		return 0, ErrNilUser
	}
	user.AccessFailedCount++
	return user.AccessFailedCount, nil
}

// ResetAccessFailedCount zeroes the counter in memory only, like
// IncrementAccessFailedCount.
func (s *Store) ResetAccessFailedCount(user *models.User) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if user == nil {
		return ErrNilUser
	}
	user.AccessFailedCount = 0
	return nil
}

// PhoneNumber returns the user's phone number.
func (s *Store) PhoneNumber(user *models.User) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if user == nil {
		return "", ErrNilUser
	}
	return user.PhoneNumber, nil
}

// SetPhoneNumber sets the number and persists.
func (s *Store) SetPhoneNumber(ctx context.Context, user *models.User, phone string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.PhoneNumber = phone
	return s.db.SaveUser(ctx, user)
}

// PhoneNumberConfirmed reports the confirmation flag.
func (s *Store) PhoneNumberConfirmed(user *models.User) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	if user == nil {
		return false, ErrNilUser
	}
	return user.PhoneNumberConfirmed, nil
}

// SetPhoneNumberConfirmed sets the flag and persists.
func (s *Store) SetPhoneNumberConfirmed(ctx context.Context, user *models.User, confirmed bool) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.PhoneNumberConfirmed = confirmed
	return s.db.SaveUser(ctx, user)
}

// TwoFactorEnabled reports whether two-factor is on for the user.
func (s *Store) TwoFactorEnabled(user *models.User) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	if user == nil {
		return false, ErrNilUser
	}
	return user.TwoFactorEnabled, nil
}

// SetTwoFactorEnabled sets the flag and persists.
func (s *Store) SetTwoFactorEnabled(ctx context.Context, user *models.User, enabled bool) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return ErrNilUser
	}
	user.TwoFactorEnabled = enabled
	return s.db.SaveUser(ctx, user)
}

// UsersForClaim returns every user holding a structurally equal claim.
func (s *Store) UsersForClaim(ctx context.Context, claim models.Claim) ([]models.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.db.UsersByClaim(ctx, claim)
}

// UsersInRole returns every member of the named role. An unknown role
// yields an empty slice, not an error.
func (s *Store) UsersInRole(ctx context.Context, roleName string) ([]models.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	role, err := s.db.FindRoleByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return []models.User{}, nil
	}
	return s.db.UsersByRole(ctx, role.Name)
}

// List exposes the user collection as a filterable sequence; a nil filter
// returns every user, including soft-deleted ones.
func (s *Store) List(ctx context.Context, filter bson.M) ([]models.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.db.ListUsers(ctx, filter)
}

// Collection returns the raw user collection for callers with query needs
// List cannot express.
func (s *Store) Collection() *mongo.Collection {
	return s.db.Users()
}
