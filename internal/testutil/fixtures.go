// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/anaychenko/mongoidentity/internal/app/store/identitydb"
	"github.com/anaychenko/mongoidentity/internal/app/system/normalize"
	"github.com/anaychenko/mongoidentity/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *identitydb.DB
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance over the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: identitydb.New(db, identitydb.Config{}), t: t}
}

// DB returns the identity repository for direct access in tests.
func (f *Fixtures) DB() *identitydb.DB {
	return f.db
}

// CreateUser persists a test user with the given user name and email.
// Returns the stored user with its generated ID.
func (f *Fixtures) CreateUser(ctx context.Context, userName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:                 primitive.NewObjectID(),
		UserName:           userName,
		NormalizedUserName: normalize.UserName(userName),
		Email:              email,
		NormalizedEmail:    normalize.Email(email),
		SecurityStamp:      uuid.NewString(),
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := f.db.SaveUser(ctx, &user); err != nil {
		f.t.Fatalf("fixture user %q: %v", userName, err)
	}
	return user
}

// CreateRole persists a test role with the given name.
// Returns the stored role with its generated ID.
func (f *Fixtures) CreateRole(ctx context.Context, name string) models.Role {
	f.t.Helper()

	now := time.Now().UTC()
	role := models.Role{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NormalizedName: normalize.RoleName(name),
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := f.db.SaveRole(ctx, &role); err != nil {
		f.t.Fatalf("fixture role %q: %v", name, err)
	}
	return role
}
