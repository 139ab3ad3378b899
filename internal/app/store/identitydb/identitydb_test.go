// internal/app/store/identitydb/identitydb_test.go
package identitydb_test

import (
	"testing"

	"github.com/anaychenko/mongoidentity/internal/app/store/identitydb"
	"github.com/anaychenko/mongoidentity/internal/domain/models"
	"github.com/anaychenko/mongoidentity/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSaveUser_AssignsIDAndRoundTrips(t *testing.T) {
	raw := testutil.SetupTestDB(t)
	db := identitydb.New(raw, identitydb.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := models.User{
		UserName: "alice",
		Email:    "alice@example.com",
	}
	if err := db.SaveUser(ctx, &user); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
	if user.ID == primitive.NilObjectID {
		t.Fatal("expected ID to be assigned")
	}

	got, err := db.FindUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindUserByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected user, got nil")
	}
	if got.UserName != "alice" || got.Email != "alice@example.com" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSaveUser_ResaveIsIdempotent(t *testing.T) {
	raw := testutil.SetupTestDB(t)
	db := identitydb.New(raw, identitydb.Config{})
	fixtures := testutil.NewFixtures(t, raw)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "bob", "bob@example.com")

	// Saving the same document again must not create a second one.
	if err := db.SaveUser(ctx, &user); err != nil {
		t.Fatalf("second SaveUser failed: %v", err)
	}

	all, err := db.ListUsers(ctx, nil)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 user after resave, got %d", len(all))
	}
}

func TestFindUserByUserName_Normalizes(t *testing.T) {
	raw := testutil.SetupTestDB(t)
	db := identitydb.New(raw, identitydb.Config{})
	fixtures := testutil.NewFixtures(t, raw)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created := fixtures.CreateUser(ctx, "Carol", "carol@example.com")

	for _, query := range []string{"carol", "CAROL", "  Carol  "} {
		got, err := db.FindUserByUserName(ctx, query)
		if err != nil {
			t.Fatalf("FindUserByUserName(%q) failed: %v", query, err)
		}
		if got == nil || got.ID != created.ID {
			t.Errorf("FindUserByUserName(%q): expected user %s, got %+v", query, created.ID.Hex(), got)
		}
	}
}

func TestFindUserByEmail_Normalizes(t *testing.T) {
	raw := testutil.SetupTestDB(t)
	db := identitydb.New(raw, identitydb.Config{})
	fixtures := testutil.NewFixtures(t, raw)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created := fixtures.CreateUser(ctx, "dave", "Dave@Example.com")

	got, err := db.FindUserByEmail(ctx, "dave@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail failed: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Errorf("expected user %s, got %+v", created.ID.Hex(), got)
	}
}

func TestFindUser_NotFoundIsNilNil(t *testing.T) {
	raw := testutil.SetupTestDB(t)
	db := identitydb.New(raw, identitydb.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := db.FindUserByID(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("expected nil error for missing user, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil user, got %+v", got)
	}

	got, err = db.FindUserByUserName(ctx, "nobody")
	if err != nil || got != nil {
		t.Errorf("FindUserByUserName: expected (nil, nil), got (%+v, %v)", got, err)
	}

	got, err = db.FindUserByLogin(ctx, "google", "missing-key")
	if err != nil || got != nil {
		t.Errorf("FindUserByLogin: expected (nil, nil), got (%+v, %v)", got, err)
	}
}

func TestFindUserByLogin_ElementMatch(t *testing.T) {
	raw := testutil.SetupTestDB(t)
	db := identitydb.New(raw, identitydb.Config{})
	fixtures := testutil.NewFixtures(t, raw)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "erin", "erin@example.com")
	user.Logins = append(user.Logins, models.UserLogin{
		UserID:              user.ID,
		LoginProvider:       "google",
		ProviderKey:         "g-123",
		ProviderDisplayName: "Google",
	})
	if err := db.SaveUser(ctx, &user); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	// A second user with a different key must not match.
	other := fixtures.CreateUser(ctx, "frank", "frank@example.com")
	other.Logins = append(other.Logins, models.UserLogin{
		UserID:        other.ID,
		LoginProvider: "google",
		ProviderKey:   "g-456",
	})
	if err := db.SaveUser(ctx, &other); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	got, err := db.FindUserByLogin(ctx, "google", "g-123")
	if err != nil {
		t.Fatalf("FindUserByLogin failed: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Errorf("expected user %s, got %+v", user.ID.Hex(), got)
	}

	// The pair must match within one element, not across elements.
	got, err = db.FindUserByLogin(ctx, "github", "g-123")
	if err != nil || got != nil {
		t.Errorf("cross-element match: expected (nil, nil), got (%+v, %v)", got, err)
	}
}

func TestUsersByClaim_StructuralMatch(t *testing.T) {
	raw := testutil.SetupTestDB(t)
	db := identitydb.New(raw, identitydb.Config{})
	fixtures := testutil.NewFixtures(t, raw)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	holder := fixtures.CreateUser(ctx, "gina", "gina@example.com")
	holder.Claims = append(holder.Claims, models.Claim{Type: "dept", Value: "eng"})
	if err := db.SaveUser(ctx, &holder); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	bystander := fixtures.CreateUser(ctx, "henry", "henry@example.com")
	bystander.Claims = append(bystander.Claims, models.Claim{Type: "dept", Value: "sales"})
	if err := db.SaveUser(ctx, &bystander); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	got, err := db.UsersByClaim(ctx, models.Claim{Type: "dept", Value: "eng"})
	if err != nil {
		t.Fatalf("UsersByClaim failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != holder.ID {
		t.Errorf("expected only %s, got %d users", holder.ID.Hex(), len(got))
	}
}

func TestUsersByRole_Containment(t *testing.T) {
	raw := testutil.SetupTestDB(t)
	db := identitydb.New(raw, identitydb.Config{})
	fixtures := testutil.NewFixtures(t, raw)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := fixtures.CreateUser(ctx, "iris", "iris@example.com")
	member.Roles = append(member.Roles, "Admin", "Editor")
	if err := db.SaveUser(ctx, &member); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
	fixtures.CreateUser(ctx, "jack", "jack@example.com")

	got, err := db.UsersByRole(ctx, "Admin")
	if err != nil {
		t.Fatalf("UsersByRole failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != member.ID {
		t.Errorf("expected only %s, got %d users", member.ID.Hex(), len(got))
	}
}

func TestSaveRole_RoundTripAndNormalizedLookup(t *testing.T) {
	raw := testutil.SetupTestDB(t)
	db := identitydb.New(raw, identitydb.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	role := models.Role{Name: "Admin", NormalizedName: "ADMIN"}
	if err := db.SaveRole(ctx, &role); err != nil {
		t.Fatalf("SaveRole failed: %v", err)
	}
	if role.ID == primitive.NilObjectID {
		t.Fatal("expected ID to be assigned")
	}

	got, err := db.FindRoleByName(ctx, "admin")
	if err != nil {
		t.Fatalf("FindRoleByName failed: %v", err)
	}
	if got == nil || got.ID != role.ID {
		t.Errorf("expected role %s, got %+v", role.ID.Hex(), got)
	}

	missing, err := db.FindRoleByName(ctx, "nothing")
	if err != nil || missing != nil {
		t.Errorf("missing role: expected (nil, nil), got (%+v, %v)", missing, err)
	}
}

func TestCollectionNames_DefaultsAndOverrides(t *testing.T) {
	raw := testutil.SetupTestDB(t)

	db := identitydb.New(raw, identitydb.Config{})
	if got := db.Users().Name(); got != identitydb.DefaultUserCollection {
		t.Errorf("default user collection: got %q", got)
	}
	if got := db.Roles().Name(); got != identitydb.DefaultRoleCollection {
		t.Errorf("default role collection: got %q", got)
	}

	custom := identitydb.New(raw, identitydb.Config{
		UserCollection: "Accounts",
		RoleCollection: "Groups",
	})
	if got := custom.Users().Name(); got != "Accounts" {
		t.Errorf("custom user collection: got %q", got)
	}
	if got := custom.Roles().Name(); got != "Groups" {
		t.Errorf("custom role collection: got %q", got)
	}
}
