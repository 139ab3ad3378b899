// internal/app/store/roles/rolestore_test.go
package rolestore_test

import (
	"errors"
	"testing"

	"github.com/anaychenko/mongoidentity/internal/app/store/identitydb"
	rolestore "github.com/anaychenko/mongoidentity/internal/app/store/roles"
	"github.com/anaychenko/mongoidentity/internal/domain/models"
	"github.com/anaychenko/mongoidentity/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) (*rolestore.Store, *testutil.Fixtures) {
	t.Helper()
	raw := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, raw)
	return rolestore.New(identitydb.New(raw, identitydb.Config{})), fixtures
}

func TestStore_Create_Defaults(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	role := models.Role{Name: "Site Admin"}
	if err := store.Create(ctx, &role); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if role.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if role.NormalizedName != "SITE ADMIN" {
		t.Errorf("expected derived normalized name, got %q", role.NormalizedName)
	}
	if !role.Active {
		t.Error("expected new role to be active")
	}
	if role.CreatedAt.IsZero() || role.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_FindByName_CaseInsensitive(t *testing.T) {
	store, fixtures := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created := fixtures.CreateRole(ctx, "Editor")

	got, err := store.FindByName(ctx, "eDiToR")
	if err != nil {
		t.Fatalf("FindByName failed: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Errorf("expected role %s, got %+v", created.ID.Hex(), got)
	}
}

func TestStore_Delete_IsSoft(t *testing.T) {
	store, fixtures := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	role := fixtures.CreateRole(ctx, "Temp")
	if err := store.Delete(ctx, &role); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := store.FindByID(ctx, role.ID)
	if err != nil || got == nil {
		t.Fatalf("soft-deleted role must stay retrievable: (%+v, %v)", got, err)
	}
	if got.Active {
		t.Error("expected Active to be false after Delete")
	}
}

func TestStore_SetNormalizedRoleName_Canonicalizes(t *testing.T) {
	store, fixtures := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	role := fixtures.CreateRole(ctx, "Viewer")
	if err := store.SetNormalizedRoleName(ctx, &role, " viewer2 "); err != nil {
		t.Fatalf("SetNormalizedRoleName failed: %v", err)
	}
	if role.NormalizedName != "VIEWER2" {
		t.Errorf("expected VIEWER2, got %q", role.NormalizedName)
	}

	got, err := store.FindByName(ctx, "viewer2")
	if err != nil || got == nil || got.ID != role.ID {
		t.Errorf("lookup by new normalized name: (%+v, %v)", got, err)
	}
}

func TestStore_Claims(t *testing.T) {
	store, fixtures := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	role := fixtures.CreateRole(ctx, "Auditor")

	if err := store.AddClaim(ctx, &role, models.Claim{Type: "perm", Value: "read"}); err != nil {
		t.Fatalf("AddClaim failed: %v", err)
	}
	if err := store.AddClaim(ctx, &role, models.Claim{Type: "perm", Value: "export"}); err != nil {
		t.Fatalf("AddClaim failed: %v", err)
	}

	// Claims come back projected to the plain shape, tagged with the role id.
	got, err := store.Claims(&role)
	if err != nil {
		t.Fatalf("Claims failed: %v", err)
	}
	if len(got) != 2 || got[0] != (models.Claim{Type: "perm", Value: "read"}) {
		t.Errorf("unexpected claims: %v", got)
	}
	if role.Claims[0].RoleID != role.ID {
		t.Errorf("expected claim tied to role id, got %s", role.Claims[0].RoleID.Hex())
	}

	if err := store.RemoveClaim(ctx, &role, models.Claim{Type: "perm", Value: "read"}); err != nil {
		t.Fatalf("RemoveClaim failed: %v", err)
	}
	if len(role.Claims) != 1 {
		t.Errorf("expected 1 claim after remove, got %v", role.Claims)
	}

	// Removing an absent claim is a no-op.
	if err := store.RemoveClaim(ctx, &role, models.Claim{Type: "perm", Value: "gone"}); err != nil {
		t.Errorf("RemoveClaim of absent: %v", err)
	}

	// The persisted document matches the in-memory list.
	reloaded, err := store.FindByID(ctx, role.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("FindByID failed: (%+v, %v)", reloaded, err)
	}
	if len(reloaded.Claims) != 1 || reloaded.Claims[0].ClaimValue != "export" {
		t.Errorf("persisted claims mismatch: %v", reloaded.Claims)
	}
}

func TestStore_NilRoleArguments(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, nil); !errors.Is(err, rolestore.ErrNilRole) {
		t.Errorf("Create(nil): %v", err)
	}
	if _, err := store.RoleName(nil); !errors.Is(err, rolestore.ErrNilRole) {
		t.Errorf("RoleName(nil): %v", err)
	}
	if err := store.AddClaim(ctx, nil, models.Claim{}); !errors.Is(err, rolestore.ErrNilRole) {
		t.Errorf("AddClaim(nil): %v", err)
	}
}

func TestStore_Close(t *testing.T) {
	store, fixtures := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	role := fixtures.CreateRole(ctx, "Closing")
	store.Close()

	if err := store.Update(ctx, &role); !errors.Is(err, rolestore.ErrClosed) {
		t.Errorf("Update after Close: %v", err)
	}
	if _, err := store.FindByID(ctx, role.ID); !errors.Is(err, rolestore.ErrClosed) {
		t.Errorf("FindByID after Close: %v", err)
	}
	if _, err := store.RoleName(&role); !errors.Is(err, rolestore.ErrClosed) {
		t.Errorf("RoleName after Close: %v", err)
	}
}
