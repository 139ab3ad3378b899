// internal/app/store/identitydb/roles.go
package identitydb

import (
	"context"
	"errors"

	"github.com/anaychenko/mongoidentity/internal/app/system/normalize"
	"github.com/anaychenko/mongoidentity/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaveRole upserts the whole role document keyed by its identity, with the
// same overwrite semantics as SaveUser.
func (d *DB) SaveRole(ctx context.Context, r *models.Role) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := d.roles.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, opts)
	return err
}

// FindRoleByID returns the role with the given identity, or (nil, nil)
// when absent.
func (d *DB) FindRoleByID(ctx context.Context, id primitive.ObjectID) (*models.Role, error) {
	return d.findRole(ctx, bson.M{"_id": id})
}

// FindRoleByName looks a role up by its normalized name; the input is
// canonicalized before comparison.
func (d *DB) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	return d.findRole(ctx, bson.M{"normalized_name": normalize.RoleName(name)})
}

// ListRoles runs an arbitrary caller filter over the role collection.
// A nil filter matches everything.
func (d *DB) ListRoles(ctx context.Context, filter bson.M) ([]models.Role, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := d.roles.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DB) findRole(ctx context.Context, filter bson.M) (*models.Role, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var r models.Role
	if err := d.roles.FindOne(ctx, filter).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}
