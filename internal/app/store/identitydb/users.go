// internal/app/store/identitydb/users.go
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

// SaveUser upserts the whole principal document keyed by its identity,
// assigning a fresh ObjectID when the document has none. The document is
// replaced in full and the last write wins; no version token is checked.
// Callers must hold the complete, current object before saving.
func (d *DB) SaveUser(ctx context.Context, u *models.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := d.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u, opts)
	return err
}

// FindUserByID returns the principal with the given identity, or (nil, nil)
// when no such document exists.
func (d *DB) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return d.findUser(ctx, bson.M{"_id": id})
}

// FindUserByUserName looks a principal up by user name, case-insensitively:
// the input is uppercased and compared against the stored normalized user
// name. The first match wins; duplicate names are tolerated, not detected.
func (d *DB) FindUserByUserName(ctx context.Context, userName string) (*models.User, error) {
	return d.findUser(ctx, bson.M{"normalized_user_name": normalize.UserName(userName)})
}

// FindUserByEmail looks a principal up by its normalized email. The input
// is canonicalized the same way the stored field is.
func (d *DB) FindUserByEmail(ctx context.Context, normalizedEmail string) (*models.User, error) {
	return d.findUser(ctx, bson.M{"normalized_email": normalize.Email(normalizedEmail)})
}

// FindUserByLogin reverse-looks-up the principal owning an external-login
// binding with the given (provider, providerKey) pair.
func (d *DB) FindUserByLogin(ctx context.Context, loginProvider, providerKey string) (*models.User, error) {
	filter := bson.M{"logins": bson.M{"$elemMatch": bson.M{
		"login_provider": loginProvider,
		"provider_key":   providerKey,
	}}}
	return d.findUser(ctx, filter)
}

// UsersByClaim returns every principal whose claims list contains a pair
// structurally equal to claim.
func (d *DB) UsersByClaim(ctx context.Context, claim models.Claim) ([]models.User, error) {
	filter := bson.M{"claims": bson.M{"$elemMatch": bson.M{
		"type":  claim.Type,
		"value": claim.Value,
	}}}
	return d.listUsers(ctx, filter)
}

// UsersByRole returns every principal whose denormalized role-name list
// contains roleName.
func (d *DB) UsersByRole(ctx context.Context, roleName string) ([]models.User, error) {
	return d.listUsers(ctx, bson.M{"roles": roleName})
}

// ListUsers runs an arbitrary caller filter over the principal collection.
// A nil filter matches everything.
func (d *DB) ListUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return d.listUsers(ctx, filter)
}

func (d *DB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var u models.User
	if err := d.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (d *DB) listUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	cur, err := d.users.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
