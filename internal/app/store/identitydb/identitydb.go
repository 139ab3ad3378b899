// Package identitydb is the single point of access to the identity
// collections. It translates principal lookups and whole-document saves
// into MongoDB operations; the user and role stores layer argument
// validation and lifecycle semantics on top of it.
//
// Collection names are resolved once at construction and default to
// "Users" and "Roles".
package identitydb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Default collection names, used when Config leaves them blank.
const (
	DefaultUserCollection = "Users"
	DefaultRoleCollection = "Roles"
)

// Config carries the collection-name overrides.
type Config struct {
	UserCollection string
	RoleCollection string
}

// DB owns the collection handles for users and roles. It holds no other
// state: every read re-queries the store and every write replaces the
// whole document, so a single DB is safe for concurrent use.
type DB struct {
	users *mongo.Collection
	roles *mongo.Collection
}

// New resolves the configured collection names against db.
func New(db *mongo.Database, cfg Config) *DB {
	userColl := cfg.UserCollection
	if userColl == "" {
		userColl = DefaultUserCollection
	}
	roleColl := cfg.RoleCollection
	if roleColl == "" {
		roleColl = DefaultRoleCollection
	}
	return &DB{
		users: db.Collection(userColl),
		roles: db.Collection(roleColl),
	}
}

// Users returns the raw principal collection for callers that need to run
// their own queries (admin enumeration, reporting).
func (d *DB) Users() *mongo.Collection { return d.users }

// Roles returns the raw role collection.
func (d *DB) Roles() *mongo.Collection { return d.roles }

// checkCtx reports a context that is already cancelled or past its
// deadline, so operations can fail before touching the store.
func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
