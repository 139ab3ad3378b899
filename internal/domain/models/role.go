// internal/domain/models/role.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a role principal. NormalizedName is the uppercased lookup key.
// Users reference roles by Name (see User.Roles), so renaming a role does
// not update the users that hold it.
type Role struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	NormalizedName string             `bson:"normalized_name" json:"normalized_name"`

	// Active is the soft-delete marker, same semantics as User.Active.
	Active bool `bson:"active" json:"active"`

	Claims []RoleClaim `bson:"claims,omitempty" json:"claims,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
