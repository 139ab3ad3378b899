// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a principal document. Everything the authentication framework
// needs about an account lives on this one document: credential fields,
// claims, external-login bindings, and the names of the roles the user
// holds. Role names are denormalized: there is no join to the Roles
// collection, and renaming a role does not cascade here.
//
// NormalizedUserName and NormalizedEmail are the uppercased lookup keys;
// the adapter does not enforce their uniqueness beyond first-match lookup.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserName           string             `bson:"user_name" json:"user_name"`
	NormalizedUserName string             `bson:"normalized_user_name" json:"normalized_user_name"`
	Email              string             `bson:"email,omitempty" json:"email,omitempty"`
	NormalizedEmail    string             `bson:"normalized_email,omitempty" json:"normalized_email,omitempty"`
	EmailConfirmed     bool               `bson:"email_confirmed" json:"email_confirmed"`

	PasswordHash  string `bson:"password_hash,omitempty" json:"-"`
	SecurityStamp string `bson:"security_stamp,omitempty" json:"-"`

	PhoneNumber          string `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	PhoneNumberConfirmed bool   `bson:"phone_number_confirmed" json:"phone_number_confirmed"`
	TwoFactorEnabled     bool   `bson:"two_factor_enabled" json:"two_factor_enabled"`

	// LockoutEnd is stored in UTC; nil means no lockout is in effect.
	LockoutEnd        *time.Time `bson:"lockout_end,omitempty" json:"lockout_end,omitempty"`
	AccessFailedCount int        `bson:"access_failed_count" json:"access_failed_count"`
	LockoutEnabled    bool       `bson:"lockout_enabled" json:"lockout_enabled"`

	// Active is the soft-delete marker. Delete flips it to false; the
	// document is never removed and stays visible to lookups.
	Active bool `bson:"active" json:"active"`

	Claims []Claim     `bson:"claims,omitempty" json:"claims,omitempty"`
	Logins []UserLogin `bson:"logins,omitempty" json:"logins,omitempty"`
	Roles  []string    `bson:"roles,omitempty" json:"roles,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
