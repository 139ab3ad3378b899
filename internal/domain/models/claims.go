// internal/domain/models/claims.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Claim is a (type, value) assertion attached to a user. Equality is
// structural: two claims match when both fields match.
type Claim struct {
	Type  string `bson:"type" json:"type"`
	Value string `bson:"value" json:"value"`
}

// Equal reports whether c and other carry the same type and value.
func (c Claim) Equal(other Claim) bool {
	return c.Type == other.Type && c.Value == other.Value
}

// RoleClaim is a claim granted to every holder of a role. RoleID ties the
// entry to its owning role document.
type RoleClaim struct {
	RoleID     primitive.ObjectID `bson:"role_id" json:"role_id"`
	ClaimType  string             `bson:"claim_type" json:"claim_type"`
	ClaimValue string             `bson:"claim_value" json:"claim_value"`
}

// UserLogin binds a principal to an external authentication provider.
// (LoginProvider, ProviderKey) is the reverse-lookup key.
type UserLogin struct {
	UserID              primitive.ObjectID `bson:"user_id" json:"user_id"`
	LoginProvider       string             `bson:"login_provider" json:"login_provider"`
	ProviderKey         string             `bson:"provider_key" json:"provider_key"`
	ProviderDisplayName string             `bson:"provider_display_name,omitempty" json:"provider_display_name,omitempty"`
}

// LoginInfo is the provider/key/display-name shape handed back to the
// consuming framework; it carries no user identity.
type LoginInfo struct {
	LoginProvider       string `json:"login_provider"`
	ProviderKey         string `json:"provider_key"`
	ProviderDisplayName string `json:"provider_display_name,omitempty"`
}
