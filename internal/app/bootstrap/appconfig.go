// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and format, and request limits. AppConfig is
// everything specific to the identity service itself.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Identity collection names. Blank means the defaults ("Users", "Roles").
	UserCollection string
	RoleCollection string

	// Index management
	EnsureIndexes  bool // Reconcile indexes on startup
	UniqueUserName bool // Enforce a unique index on the normalized user name

	// Bootstrap admin account. When both are set and the user does not
	// exist yet, Startup seeds an admin role and user.
	BootstrapAdminUser     string
	BootstrapAdminPassword string
}
