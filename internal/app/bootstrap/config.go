// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the identity service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, user_collection, etc.
//   - Environment variables: MONGOIDENTITY_MONGO_URI, MONGOIDENTITY_USER_COLLECTION, etc.
//   - Command-line flags: --mongo_uri, --user_collection, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "", Desc: "MongoDB connection URI (required)"},
	{Name: "mongo_database", Default: "", Desc: "MongoDB database name (required)"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "user_collection", Default: "Users", Desc: "Collection holding user documents"},
	{Name: "role_collection", Default: "Roles", Desc: "Collection holding role documents"},

	{Name: "ensure_indexes", Default: true, Desc: "Reconcile identity indexes on startup"},
	{Name: "unique_user_name", Default: false, Desc: "Enforce a unique index on the normalized user name"},

	// Admin bootstrap
	{Name: "bootstrap_admin_user", Default: "", Desc: "User name of an admin account to seed on startup (blank disables)"},
	{Name: "bootstrap_admin_password", Default: "", Desc: "Password for the seeded admin account"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MONGOIDENTITY", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		UserCollection: appValues.String("user_collection"),
		RoleCollection: appValues.String("role_collection"),

		EnsureIndexes:  appValues.Bool("ensure_indexes"),
		UniqueUserName: appValues.Bool("unique_user_name"),

		BootstrapAdminUser:     appValues.String("bootstrap_admin_user"),
		BootstrapAdminPassword: appValues.String("bootstrap_admin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// A blank connection string or database name is a fatal configuration
// error; the service never falls back to a default database.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.MongoURI == "" {
		return fmt.Errorf("mongo_uri is required")
	}
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}

	// Seeding needs both halves of the credential pair.
	if (appCfg.BootstrapAdminUser == "") != (appCfg.BootstrapAdminPassword == "") {
		return fmt.Errorf("bootstrap_admin_user and bootstrap_admin_password must be set together")
	}

	return nil
}
