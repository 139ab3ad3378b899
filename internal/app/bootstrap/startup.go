// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	rolestore "github.com/anaychenko/mongoidentity/internal/app/store/roles"
	userstore "github.com/anaychenko/mongoidentity/internal/app/store/users"
	"github.com/anaychenko/mongoidentity/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const adminRoleName = "Admin"

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. The only
// work here is seeding the bootstrap admin account when configured.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.BootstrapAdminUser == "" {
		return nil
	}
	return seedAdmin(ctx, appCfg, deps, logger)
}

// seedAdmin creates the admin role and the configured admin user when they
// do not exist yet. Re-running against a seeded database is a no-op, so the
// service can restart freely with the same config.
func seedAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	roles := rolestore.New(deps.Identity)
	users := userstore.New(deps.Identity)

	role, err := roles.FindByName(ctx, adminRoleName)
	if err != nil {
		return fmt.Errorf("looking up admin role: %w", err)
	}
	if role == nil {
		role = &models.Role{Name: adminRoleName}
		if err := roles.Create(ctx, role); err != nil {
			return fmt.Errorf("creating admin role: %w", err)
		}
		logger.Info("seeded admin role", zap.String("role", adminRoleName))
	}

	existing, err := users.FindByName(ctx, appCfg.BootstrapAdminUser)
	if err != nil {
		return fmt.Errorf("looking up bootstrap admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(appCfg.BootstrapAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing bootstrap admin password: %w", err)
	}

	admin := &models.User{
		UserName:     appCfg.BootstrapAdminUser,
		PasswordHash: string(hash),
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("creating bootstrap admin: %w", err)
	}
	if err := users.AddToRole(ctx, admin, adminRoleName); err != nil {
		return fmt.Errorf("assigning admin role: %w", err)
	}

	logger.Info("seeded bootstrap admin user",
		zap.String("user", appCfg.BootstrapAdminUser),
		zap.String("role", adminRoleName))
	return nil
}
