// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	directoryfeature "github.com/anaychenko/mongoidentity/internal/app/features/directory"
	healthfeature "github.com/anaychenko/mongoidentity/internal/app/features/health"
	rolestore "github.com/anaychenko/mongoidentity/internal/app/store/roles"
	userstore "github.com/anaychenko/mongoidentity/internal/app/store/users"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The identity service exposes a small
// operator surface: a health check and the read-only directory endpoints.
// The stores themselves are consumed as a library by the auth framework;
// nothing here mutates identity data over HTTP.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	users := userstore.New(deps.Identity)
	roles := rolestore.New(deps.Identity)

	r := chi.NewRouter()
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))
	r.Mount("/directory", directoryfeature.Routes(directoryfeature.NewHandler(users, roles, logger)))

	return r, nil
}
