// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/anaychenko/mongoidentity/internal/app/store/identitydb"
	"github.com/anaychenko/mongoidentity/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection and wraps the configured
// database in the identity repository.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.String("user_collection", appCfg.UserCollection),
		zap.String("role_collection", appCfg.RoleCollection))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Identity: identitydb.New(db, identitydb.Config{
			UserCollection: appCfg.UserCollection,
			RoleCollection: appCfg.RoleCollection,
		}),
	}, nil
}

// EnsureSchema reconciles the identity indexes unless disabled by config.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if !appCfg.EnsureIndexes {
		logger.Info("index reconciliation disabled by config")
		return nil
	}
	return indexes.EnsureAll(ctx, deps.Identity, appCfg.UniqueUserName)
}
