// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/anaychenko/mongoidentity/internal/app/store/identitydb"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Identity      *identitydb.DB
}
