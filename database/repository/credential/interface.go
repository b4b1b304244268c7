// File: database/repository/credential/interface.go
package credentialRepo

import (
	"context"

	"tutorhive/config"
	"tutorhive/database"
	"tutorhive/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// Repository stores calendar provider credentials per tutor.
type Repository interface {
	Get(ctx context.Context, tutorID string) (*models.Credential, error)
	Save(ctx context.Context, cred models.Credential) error
	ListTutorIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, tutorID string) error
}

// MongoCredentialRepo is the MongoDB implementation of Repository.
type MongoCredentialRepo struct {
	coll *mongo.Collection
}

// NewMongoCredentialRepo constructs a new MongoDB credential repository.
func NewMongoCredentialRepo() *MongoCredentialRepo {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &MongoCredentialRepo{
		coll: db.Collection("credentials"),
	}
}
