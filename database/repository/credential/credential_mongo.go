// File: database/repository/credential/credential_mongo.go
package credentialRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tutorhive/models"
)

func (r *MongoCredentialRepo) Get(ctx context.Context, tutorID string) (*models.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cred models.Credential
	if err := r.coll.FindOne(ctx, bson.M{"tutorId": tutorID}).Decode(&cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *MongoCredentialRepo) Save(ctx context.Context, cred models.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cred.UpdatedAt = time.Now()
	update := bson.M{"$set": cred}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, bson.M{"tutorId": cred.TutorID}, update, opts); err != nil {
		return fmt.Errorf("failed to save credential for tutor %s: %w", cred.TutorID, err)
	}
	return nil
}

// ListTutorIDs returns every tutor with a stored credential. Used at boot
// to resume background sync for connected calendars.
func (r *MongoCredentialRepo) ListTutorIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	values, err := r.coll.Distinct(ctx, "tutorId", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list credential tutor ids: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *MongoCredentialRepo) Delete(ctx context.Context, tutorID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"tutorId": tutorID}); err != nil {
		return fmt.Errorf("failed to delete credential for tutor %s: %w", tutorID, err)
	}
	return nil
}
