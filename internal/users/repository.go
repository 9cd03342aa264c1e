package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/articlehub/articlehub/internal/models"
)

// UserRepository defines persistence operations for reader profiles.
type UserRepository interface {
	UpsertByUID(ctx context.Context, u *models.User) (*models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col, now: time.Now}
}

// EnsureIndexes creates the unique uid index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uid", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// UpsertByUID refreshes email, name and lastSeenAt; createdAt is only written
// on insert.
func (r *MongoUserRepository) UpsertByUID(ctx context.Context, u *models.User) (*models.User, error) {
	now := r.now().UTC()
	filter := bson.M{"uid": u.UID}
	update := bson.M{
		"$set": bson.M{
			"email":      u.Email,
			"name":       u.Name,
			"lastSeenAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
