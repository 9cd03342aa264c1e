package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/articlehub/articlehub/internal/article"
)

// MongoRepo implements Repository on a MongoDB collection. Documents are
// keyed by the uniquely indexed "name" field.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the unique index on "name".
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := m.col.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create name index: %w", err)
	}
	return nil
}

func (m *MongoRepo) FindByName(ctx context.Context, name string) (*article.Article, error) {
	var a article.Article
	if err := m.col.FindOne(ctx, bson.M{"name": name}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, article.ErrNotFound
		}
		return nil, fmt.Errorf("find article %q: %w", name, err)
	}
	return a.Normalize(), nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*article.Article, error) {
	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer cur.Close(ctx)
	out := []*article.Article{}
	for cur.Next(ctx) {
		var a article.Article
		if err := cur.Decode(&a); err != nil {
			return nil, fmt.Errorf("decode article: %w", err)
		}
		out = append(out, a.Normalize())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return out, nil
}

// Upvote relies on the filter to make check-and-increment one operation:
// a document already holding uid never matches, so the counter and the
// voter list change together or not at all. A missing or null upvoterIds
// also satisfies $ne; the pipeline update treats both as an empty list.
func (m *MongoRepo) Upvote(ctx context.Context, name, uid string) (*article.Article, error) {
	filter := bson.M{"name": name, "upvoterIds": bson.M{"$ne": uid}}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "upvotes", Value: bson.D{{Key: "$add", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$upvotes", 0}}}, 1,
		}}}},
		{Key: "upvoterIds", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$upvoterIds", bson.A{}}}},
			// $literal keeps a uid starting with "$" from reading as a field path
			bson.A{bson.D{{Key: "$literal", Value: uid}}},
		}}}},
	}}}}
	var a article.Article
	err := m.col.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if err == nil {
		return a.Normalize(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("upvote article %q: %w", name, err)
	}
	// nothing matched: either the article is missing or uid already voted
	if _, ferr := m.FindByName(ctx, name); ferr != nil {
		return nil, ferr
	}
	return nil, article.ErrAlreadyUpvoted
}

func (m *MongoRepo) AddComment(ctx context.Context, name string, c article.Comment) (*article.Article, error) {
	update := bson.M{"$push": bson.M{"comments": c}}
	var a article.Article
	err := m.col.FindOneAndUpdate(ctx, bson.M{"name": name}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, article.ErrNotFound
		}
		return nil, fmt.Errorf("comment on article %q: %w", name, err)
	}
	return a.Normalize(), nil
}

func (m *MongoRepo) Seed(ctx context.Context, names ...string) (int, error) {
	created := 0
	for _, n := range names {
		fresh := article.New(n)
		update := bson.M{"$setOnInsert": bson.M{
			"name":       fresh.Name,
			"upvotes":    fresh.Upvotes,
			"upvoterIds": fresh.UpvoterIDs,
			"comments":   fresh.Comments,
		}}
		res, err := m.col.UpdateOne(ctx, bson.M{"name": n}, update, options.Update().SetUpsert(true))
		if err != nil {
			return created, fmt.Errorf("seed article %q: %w", n, err)
		}
		if res.UpsertedCount > 0 {
			created++
		}
	}
	return created, nil
}
