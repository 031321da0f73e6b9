package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KarolineKS/PetMatch-api/pkg/config"
	"github.com/KarolineKS/PetMatch-api/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LikeCollectionName = "Curtidas"
)

type mongoLikeRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type LikeRepository interface {
	Upsert(ctx context.Context, like *model.Like) (*model.Like, error)
	FindByClient(ctx context.Context, clientID string) ([]*model.Like, error)
	FindLikeForPet(ctx context.Context, clientID, petID string) (*model.Like, error)
	EnsureIndexes(ctx context.Context) error
}

func NewMongoLikeRepository(cfg *config.Config) LikeRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLikeRepository{
		cfg:        cfg,
		collection: db.Collection(LikeCollectionName),
	}
}

// Upsert keeps one reaction per (cliente, pet) pair: a repeated reaction
// replaces the previous tipo in place.
func (r *mongoLikeRepository) Upsert(ctx context.Context, like *model.Like) (*model.Like, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"cliente_id": like.ClienteID, "pet_id": like.PetID}
	update := bson.M{
		"$set": bson.M{
			"tipo":       like.Tipo,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"cliente_id": like.ClienteID,
			"pet_id":     like.PetID,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored model.Like
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to upsert like: %w", err)
	}

	return &stored, nil
}

func (r *mongoLikeRepository) FindByClient(ctx context.Context, clientID string) ([]*model.Like, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"cliente_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find likes: %w", err)
	}
	defer cursor.Close(ctx)

	var likes []*model.Like
	if err = cursor.All(ctx, &likes); err != nil {
		return nil, fmt.Errorf("failed to decode likes: %w", err)
	}

	return likes, nil
}

func (r *mongoLikeRepository) FindLikeForPet(ctx context.Context, clientID, petID string) (*model.Like, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"cliente_id": clientID, "pet_id": petID}

	var like model.Like
	err := r.collection.FindOne(ctx, filter).Decode(&like)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find like: %w", err)
	}

	return &like, nil
}

func (r *mongoLikeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "cliente_id", Value: 1},
			{Key: "pet_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}

	if _, err := r.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create like index: %w", err)
	}

	return nil
}
