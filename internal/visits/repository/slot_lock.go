package repository

import (
	"context"
	"fmt"
	"time"

	visitserrors "github.com/KarolineKS/PetMatch-api/internal/visits/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	"github.com/KarolineKS/PetMatch-api/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LockCollectionName = "Visita_locks"
)

// SlotKey builds the advisory lock _id for a (ong, date, horario) slot.
func SlotKey(ongID string, day time.Time, horario string) string {
	return fmt.Sprintf("%s|%s|%s", ongID, day.UTC().Format(config.DateLayout), horario)
}

type mongoSlotLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type SlotLockRepository interface {
	Acquire(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
	EnsureIndexes(ctx context.Context) error
}

func NewMongoSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. The _id is the slot key, so a concurrent
// holder makes the insert fail with a duplicate key error, reported as
// ErrSlotLocked for the caller to back off and retry.
func (r *mongoSlotLockRepository) Acquire(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	lock := model.SlotLock{
		ID:        key,
		ExpiresAt: now.Add(r.cfg.SlotLockTTL),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return visitserrors.ErrSlotLocked
		}
		return fmt.Errorf("failed to acquire slot lock: %w", err)
	}

	return nil
}

func (r *mongoSlotLockRepository) Release(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}

// EnsureIndexes creates the TTL index so a crashed holder's lock expires on
// its own.
func (r *mongoSlotLockRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}

	if _, err := r.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create slot lock TTL index: %w", err)
	}

	return nil
}
