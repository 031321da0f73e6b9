package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	petserrors "github.com/KarolineKS/PetMatch-api/internal/pets/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	"github.com/KarolineKS/PetMatch-api/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Pets"
)

// PetFilter narrows the pet listing. Zero values mean "no filter".
type PetFilter struct {
	OngID   string
	Especie string
	Porte   string
	Adotado *bool
}

type mongoPetRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type PetRepository interface {
	Create(ctx context.Context, pet *model.Pet) error
	FindByID(ctx context.Context, id string) (*model.Pet, error)
	Find(ctx context.Context, filter PetFilter, limit int, offset int64) ([]*model.Pet, error)
	Update(ctx context.Context, id string, pet *model.Pet) error
	SetAdotado(ctx context.Context, id string, adotado bool) (*model.Pet, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter PetFilter) (int64, error)
}

func NewMongoPetRepository(cfg *config.Config) PetRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPetRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPetRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func buildFilter(filter PetFilter) bson.M {
	query := bson.M{}
	if filter.OngID != "" {
		query["ong_id"] = filter.OngID
	}
	if filter.Especie != "" {
		query["especie"] = filter.Especie
	}
	if filter.Porte != "" {
		query["porte"] = filter.Porte
	}
	if filter.Adotado != nil {
		query["adotado"] = *filter.Adotado
	}
	return query
}

func (r *mongoPetRepository) Create(ctx context.Context, pet *model.Pet) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	pet.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, pet)
	if err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		pet.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPetRepository) FindByID(ctx context.Context, id string) (*model.Pet, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", petserrors.ErrInvalidID, id)
	}

	var pet model.Pet
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&pet)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, petserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find pet: %w", err)
	}

	return &pet, nil
}

func (r *mongoPetRepository) Find(ctx context.Context, filter PetFilter, limit int, offset int64) ([]*model.Pet, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pets: %w", err)
	}
	defer cursor.Close(ctx)

	var pets []*model.Pet
	if err = cursor.All(ctx, &pets); err != nil {
		return nil, fmt.Errorf("failed to decode pets: %w", err)
	}

	return pets, nil
}

func (r *mongoPetRepository) Update(ctx context.Context, id string, pet *model.Pet) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", petserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"nome":        pet.Nome,
			"especie":     pet.Especie,
			"idade":       pet.Idade,
			"descricao":   pet.Descricao,
			"cor":         pet.Cor,
			"raca":        pet.Raca,
			"porte":       pet.Porte,
			"sexo":        pet.Sexo,
			"castrado":    pet.Castrado,
			"vacinado":    pet.Vacinado,
			"vermifugado": pet.Vermifugado,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update pet: %w", err)
	}

	if result.MatchedCount == 0 {
		return petserrors.ErrNotFound
	}

	return nil
}

func (r *mongoPetRepository) SetAdotado(ctx context.Context, id string, adotado bool) (*model.Pet, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", petserrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"adotado": adotado}}

	var pet model.Pet
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&pet)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, petserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update pet adoption flag: %w", err)
	}

	return &pet, nil
}

func (r *mongoPetRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", petserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete pet: %w", err)
	}

	if result.DeletedCount == 0 {
		return petserrors.ErrNotFound
	}

	return nil
}

func (r *mongoPetRepository) Count(ctx context.Context, filter PetFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count pets: %w", err)
	}
	return count, nil
}
