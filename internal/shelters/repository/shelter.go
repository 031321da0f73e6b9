package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	shelterserrors "github.com/KarolineKS/PetMatch-api/internal/shelters/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	mongotx "github.com/KarolineKS/PetMatch-api/pkg/db/mongo"
	"github.com/KarolineKS/PetMatch-api/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Ongs"
)

type mongoShelterRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ShelterRepository interface {
	Create(ctx context.Context, shelter *model.Shelter) error
	FindByID(ctx context.Context, id string) (*model.Shelter, error)
	FindByCNPJ(ctx context.Context, cnpj string) (*model.Shelter, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Shelter, error)
	Update(ctx context.Context, id string, shelter *model.Shelter) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id string) (bool, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
	EnsureIndexes(ctx context.Context) error
}

func NewMongoShelterRepository(cfg *config.Config) ShelterRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoShelterRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoShelterRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoShelterRepository) Create(ctx context.Context, shelter *model.Shelter) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	shelter.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, shelter)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return shelterserrors.ErrDuplicateCNPJ
		}
		return fmt.Errorf("failed to create shelter: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		shelter.ID = oid.Hex()
	}
	return nil
}

func (r *mongoShelterRepository) FindByID(ctx context.Context, id string) (*model.Shelter, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shelterserrors.ErrInvalidID, id)
	}

	var shelter model.Shelter
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&shelter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shelterserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find shelter: %w", err)
	}

	return &shelter, nil
}

func (r *mongoShelterRepository) FindByCNPJ(ctx context.Context, cnpj string) (*model.Shelter, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var shelter model.Shelter
	err := r.collection.FindOne(ctx, bson.M{"cnpj": cnpj}).Decode(&shelter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shelterserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find shelter by CNPJ: %w", err)
	}

	return &shelter, nil
}

func (r *mongoShelterRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Shelter, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "nome", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find shelters: %w", err)
	}
	defer cursor.Close(ctx)

	var shelters []*model.Shelter
	if err = cursor.All(ctx, &shelters); err != nil {
		return nil, fmt.Errorf("failed to decode shelters: %w", err)
	}

	return shelters, nil
}

func (r *mongoShelterRepository) Update(ctx context.Context, id string, shelter *model.Shelter) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", shelterserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"nome":     shelter.Nome,
			"telefone": shelter.Telefone,
			"email":    shelter.Email,
			"site":     shelter.Site,
			"endereco": shelter.Endereco,
			"cidade":   shelter.Cidade,
			"estado":   shelter.Estado,
			"cep":      shelter.CEP,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update shelter: %w", err)
	}

	if result.MatchedCount == 0 {
		return shelterserrors.ErrNotFound
	}

	return nil
}

func (r *mongoShelterRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", shelterserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete shelter: %w", err)
	}

	if result.DeletedCount == 0 {
		return shelterserrors.ErrNotFound
	}

	return nil
}

func (r *mongoShelterRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count shelters: %w", err)
	}
	return count, nil
}

func (r *mongoShelterRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check shelter existence: %w", err)
	}
	return count > 0, nil
}

func (r *mongoShelterRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoShelterRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "cnpj", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	if _, err := r.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create shelter CNPJ index: %w", err)
	}

	return nil
}
