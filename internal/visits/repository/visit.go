package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	visitserrors "github.com/KarolineKS/PetMatch-api/internal/visits/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	mongotx "github.com/KarolineKS/PetMatch-api/pkg/db/mongo"
	"github.com/KarolineKS/PetMatch-api/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Visitas"

	clientCollectionName = "Clientes"
	petCollectionName    = "Pets"
)

type mongoVisitRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	FindByID(ctx context.Context, id string) (*model.Visit, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Visit, error)
	FindByClient(ctx context.Context, clientID string) ([]*model.Visit, error)
	FindActiveDuplicate(ctx context.Context, clientID, petID string) (*model.Visit, error)
	UpdateStatus(ctx context.Context, id string, status string) (*model.Visit, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountAtSlot(ctx context.Context, ongID string, day time.Time, horario string, statuses []string) (int64, error)
	OccupancyRows(ctx context.Context, ongID string, start, end time.Time, statuses []string) ([]*model.OccupancyRow, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
	EnsureIndexes(ctx context.Context) error
}

func NewMongoVisitRepository(cfg *config.Config) VisitRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVisitRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoVisitRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoVisitRepository) Create(ctx context.Context, visit *model.Visit) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	visit.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, visit)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		visit.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVisitRepository) FindByID(ctx context.Context, id string) (*model.Visit, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}

	var visit model.Visit
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&visit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, visitserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find visit: %w", err)
	}

	return &visit, nil
}

func (r *mongoVisitRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Visit, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "data", Value: 1}, {Key: "horario", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find visits: %w", err)
	}
	defer cursor.Close(ctx)

	var visits []*model.Visit
	if err = cursor.All(ctx, &visits); err != nil {
		return nil, fmt.Errorf("failed to decode visits: %w", err)
	}

	return visits, nil
}

func (r *mongoVisitRepository) FindByClient(ctx context.Context, clientID string) ([]*model.Visit, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "data", Value: -1}, {Key: "horario", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"cliente_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find visits by client: %w", err)
	}
	defer cursor.Close(ctx)

	var visits []*model.Visit
	if err = cursor.All(ctx, &visits); err != nil {
		return nil, fmt.Errorf("failed to decode visits: %w", err)
	}

	return visits, nil
}

// FindActiveDuplicate returns the client's existing PENDENTE or CONFIRMADA
// visit for the same pet, if any.
func (r *mongoVisitRepository) FindActiveDuplicate(ctx context.Context, clientID, petID string) (*model.Visit, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"cliente_id": clientID,
		"pet_id":     petID,
		"status":     bson.M{"$in": model.ActiveVisitStatuses},
	}

	var visit model.Visit
	err := r.collection.FindOne(ctx, filter).Decode(&visit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, visitserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find duplicate visit: %w", err)
	}

	return &visit, nil
}

func (r *mongoVisitRepository) UpdateStatus(ctx context.Context, id string, status string) (*model.Visit, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": status}}

	var visit model.Visit
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&visit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, visitserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update visit status: %w", err)
	}

	return &visit, nil
}

func (r *mongoVisitRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}

	if result.DeletedCount == 0 {
		return visitserrors.ErrNotFound
	}

	return nil
}

func (r *mongoVisitRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

// CountAtSlot counts visits holding the (ong, date, horario) slot in any of
// the given statuses. This is the capacity check the scheduling engine runs
// per slot.
func (r *mongoVisitRepository) CountAtSlot(ctx context.Context, ongID string, day time.Time, horario string, statuses []string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	filter := bson.M{
		"ong_id":  ongID,
		"horario": horario,
		"status":  bson.M{"$in": statuses},
		"data": bson.M{
			"$gte": dayStart,
			"$lt":  dayEnd,
		},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits at slot: %w", err)
	}
	return count, nil
}

// OccupancyRows joins visits in [start, end) with client and pet names for
// the occupancy report, sorted by date then horario.
func (r *mongoVisitRepository) OccupancyRows(ctx context.Context, ongID string, start, end time.Time, statuses []string) ([]*model.OccupancyRow, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"ong_id": ongID,
			"status": bson.M{"$in": statuses},
			"data":   bson.M{"$gte": start, "$lt": end},
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         clientCollectionName,
			"localField":   "cliente_id",
			"foreignField": "_id",
			"as":           "cliente",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"pet_oid": bson.M{"$toObjectId": "$pet_id"},
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         petCollectionName,
			"localField":   "pet_oid",
			"foreignField": "_id",
			"as":           "pet",
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"data":         1,
			"horario":      1,
			"status":       1,
			"cliente_nome": bson.M{"$ifNull": bson.A{bson.M{"$first": "$cliente.nome"}, ""}},
			"pet_nome":     bson.M{"$ifNull": bson.A{bson.M{"$first": "$pet.nome"}, ""}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "data", Value: 1},
			{Key: "horario", Value: 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate occupancy rows: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []*model.OccupancyRow
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode occupancy rows: %w", err)
	}

	return rows, nil
}

func (r *mongoVisitRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// EnsureIndexes creates the slot-count index the capacity checks rely on plus
// the client lookup index.
func (r *mongoVisitRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "ong_id", Value: 1},
				{Key: "data", Value: 1},
				{Key: "horario", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "cliente_id", Value: 1},
				{Key: "pet_id", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create visit indexes: %w", err)
	}

	return nil
}
