package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	scheduleserrors "github.com/KarolineKS/PetMatch-api/internal/schedules/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	"github.com/KarolineKS/PetMatch-api/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ExceptionCollectionName = "ExcecoesHorario"
)

type mongoExceptionRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type ExceptionRepository interface {
	Create(ctx context.Context, exception *model.ScheduleException) error
	FindByOng(ctx context.Context, ongID string) ([]*model.ScheduleException, error)
	FindActiveOnDate(ctx context.Context, ongID string, day time.Time) (*model.ScheduleException, error)
	DeleteByOng(ctx context.Context, ongID string) (int64, error)
}

func NewMongoExceptionRepository(cfg *config.Config) ExceptionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoExceptionRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(ExceptionCollectionName),
	}
}

func (r *mongoExceptionRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoExceptionRepository) Create(ctx context.Context, exception *model.ScheduleException) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	exception.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, exception)
	if err != nil {
		return fmt.Errorf("failed to create schedule exception: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		exception.ID = oid.Hex()
	}
	return nil
}

func (r *mongoExceptionRepository) FindByOng(ctx context.Context, ongID string) ([]*model.ScheduleException, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "data", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"ong_id": ongID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule exceptions: %w", err)
	}
	defer cursor.Close(ctx)

	var exceptions []*model.ScheduleException
	if err = cursor.All(ctx, &exceptions); err != nil {
		return nil, fmt.Errorf("failed to decode schedule exceptions: %w", err)
	}

	return exceptions, nil
}

// FindActiveOnDate matches exceptions whose stored date falls anywhere within
// the UTC day of the given time.
func (r *mongoExceptionRepository) FindActiveOnDate(ctx context.Context, ongID string, day time.Time) (*model.ScheduleException, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	filter := bson.M{
		"ong_id": ongID,
		"ativo":  true,
		"data": bson.M{
			"$gte": dayStart,
			"$lt":  dayEnd,
		},
	}

	var exception model.ScheduleException
	err := r.collection.FindOne(ctx, filter).Decode(&exception)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, scheduleserrors.ErrExceptionNotFound
		}
		return nil, fmt.Errorf("failed to find schedule exception: %w", err)
	}

	return &exception, nil
}

func (r *mongoExceptionRepository) DeleteByOng(ctx context.Context, ongID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"ong_id": ongID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete schedule exceptions: %w", err)
	}

	return result.DeletedCount, nil
}
