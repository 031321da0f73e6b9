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
	RuleCollectionName = "HorariosFuncionamento"
)

type mongoRuleRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type RuleRepository interface {
	Upsert(ctx context.Context, rule *model.ScheduleRule) (*model.ScheduleRule, bool, error)
	FindByID(ctx context.Context, id string) (*model.ScheduleRule, error)
	FindByOng(ctx context.Context, ongID string) ([]*model.ScheduleRule, error)
	FindActiveForWeekday(ctx context.Context, ongID string, weekday int) (*model.ScheduleRule, error)
	DeleteByOng(ctx context.Context, ongID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

func NewMongoRuleRepository(cfg *config.Config) RuleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRuleRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(RuleCollectionName),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoRuleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

// Upsert creates or replaces the rule for the (ong_id, dia_semana) pair and
// returns the stored document plus whether a new one was inserted.
func (r *mongoRuleRepository) Upsert(ctx context.Context, rule *model.ScheduleRule) (*model.ScheduleRule, bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"ong_id": rule.OngID, "dia_semana": rule.DiaSemana}
	update := bson.M{
		"$set": bson.M{
			"hora_inicio":             rule.HoraInicio,
			"hora_fim":                rule.HoraFim,
			"intervalo_minutos":       rule.IntervaloMinutos,
			"max_visitas_simultaneas": rule.MaxVisitasSimultaneas,
			"ativo":                   model.ActiveOrDefault(rule.Ativo),
			"updated_at":              now,
		},
		"$setOnInsert": bson.M{
			"ong_id":     rule.OngID,
			"dia_semana": rule.DiaSemana,
			"created_at": now,
		},
	}

	// ReturnDocument(Before) distinguishes insert from replace: an upsert
	// that inserted has no previous document to return.
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var before model.ScheduleRule
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	created := errors.Is(err, mongo.ErrNoDocuments)
	if err != nil && !created {
		return nil, false, fmt.Errorf("failed to upsert schedule rule: %w", err)
	}

	var stored model.ScheduleRule
	if err := r.collection.FindOne(ctx, filter).Decode(&stored); err != nil {
		return nil, false, fmt.Errorf("failed to load upserted schedule rule: %w", err)
	}

	return &stored, created, nil
}

func (r *mongoRuleRepository) FindByID(ctx context.Context, id string) (*model.ScheduleRule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	var rule model.ScheduleRule
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&rule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, scheduleserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find schedule rule: %w", err)
	}

	return &rule, nil
}

func (r *mongoRuleRepository) FindByOng(ctx context.Context, ongID string) ([]*model.ScheduleRule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "dia_semana", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"ong_id": ongID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []*model.ScheduleRule
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode schedule rules: %w", err)
	}

	return rules, nil
}

func (r *mongoRuleRepository) FindActiveForWeekday(ctx context.Context, ongID string, weekday int) (*model.ScheduleRule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"ong_id":     ongID,
		"dia_semana": weekday,
		"ativo":      true,
	}

	var rule model.ScheduleRule
	err := r.collection.FindOne(ctx, filter).Decode(&rule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, scheduleserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find schedule rule for weekday: %w", err)
	}

	return &rule, nil
}

func (r *mongoRuleRepository) DeleteByOng(ctx context.Context, ongID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"ong_id": ongID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete schedule rules: %w", err)
	}

	return result.DeletedCount, nil
}

// EnsureIndexes creates the unique (ong_id, dia_semana) index that backs the
// upsert semantics of Upsert.
func (r *mongoRuleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "ong_id", Value: 1},
			{Key: "dia_semana", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}

	if _, err := r.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create schedule rule index: %w", err)
	}

	return nil
}
