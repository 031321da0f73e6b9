package main

import (
	"context"
	"errors"

	clientserrors "github.com/KarolineKS/PetMatch-api/internal/clients/errors"
	clienthandler "github.com/KarolineKS/PetMatch-api/internal/clients/handler"
	clientrepository "github.com/KarolineKS/PetMatch-api/internal/clients/repository"
	clientservice "github.com/KarolineKS/PetMatch-api/internal/clients/service"
	clientvalidator "github.com/KarolineKS/PetMatch-api/internal/clients/validator"
	pethandler "github.com/KarolineKS/PetMatch-api/internal/pets/handler"
	petrepository "github.com/KarolineKS/PetMatch-api/internal/pets/repository"
	petservice "github.com/KarolineKS/PetMatch-api/internal/pets/service"
	petvalidator "github.com/KarolineKS/PetMatch-api/internal/pets/validator"
	schedulehandler "github.com/KarolineKS/PetMatch-api/internal/schedules/handler"
	schedulerepository "github.com/KarolineKS/PetMatch-api/internal/schedules/repository"
	scheduleservice "github.com/KarolineKS/PetMatch-api/internal/schedules/service"
	schedulevalidator "github.com/KarolineKS/PetMatch-api/internal/schedules/validator"
	shelterhandler "github.com/KarolineKS/PetMatch-api/internal/shelters/handler"
	shelterrepository "github.com/KarolineKS/PetMatch-api/internal/shelters/repository"
	shelterservice "github.com/KarolineKS/PetMatch-api/internal/shelters/service"
	sheltervalidator "github.com/KarolineKS/PetMatch-api/internal/shelters/validator"
	visithandler "github.com/KarolineKS/PetMatch-api/internal/visits/handler"
	visitrepository "github.com/KarolineKS/PetMatch-api/internal/visits/repository"
	visitservice "github.com/KarolineKS/PetMatch-api/internal/visits/service"
	visitvalidator "github.com/KarolineKS/PetMatch-api/internal/visits/validator"
	"github.com/KarolineKS/PetMatch-api/pkg/app"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	"github.com/KarolineKS/PetMatch-api/pkg/contracts"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/events"
	"github.com/KarolineKS/PetMatch-api/pkg/middleware"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
)

const ServiceName = "petmatch-api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting PetMatch API")

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaVisitTopic, cfg.Log)
	handlers := initHandlers(cfg, publisher)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handlers...)
	serverApp.Run()

	if err := publisher.Close(); err != nil {
		cfg.Log.Error("Failed to close event publisher", "error", err)
	}
	cfg.GracefulShutdown()
}

func initHandlers(cfg *config.Config, publisher events.Publisher) []contracts.Handler {
	shelterRepo := shelterrepository.NewMongoShelterRepository(cfg)
	ruleRepo := schedulerepository.NewMongoRuleRepository(cfg)
	exceptionRepo := schedulerepository.NewMongoExceptionRepository(cfg)
	petRepo := petrepository.NewMongoPetRepository(cfg)
	clientRepo := clientrepository.NewMongoClientRepository(cfg)
	likeRepo := clientrepository.NewMongoLikeRepository(cfg)
	visitRepo := visitrepository.NewMongoVisitRepository(cfg)
	slotLockRepo := visitrepository.NewMongoSlotLockRepository(cfg)

	ensureIndexes(cfg, map[string]indexer{
		"Ongs":                  shelterRepo,
		"HorariosFuncionamento": ruleRepo,
		"Clientes":              clientRepo,
		"Curtidas":              likeRepo,
		"Visitas":               visitRepo,
		"Visita_locks":          slotLockRepo,
	})

	shelterValidator := sheltervalidator.NewShelterValidator(cfg.Log)
	scheduleValidator := schedulevalidator.NewScheduleValidator(cfg.Log)
	petValidator := petvalidator.NewPetValidator(cfg.Log)
	clientValidator := clientvalidator.NewClientValidator(cfg.Log)
	visitValidator := visitvalidator.NewVisitValidator(cfg.Log)

	shelterService := shelterservice.NewShelterService(
		shelterRepo, ruleRepo, exceptionRepo, shelterValidator, scheduleValidator, cfg)
	scheduleService := scheduleservice.NewScheduleService(
		ruleRepo, exceptionRepo, scheduleValidator, shelterRepo, visitRepo, cfg)
	petService := petservice.NewPetService(petRepo, petValidator, shelterRepo, cfg)
	visitService := visitservice.NewVisitService(
		visitRepo, slotLockRepo, visitValidator, petService,
		clientLookup{repo: clientRepo}, scheduleService, publisher, cfg)
	clientService := clientservice.NewClientService(
		clientRepo, likeRepo, clientValidator, petService, visitService, cfg)

	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.Log)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		shelterhandler.NewShelterHandler(shelterService, auth, cfg.Log),
		schedulehandler.NewScheduleHandler(scheduleService, auth, cfg.Log),
		pethandler.NewPetHandler(petService, auth, cfg.Log),
		visithandler.NewVisitHandler(visitService, auth, cfg.Log),
		clienthandler.NewClientHandler(clientService, cfg.Log),
	}
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(cfg *config.Config, repos map[string]indexer) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	for collection, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			cfg.Log.Fatal("Failed to ensure indexes", "collection", collection, "error", err)
		}
	}
	cfg.Log.Info("Indexes ensured", "collections", len(repos))
}

// clientLookup adapts the client repository to the booking flow so the
// visits and clients services do not depend on each other.
type clientLookup struct {
	repo clientrepository.ClientRepository
}

func (c clientLookup) Get(ctx context.Context, id string) (*model.Client, error) {
	client, err := c.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, clientserrors.ErrNotFound) || errors.Is(err, clientserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Cliente", id)
		}
		return nil, apperrors.Internal("Failed to load client", err)
	}
	return client, nil
}
