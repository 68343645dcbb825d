package bootstrap

import (
	"context"
	"time"

	"lexflow_server/adapter/out/llm"
	"lexflow_server/adapter/out/mongodb"
	"lexflow_server/adapter/out/persistence"
	"lexflow_server/adapter/out/realtime"
	"lexflow_server/config"
	"lexflow_server/core/port/out"
	"lexflow_server/core/service/ai"
	"lexflow_server/core/service/billing"
	"lexflow_server/core/service/chat"
	"lexflow_server/core/service/classification"
	"lexflow_server/core/service/directory"
	"lexflow_server/core/service/document"
	"lexflow_server/core/service/mailroom"
	"lexflow_server/core/service/matter"
	"lexflow_server/infra/database"
	"lexflow_server/internal/stream"
	"lexflow_server/pkg/cache"
	"lexflow_server/pkg/logger"
	"lexflow_server/pkg/ratelimit"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	EmailRepo    out.EmailRepository
	CaseRepo     out.CaseRepository
	ClientRepo   out.ClientRepository
	SourceRepo   out.SourceRepository
	NoteRepo     out.NoteRepository
	UserRepo     out.UserRepository
	BillingRepo  out.BillingRepository
	DocumentRepo out.DocumentRepository
	BodyRepo     out.DocumentBodyRepository

	// Messaging
	Stream   *stream.RedisStream
	Producer out.JobProducer

	// Services
	Classifier       *classification.Service
	Reclassifier     *classification.Reclassifier
	MailroomService  *mailroom.Service
	MatterService    *matter.Service
	DirectoryService *directory.Service
	BillingService   *billing.Service
	DocumentService  *document.Service
	ChatService      *chat.Service
	AIService        *ai.Service
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// Postgres (pgxpool for health checks)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	// Postgres (sqlx for the persistence adapters)
	sqlDB, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	// Redis (streams, chat, caches)
	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Redis = redisClient
	cleanups = append(cleanups, func() { redisClient.Close() })

	// MongoDB (document bodies). Optional: without it the drafting module is
	// disabled and its routes are not registered.
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
		if err != nil {
			logger.WithError(err).Warn("MongoDB connection failed, documents disabled")
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				mongoClient.Disconnect(context.Background())
			})

			bodyAdapter := mongodb.NewDocumentBodyAdapter(mongoClient.Database(cfg.MongoDBName))
			if err := bodyAdapter.EnsureIndexes(context.Background()); err != nil {
				logger.WithError(err).Warn("failed to ensure document body indexes")
			}
			deps.BodyRepo = bodyAdapter
		}
	}

	// Repositories
	deps.EmailRepo = persistence.NewEmailAdapter(sqlDB)
	deps.CaseRepo = persistence.NewCaseAdapter(sqlDB)
	deps.ClientRepo = persistence.NewClientAdapter(sqlDB)
	deps.SourceRepo = persistence.NewSourceAdapter(sqlDB)
	deps.NoteRepo = persistence.NewNoteAdapter(sqlDB)
	deps.UserRepo = persistence.NewUserAdapter(sqlDB)
	deps.BillingRepo = persistence.NewBillingAdapter(sqlDB)
	deps.DocumentRepo = persistence.NewDocumentAdapter(sqlDB)

	// Job producer (Redis Streams)
	deps.Stream = stream.NewRedisStream(redisClient, cfg.ConsumerGroup).
		WithReadOptions(int64(cfg.ConsumerBatchSize), cfg.ConsumerBlock())
	deps.Producer = stream.NewProducer(deps.Stream)

	// Classification
	scorerConfig := classification.DefaultScorerConfig()
	scorerConfig.ClassifyThreshold = cfg.ClassifyThreshold
	scorerConfig.InboxThreshold = cfg.InboxThreshold
	deps.Classifier = classification.NewService(
		scorerConfig,
		deps.EmailRepo,
		deps.CaseRepo,
		deps.ClientRepo,
		deps.SourceRepo,
	)
	deps.Reclassifier = classification.NewReclassifier(
		deps.Classifier,
		deps.EmailRepo,
		deps.CaseRepo,
		deps.ClientRepo,
	)

	// Core services
	redisCache := cache.NewRedisCache(redisClient)
	deps.MailroomService = mailroom.NewService(
		deps.EmailRepo,
		deps.CaseRepo,
		deps.ClientRepo,
		deps.Classifier,
		deps.Producer,
		redisCache,
	)
	deps.MatterService = matter.NewService(deps.CaseRepo, deps.NoteRepo, deps.UserRepo)
	deps.DirectoryService = directory.NewService(deps.ClientRepo, deps.SourceRepo, deps.Producer)
	deps.BillingService = billing.NewService(deps.BillingRepo, deps.CaseRepo, deps.ClientRepo)

	if deps.BodyRepo != nil {
		deps.DocumentService = document.NewService(deps.DocumentRepo, deps.BodyRepo, deps.CaseRepo)
	}

	// Chat (Redis pub/sub)
	broker := realtime.NewChatBroker(redisClient)
	deps.ChatService = chat.NewService(broker, deps.UserRepo)

	// AI (OpenAI behind a circuit breaker, per-user hourly quota)
	if cfg.OpenAIAPIKey != "" {
		llmClient := llm.NewClient(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		limiter := ratelimit.NewFixedWindowLimiter(
			redisCache,
			"quota:ai",
			int64(cfg.AIQuotaPerHour),
			time.Hour,
		)
		deps.AIService = ai.NewService(
			llmClient,
			limiter,
			deps.EmailRepo,
			deps.CaseRepo,
			deps.NoteRepo,
			deps.DocumentRepo,
			deps.BodyRepo,
		)
	} else {
		logger.Warn("OPENAI_API_KEY not set, AI endpoints disabled")
	}

	return deps, cleanup, nil
}
