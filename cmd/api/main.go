package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"eliteapply/internal/api"
	"eliteapply/internal/auth"
	"eliteapply/internal/config"
	"eliteapply/internal/coverletter"
	"eliteapply/internal/database"
	"eliteapply/internal/extension"
	"eliteapply/internal/llm/openrouter"
	"eliteapply/internal/metrics"
	"eliteapply/internal/pagefetch"
	"eliteapply/internal/profile"
	"eliteapply/internal/resumes"
	"eliteapply/internal/storage"
	"eliteapply/internal/tasks"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	log.Printf("api bootstrapped with db host=%s port=%d db=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	log.Printf("database migrated")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer queue.Close()

	privatePEM, err := os.ReadFile(cfg.Auth.PrivateKeyPath)
	if err != nil {
		log.Fatalf("read jwt private key: %v", err)
	}
	publicPEM, err := os.ReadFile(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("read jwt public key: %v", err)
	}
	tokens, err := auth.NewTokenIssuer(privatePEM, publicPEM, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("init token issuer: %v", err)
	}

	llmClient := openrouter.New(cfg.OpenRouter)
	if !llmClient.HasAPIKey() {
		logger.Warn("OPENROUTER_API_KEY not set, cover letters require a user key and parsing will fail")
	}

	generator := coverletter.NewGenerator(llmClient, coverletter.WithObserver(metrics.ModelCalls{}))
	renderer := pagefetch.NewRenderer(cfg.Browser, logger)
	ext := extension.NewService(extension.NewStore(redisClient), generator, renderer, cfg.OpenRouter.APIKey, logger)

	owners := resumes.NewOwnerStore(db, storageClient, tasks.NewDispatcher(queue))
	profiles := profile.NewStore(db)

	router := api.NewRouter(logger, cfg.API.InternalSecret)
	api.RegisterRoutes(router, api.Handlers{
		Auth:      api.NewAuthHandler(auth.NewAccounts(db), tokens, redisClient, cfg.Auth),
		Resumes:   api.NewResumeHandler(owners, profiles, storageClient, api.NewClamdScanner(cfg.Upload.ClamdAddr), cfg.Upload.MaxBytes),
		Profile:   api.NewProfileHandler(profiles),
		Extension: api.NewExtensionHandler(ext),
		Ws:        api.NewWsHandler(api.RedisSubscriber{Client: redisClient}, tokens, logger, cfg.API.Origins()),
		Tokens:    tokens,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("addr", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
