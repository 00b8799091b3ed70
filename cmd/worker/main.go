package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"eliteapply/internal/config"
	"eliteapply/internal/database"
	"eliteapply/internal/llm/openrouter"
	"eliteapply/internal/metrics"
	"eliteapply/internal/notify"
	"eliteapply/internal/parsing"
	"eliteapply/internal/resumes"
	"eliteapply/internal/storage"
	"eliteapply/internal/tasks"
	"eliteapply/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	queue := asynq.NewClient(redisOpt)
	defer queue.Close()

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})

	llmClient := openrouter.New(cfg.OpenRouter)
	if !llmClient.HasAPIKey() {
		logger.Warn("OPENROUTER_API_KEY not set, every parse step will fail")
	}

	pipeline := resumes.NewPipelineStore(db)
	notifier := notify.NewNotifier(redisClient)

	extractHandler := worker.NewExtractHandler(pipeline, storageClient, tasks.NewDispatcher(queue), notifier, logger, cfg.Upload.MaxBytes)
	parseHandler := worker.NewParseHandler(pipeline, parsing.NewParser(llmClient, cfg.OpenRouter.ParseModel), notifier, logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeResumeExtract, extractHandler)
	mux.Handle(tasks.TypeResumeParse, parseHandler)

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
