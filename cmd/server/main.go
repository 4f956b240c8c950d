package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roadmap-backend/application/ports"
	"roadmap-backend/application/services"
	"roadmap-backend/infrastructure/config"
	"roadmap-backend/infrastructure/credentials"
	"roadmap-backend/infrastructure/llm"
	"roadmap-backend/infrastructure/pdf"
	dynamorepo "roadmap-backend/infrastructure/persistence/dynamodb"
	"roadmap-backend/infrastructure/persistence/memory"
	"roadmap-backend/interfaces/http/rest"
	"roadmap-backend/pkg/auth"
	"roadmap-backend/pkg/observability"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	store, err := credentials.LoadOrInit(cfg.CredentialsFile)
	if err != nil {
		return err
	}
	logger.Info("credential store loaded",
		zap.String("path", cfg.CredentialsFile),
		zap.Int("users", len(store.Usernames())))

	if cfg.WatchCredentials {
		watcher, err := credentials.NewWatcher(store, logger)
		if err != nil {
			logger.Warn("credential watcher disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	cookie := store.CookieConfig()
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		SecretKey: cookie.Key,
		Issuer:    "roadmap-backend",
		Lifetime:  time.Duration(cookie.ExpiryDays) * 24 * time.Hour,
	})
	if err != nil {
		return err
	}

	var repo ports.RoadmapRepository
	if cfg.UseMemoryStore {
		logger.Info("using in-memory roadmap store")
		repo = memory.NewRoadmapRepository()
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return err
		}
		client := dynamodb.NewFromConfig(awsCfg)
		repo = dynamorepo.NewRoadmapRepository(client, cfg.DynamoDBTable, logger)
		logger.Info("using DynamoDB roadmap store", zap.String("table", cfg.DynamoDBTable))
	}

	generator := llm.NewClient(llm.Options{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	}, logger)

	service := services.NewRoadmapService(generator, repo, pdf.NewRenderer(), logger)
	metrics := observability.NewMetrics()

	router := rest.NewRouter(store, tokens, service, metrics, logger, cfg.EnableCORS, cfg.EnableMetrics)

	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	zapCfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = lvl
	}
	return zapCfg.Build()
}
