package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"atelier/api/internal/activity"
	"atelier/api/internal/ai"
	"atelier/api/internal/app"
	"atelier/api/internal/cache"
	"atelier/api/internal/config"
	"atelier/api/internal/email"
	"atelier/api/internal/export"
	"atelier/api/internal/search"
	"atelier/api/internal/session"
	"atelier/api/internal/store"

	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: could not load .env: %v", err)
	}
	cfg := config.Load()
	ctx := context.Background()

	// An unreachable database is not fatal: the server comes up degraded and
	// /api/ready reports the failing check until Postgres returns.
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		if db == nil {
			log.Fatalf("database open failed: %v", err)
		}
		log.Printf("WARNING: database unreachable, starting degraded: %v", err)
	} else if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	defer db.Close()

	dataStore := store.NewPostgresStore(db)

	opts := app.Options{Sessions: session.NewManager()}

	// Redis carries the query cache, refresh sessions, and the realtime
	// activity channel. Without it everything degrades to Postgres.
	var refreshRedis *session.RedisStore
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) != "" {
		refreshRedis, err = session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer refreshRedis.Close()
		log.Printf("using Redis for refresh sessions")

		queryCache, err := cache.New(cfg.RedisURL, 60*time.Second)
		if err != nil {
			log.Fatalf("redis cache failed: %v", err)
		}
		defer queryCache.Close()
		opts.Cache = queryCache

		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis url invalid: %v", err)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()
	} else {
		log.Printf("using PostgreSQL for refresh sessions; query cache disabled")
	}
	opts.Activity = activity.NewRecorder(dataStore, redisClient)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	opts.Search = search.NewService(meiliClient, pgfts)
	opts.Search.ReindexAllFromPG(ctx)

	var archive *export.Archive
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		archive, err = export.NewArchive(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Printf("WARNING: export archive unavailable: %v", err)
			archive = nil
		}
	}
	opts.Exporter = export.NewService(dataStore, archive)

	if strings.TrimSpace(cfg.SMTPHost) != "" {
		smtp := email.NewService(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		})
		opts.Relay = email.NewRelay(smtp, dataStore, cfg.AppBaseURL)
	} else {
		log.Printf("SMTP not configured; email relay disabled")
	}

	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		aiService, err := ai.NewService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("WARNING: ai generation unavailable: %v", err)
		} else {
			opts.AI = aiService
		}
	}

	var service *app.Service
	if refreshRedis != nil {
		service = app.NewService(cfg, dataStore, refreshRedis, opts)
	} else {
		service = app.NewService(cfg, dataStore, nil, opts)
	}
	httpServer := app.NewHTTPServer(cfg, service)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Atelier API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
