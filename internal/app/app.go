package app

import (
	"EduForge/internal/ai"
	"EduForge/internal/app/server"
	"EduForge/internal/config"
	"EduForge/internal/delivery/http"
	"EduForge/internal/delivery/http/controllers"
	"EduForge/internal/storage/cache"
	"EduForge/internal/storage/elastic"
	"EduForge/internal/storage/minio_storage"
	"EduForge/internal/storage/postgres"
	"EduForge/pkg/logger"
	"context"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const startupTimeout = 30 * time.Second

func Run(cfg *config.Config) {
	log := logger.New(cfg.Env)
	defer log.Sync()
	log.Info("starting", "env", cfg.Env, "storage", cfg.Storage.Driver, "ai_provider", cfg.AI.Provider)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	checks := map[string]controllers.Check{}
	var repos Repositories
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		repos = MemoryRepositories()
		log.Warn("using in-memory storage, data is lost on restart")
	case config.StoragePostgres:
		pg, err := postgres.NewPostgresPool(cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DBName)
		if err != nil {
			log.FatalErr("error connecting to database", err)
		}
		defer pg.Close()
		if cfg.Postgres.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				log.FatalErr("error applying database schema", err)
			}
		}
		repos = PostgresRepositories(pg.Pool)
		checks["postgres"] = pg.Pool.Ping
	default:
		log.Fatal("unknown storage driver", "driver", cfg.Storage.Driver)
	}

	var backends Backends
	if cfg.Minio.Endpoint != "" {
		storage, err := minio_storage.NewMinioStorage(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
		if err != nil {
			log.FatalErr("error connecting to minio", err)
		}
		backends.Media, err = minio_storage.NewMediaStorage(ctx, storage, cfg.Minio.MediaBucket, cfg.Minio.PresignTTL)
		if err != nil {
			log.FatalErr("error preparing media bucket", err)
		}
	} else {
		log.Warn("minio endpoint not set, media uploads disabled")
	}

	if len(cfg.ES.Hosts) > 0 {
		client, err := elastic.NewElasticClient(cfg.ES.Password, cfg.ES.Hosts)
		if err != nil {
			log.FatalErr("error connecting to elasticsearch", err)
		}
		repo := elastic.NewAssignmentSearchRepository(client, cfg.ES.Index)
		if err := repo.CreateIndexIfNotExist(ctx); err != nil {
			log.FatalErr("error creating search index", err)
		}
		backends.Search = repo
	} else {
		log.Warn("elasticsearch hosts not set, search disabled")
	}

	if cfg.Redis.URL != "" {
		c, err := cache.New(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			// the cache is optional; run without it
			log.ErrorErr("redis unavailable, study content will not be cached", err)
		} else {
			defer c.Close()
			backends.Cache = c
			checks["redis"] = c.HealthCheck
		}
	}

	if cfg.AI.Provider != "mock" && cfg.AI.APIKey != "" {
		opts := []ai.OpenAIOption{
			ai.WithModel(cfg.AI.Model),
			ai.WithHTTPClient(&nethttp.Client{Timeout: cfg.AI.Timeout}),
		}
		if cfg.AI.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(cfg.AI.BaseURL))
		}
		backends.AI = ai.NewOpenAIProvider(cfg.AI.APIKey, opts...)
	} else if cfg.AI.Provider != "mock" {
		log.Warn("ai api key not set, using the offline generator", "provider", cfg.AI.Provider)
	}

	u, err := NewServices(log, cfg, repos, backends)
	if err != nil {
		log.FatalErr("error building services", err)
	}

	r := http.InitRoutes(log, u, http.Options{CORSOrigins: cfg.CORS.Origins, Checks: checks})

	srv := server.New(cfg.HTTPServer.Address, cfg.HTTPServer.Timeout, cfg.HTTPServer.IdleTimeout, r)
	srv.Start()
	log.Info("http server started", "address", cfg.HTTPServer.Address)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info("app signal", "signal", s.String())
	case err := <-srv.Notify():
		log.ErrorErr("http server stopped", err)
	}
	if err := srv.Shutdown(); err != nil {
		log.ErrorErr("http server shutdown failed", err)
	}
}
