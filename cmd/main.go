package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/andriwidi/go-session-orchestrator/config"
	"github.com/andriwidi/go-session-orchestrator/internal/application"
	"github.com/andriwidi/go-session-orchestrator/internal/container"
	"github.com/andriwidi/go-session-orchestrator/internal/domain/identity"
	"github.com/andriwidi/go-session-orchestrator/internal/infrastructure/identity/devidp"
	"github.com/andriwidi/go-session-orchestrator/internal/infrastructure/identity/httpidp"
	pginfra "github.com/andriwidi/go-session-orchestrator/internal/infrastructure/postgres"
	"github.com/andriwidi/go-session-orchestrator/internal/interface/middleware"
	"github.com/andriwidi/go-session-orchestrator/internal/router"
	"github.com/andriwidi/go-session-orchestrator/pkg/helpers"
	"github.com/andriwidi/go-session-orchestrator/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Profile store
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration failed: %v", err)
	}
	profiles := pginfra.NewProfileRepository(pool)

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	// Elasticsearch (best-effort auth event index)
	esClient, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch unavailable, auth events will not be indexed")
		esClient = nil
	}

	// RabbitMQ publisher for notification emails
	var pub *helpers.RabbitPublisher
	if cfg.MailSendEnabled {
		pub, err = helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable, notification emails disabled")
			pub = nil
		} else {
			defer pub.Close()
		}
	}

	// Identity provider
	provider, err := buildProvider(cfg, logger)
	if err != nil {
		log.Fatalf("failed to build identity provider: %v", err)
	}

	// Session manager: the single process-wide session orchestrator
	mgr := application.NewSessionManager(provider, profiles, logger)
	mgr.Redis = rdb
	mgr.ES = esClient
	mgr.ESEventsIndex = cfg.ESEventsIndex
	mgr.Pub = pub
	mgr.MailEnabled = cfg.MailSendEnabled
	if err := mgr.Start(); err != nil {
		log.Fatalf("failed to start session manager: %v", err)
	}
	defer mgr.Close()

	// Provide infra singletons to container for module auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetES(esClient)
	container.SetRabbitPub(pub)
	container.SetProvider(provider)
	container.SetSessionManager(mgr)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// buildProvider selects the identity provider implementation. Remote is the
// production path; dev is an embedded provider for local work, seeded from
// the environment.
func buildProvider(cfg *config.Config, logger *logrus.Logger) (identity.Provider, error) {
	codec := helpers.NewTokenCodec(cfg.IdentityTokenSecret, cfg.IdentityTokenTTL)
	switch cfg.IDPMode {
	case "remote":
		return httpidp.NewClient(cfg.IDPBaseURL, codec, logger), nil
	case "dev":
		p := devidp.New(logger)
		for _, seed := range cfg.DevSeeds() {
			if err := p.Seed(seed[0], seed[1], seed[2]); err != nil {
				logger.WithError(err).WithField("email", seed[0]).Warn("dev seed skipped")
			}
		}
		p.SeedFederated(cfg.DevFederatedEmail, cfg.DevFederatedName)
		return p, nil
	default:
		return nil, fmt.Errorf("unknown IDP_MODE %q", cfg.IDPMode)
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
