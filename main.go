package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursemint/domain/repository"
	"coursemint/infrastructure/cache"
	"coursemint/infrastructure/clients/commerce"
	"coursemint/infrastructure/clients/openai"
	"coursemint/infrastructure/clients/unsplash"
	"coursemint/infrastructure/configuration"
	"coursemint/infrastructure/document"
	"coursemint/infrastructure/logger"
	"coursemint/infrastructure/persistence"
	"coursemint/infrastructure/pubsub"
	"coursemint/infrastructure/servicebus"
	httpHandler "coursemint/interfaces/http"
	"coursemint/interfaces/middleware"
	"coursemint/server"
	"coursemint/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	if loaded := configuration.LoadEnvFromFile("config.env", ".env"); len(loaded) > 0 {
		logger.GetLogger().WithField("files", loaded).Info("Loaded env files")
	}
	cfg := configuration.C
	app := cfg.App

	psqlDb, entitlementDb, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}
	logger.GetLogger().
		WithField("PSQLDb", psqlDb.Ping()).
		WithField("EntitlementDb", entitlementDb.Ping()).
		Info("Database connected.")

	contentRepo := persistence.NewContentRepository(psqlDb)
	var grantRepo repository.IAccessGrant
	var tokenRepo repository.IOAuthToken
	if entitlementDb != psqlDb {
		grantRepo = persistence.NewAccessGrantRepositoryMSSQL(entitlementDb)
		tokenRepo = persistence.NewOAuthTokenRepositoryMSSQL(entitlementDb)
	} else {
		grantRepo = persistence.NewAccessGrantRepository(psqlDb)
		tokenRepo = persistence.NewOAuthTokenRepository(psqlDb)
	}

	// Generation log on Mongo is optional
	var generationLog repository.IGenerationLog
	mongoDb, err := persistence.NewMongoDb(
		cfg.Database.Mongo.Host,
		cfg.Database.Mongo.Port,
		cfg.Database.Mongo.User,
		cfg.Database.Mongo.Password,
		cfg.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without generation log")
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without generation log")
	} else {
		generationLog = persistence.NewGenerationLogRepository(mongoDb, cfg.Database.Mongo.Name)
		logger.GetLogger().Info("MongoDB connected successfully")
		defer func() { _ = mongoDb.Disconnect(context.Background()) }()
	}

	var attemptLimiter repository.IAttemptLimiter
	if cfg.RedisClient.Host != "" {
		redisClient, err := cache.NewCache(
			ctx,
			fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
			cfg.RedisClient.Username,
			cfg.RedisClient.Password,
		)
		// the client reconnects on its own and the limiter fails open meanwhile
		attemptLimiter = cache.NewAttemptLimiter(
			redisClient,
			cfg.Entitlement.MaxFailedAttempts,
			time.Duration(cfg.Entitlement.FailWindowSeconds)*time.Second,
		)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Redis unreachable at startup - attempt limiter allows all until it connects")
		} else {
			logger.GetLogger().Info("Redis attempt limiter initialized.")
		}
	} else {
		logger.GetLogger().Info("Redis not configured - access code attempts are not limited")
	}

	events := initiateEvents(ctx, cfg)

	// Commerce provider is optional; without it items are never sellable
	var tokenUsecase usecase.ITokenUsecase
	var commerceClient repository.ICommerce
	var commerceAuthHandler httpHandler.ICommerceAuthHandler
	if cfg.Commerce.Enabled() {
		oauthClient := commerce.NewOAuthClient(commerce.OAuthConfig{
			ClientID:     cfg.Commerce.ClientID,
			ClientSecret: cfg.Commerce.ClientSecret,
			AuthURL:      cfg.Commerce.AuthURL,
			TokenURL:     cfg.Commerce.TokenURL,
			RedirectURL:  cfg.Commerce.RedirectURI,
			Scopes:       cfg.Commerce.Scopes,
		}, nil)
		tokenUsecase = usecase.NewTokenUsecase(tokenRepo, oauthClient, cfg.Commerce.Scopes)
		commerceClient = commerce.NewClient(cfg.Commerce.APIBaseURL, nil)
		commerceAuthHandler = httpHandler.NewCommerceAuthHandler(tokenUsecase)
	} else {
		logger.GetLogger().Info("Commerce provider not configured - products will not be registered")
	}

	var images repository.IImageSearch
	if cfg.Unsplash.AccessKey != "" {
		images = unsplash.NewClient(cfg.Unsplash.BaseURL, cfg.Unsplash.AccessKey, nil)
	}
	generator := openai.NewClient(openai.Config{
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		Timeout: time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
	}, nil)
	extractor := document.NewPDFExtractor(cfg.Ingest.MaxBytes, time.Duration(cfg.Ingest.TimeoutSeconds)*time.Second)

	contentUsecase := usecase.NewContentUsecase(contentRepo, tokenUsecase, commerceClient)
	synthesisUsecase := usecase.NewSynthesisUsecase(generator, images, time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second)
	generationUsecase := usecase.NewGenerationUsecase(extractor, synthesisUsecase, contentUsecase, generationLog, events)

	entitlementOpts := []usecase.EntitlementOption{}
	if attemptLimiter != nil {
		entitlementOpts = append(entitlementOpts, usecase.WithAttemptLimiter(attemptLimiter))
	}
	if events != nil {
		entitlementOpts = append(entitlementOpts, usecase.WithEventPublisher(events))
	}
	entitlementUsecase := usecase.NewEntitlementUsecase(contentRepo, grantRepo, tokenUsecase, commerceClient, app.PublicBaseURL, entitlementOpts...)

	router := server.InitiateRouter(server.Handlers{
		Content:      httpHandler.NewContentHandler(generationUsecase, contentUsecase, cfg.Ingest.MaxBytes),
		Checkout:     httpHandler.NewCheckoutHandler(entitlementUsecase, contentUsecase),
		CommerceAuth: commerceAuthHandler,
	}, app.SecretKey, nil, middleware.NewRateLimiter(app.PublicRatePerMinute))

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if closer, ok := events.(interface{ Stop() }); ok {
		closer.Stop()
	}
	if closer, ok := events.(interface{ Close(context.Context) }); ok {
		closer.Close(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase returns (contentDB, entitlementDB). Content always lives in
// PostgreSQL; grants and tokens move to MSSQL in production or with DB_VENDOR=mssql.
func InitiateDatabase() (*sql.DB, *sql.DB, error) {
	psql, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, nil, err
	}
	if err := persistence.EnsureSchema(psql); err != nil {
		return nil, nil, fmt.Errorf("ensure postgres schema: %w", err)
	}

	env := os.Getenv("ENV")
	if os.Getenv("DB_VENDOR") != "mssql" && env != "production" && env != "prod" {
		return psql, psql, nil
	}
	mssql, err := persistence.NewMSSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
		return nil, nil, err
	}
	if err := persistence.EnsureSchemaMSSQL(mssql); err != nil {
		return nil, nil, fmt.Errorf("ensure mssql schema: %w", err)
	}
	return psql, mssql, nil
}

// initiateEvents picks the broker for domain events; nil disables them.
func initiateEvents(ctx context.Context, cfg configuration.Config) repository.IEventPublisher {
	switch cfg.Entitlement.EventsBroker {
	case "pubsub":
		client, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
			return nil
		}
		return pubsub.NewEventPublisher(client)
	case "servicebus":
		client, err := servicebus.NewServiceBus(ctx, cfg.ServiceBus.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without events")
			return nil
		}
		return servicebus.NewEventPublisher(client)
	case "":
		return nil
	}
	logger.GetLogger().WithField("broker", cfg.Entitlement.EventsBroker).Warn("Unknown events broker - events disabled")
	return nil
}
