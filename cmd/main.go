package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/docuchat/docuchat-backend/internal/clients/redis"
	"github.com/docuchat/docuchat-backend/internal/data/db"
	"github.com/docuchat/docuchat-backend/internal/data/repos"
	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/handlers"
	"github.com/docuchat/docuchat-backend/internal/middleware"
	"github.com/docuchat/docuchat-backend/internal/observability"
	"github.com/docuchat/docuchat-backend/internal/platform/config"
	"github.com/docuchat/docuchat-backend/internal/platform/gcp"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
	"github.com/docuchat/docuchat-backend/internal/platform/ragquery"
	"github.com/docuchat/docuchat-backend/internal/platform/sendgrid"
	"github.com/docuchat/docuchat-backend/internal/server"
	"github.com/docuchat/docuchat-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	// Tracing
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "docuchat-backend",
		Environment: cfg.LogMode,
	})

	// Database
	dbService, err := db.New(log, cfg)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Warn("Auto migration failed", "error", err)
	}
	theDB := dbService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(theDB, log)
	userTokenRepo := repos.NewUserTokenRepo(theDB, log)
	projectRepo := repos.NewProjectRepo(theDB, log)
	documentRepo := repos.NewDocumentRepo(theDB, log)

	// Blob store
	bucketService, err := gcp.NewBucketService(log, cfg.StorageBucket, cfg.CDNDomain)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}

	// Query service client
	queryClient, err := ragquery.NewClient(log, cfg.QueryServiceURL)
	if err != nil {
		log.Error("Could not init query client", "error", err)
		os.Exit(1)
	}

	// Session fan-out
	sessionHub := services.NewSessionHub(log)
	var sessionBus redis.SessionBus
	if cfg.RedisAddr != "" {
		sessionBus, err = redis.NewSessionBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			log.Warn("Redis session bus unavailable, running single-instance", "error", err)
			sessionBus = nil
		}
	}
	if sessionBus != nil {
		if err := sessionBus.StartForwarder(ctx, func(ev domain.SessionEvent) {
			sessionHub.Publish(ev)
		}); err != nil {
			log.Warn("Session bus forwarder failed to start", "error", err)
		}
		defer sessionBus.Close()
	}

	// OAuth
	var oauthConfig *oauth2.Config
	if cfg.OAuthClientID != "" && cfg.OAuthClientSecret != "" {
		oauthConfig = &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		}
	}

	// Services
	log.Info("Setting up services...")
	mailer := services.NewLogMailer(log)
	if cfg.SendgridAPIKey != "" {
		sgClient, sgErr := sendgrid.New(log, sendgrid.Config{
			APIKey:           cfg.SendgridAPIKey,
			DefaultFromEmail: cfg.SendgridFromEmail,
			DefaultFromName:  cfg.SendgridFromName,
		})
		if sgErr != nil {
			log.Warn("Sendgrid init failed, login links go to the log", "error", sgErr)
		} else {
			mailer = services.NewSendgridMailer(log, sgClient, cfg.EmailLinkBaseURL)
		}
	}
	authService := services.NewAuthService(theDB, log, userRepo, userTokenRepo, sessionHub, sessionBus, mailer, oauthConfig, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	documentService := services.NewDocumentService(theDB, log, documentRepo, bucketService)
	projectService := services.NewProjectService(theDB, log, projectRepo, documentService)
	conversationService := services.NewConversationService(log, queryClient)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	queryHandler := handlers.NewQueryHandler(conversationService)
	healthHandler := handlers.NewHealthHandler(queryClient)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	router := server.NewRouter(server.RouterConfig{
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		ProjectHandler:  projectHandler,
		DocumentHandler: documentHandler,
		QueryHandler:    queryHandler,
		HealthHandler:   healthHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if otelShutdown != nil {
			_ = otelShutdown(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
