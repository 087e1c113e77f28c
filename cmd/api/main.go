package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/zetsuserv/support-portal/internal/api/http"
	"github.com/zetsuserv/support-portal/internal/api/http/handlers"
	"github.com/zetsuserv/support-portal/internal/auth"
	"github.com/zetsuserv/support-portal/internal/config"
	"github.com/zetsuserv/support-portal/internal/events"
	"github.com/zetsuserv/support-portal/internal/integrations"
	"github.com/zetsuserv/support-portal/internal/notify"
	"github.com/zetsuserv/support-portal/internal/observability"
	"github.com/zetsuserv/support-portal/internal/persistence"
	"github.com/zetsuserv/support-portal/internal/repository"
	"github.com/zetsuserv/support-portal/internal/service"
	"github.com/zetsuserv/support-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	otpRepo := repository.NewOTPRepository(pool)
	faqRepo := repository.NewFAQRepository(pool)
	newsletterRepo := repository.NewNewsletterRepository(pool)
	newsRepo := repository.NewNewsRepository(pool)
	pushRepo := repository.NewPushSubscriptionRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	sessionStore := auth.NewRedisSessionStore(redis.Client)
	sessionManager := auth.NewSessionManager(sessionStore, cfg.Session.Secret, cfg.Session.SessionTTL())
	sessionMiddleware := auth.NewSessionMiddleware(sessionManager, userRepo, cfg.Session.CookieName)

	mailer := notify.NewSMTPMailer(cfg.SMTP, logger)
	webhook := integrations.NewWebhookClient(cfg.Webhook, logger)
	drafts := integrations.NewDraftClient(cfg.AI, cfg.Portal, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		FAQRepo:     faqRepo,
		Dispatcher:  dispatcher,
		DraftClient: drafts,
		UploadDir:   cfg.Portal.UploadDir,
	})
	authService := service.NewAuthService(cfg.Session, service.AuthDependencies{
		UserRepo:   userRepo,
		OTPRepo:    otpRepo,
		Sessions:   sessionManager,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	newsletterService := service.NewNewsletterService(service.NewsletterDependencies{
		SubscriptionRepo: newsletterRepo,
		NewsRepo:         newsRepo,
		PushRepo:         pushRepo,
		UserRepo:         userRepo,
		Dispatcher:       dispatcher,
	})
	notificationService := service.NewNotificationService(cfg, service.NotificationDependencies{
		Dispatcher:       dispatcher,
		Mailer:           mailer,
		Webhook:          webhook,
		SubscriptionRepo: newsletterRepo,
		Logger:           logger,
	})
	worker.StartNotificationWorker(notificationService)

	otpPurge := worker.StartOTPPurge(authService, cfg.Session.OTPPurgeSpec, logger)
	defer otpPurge.Stop()

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Portal.MaxAttachmentSize) + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets:           handlers.NewTicketsHandler(ticketService, cfg.Portal.UploadDir, cfg.Portal.MaxAttachmentSize),
		Auth:              handlers.NewAuthHandler(authService, cfg.Session.CookieName, cfg.Session.CookieSecure),
		Admin:             handlers.NewAdminHandler(ticketService, newsletterService),
		Engagement:        handlers.NewEngagementHandler(newsletterService),
		SessionMiddleware: sessionMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
