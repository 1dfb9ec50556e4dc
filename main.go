package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"conexioncarga/internal/config"
	"conexioncarga/internal/database"
	"conexioncarga/internal/handlers"
	"conexioncarga/internal/logging"
	"conexioncarga/internal/middleware"
	"conexioncarga/internal/repositories"
	"conexioncarga/internal/security"
	"conexioncarga/internal/services"
	"conexioncarga/pkg/mailer"
	"conexioncarga/pkg/rabbitmq"
)

// NewApp wires repositories, services and handlers into a Fiber app.
// codes and sender are chosen by the caller so tests can run without Redis or a mail provider.
func NewApp(cfg *config.Config, db *gorm.DB, codes repositories.VerificationRepository, sender mailer.Sender, log *logrus.Logger) *fiber.App {
	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	cargoRepo := repositories.NewGORMCargoRepository(db)

	// --- Services ---
	hasher := security.NewBcryptHasher()
	verificationService := services.NewVerificationService(codes, userRepo, sender, services.VerificationConfig{
		CodeLength: cfg.CodeLength,
		TTL:        cfg.CodeTTL,
		Cooldown:   cfg.ResendCooldown,
	}, services.SystemClock, log)
	userService := services.NewUserService(userRepo, hasher, verificationService, services.SystemClock, log)
	authService := services.NewAuthService(userRepo, hasher, cfg.JWTSecret, cfg.TokenTTL)
	cargoService := services.NewCargoService(cargoRepo, services.SystemClock, log)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, log)
	userHandler := handlers.NewUserHandler(userService, verificationService, log, cfg.ExposeCode)
	cargoHandler := handlers.NewCargoHandler(cargoService, services.DurationPolicy{
		Default: cfg.DefaultDurationHours,
		Min:     cfg.MinDurationHours,
		Max:     cfg.MaxDurationHours,
	}, handlers.Paging{
		DefaultLimit: cfg.PageLimitDefault,
		MaxLimit:     cfg.PageLimitMax,
	}, log)

	app := fiber.New(fiber.Config{AppName: cfg.AppName})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// --- API Routes ---
	api := app.Group("/api")
	auth := middleware.AuthRequired(authService, log)
	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api, auth)
	cargoHandler.RegisterRoutes(api, auth)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pingDatabase(c.UserContext(), db); err != nil {
			log.WithError(err).Warn("health check: database unreachable")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unhealthy",
				"database": "down",
			})
		}
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"database": "up",
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	})

	return app
}

func pingDatabase(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// verificationStore builds the repository selected by VERIFICATION_STORE.
// The returned func releases whatever connection it opened.
func verificationStore(cfg *config.Config, db *gorm.DB, log *logrus.Logger) (repositories.VerificationRepository, func(), error) {
	switch cfg.VerificationStore {
	case "memory":
		log.Warn("verification codes kept in process memory; not shared between instances")
		return repositories.NewMemoryVerificationRepository(), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return repositories.NewRedisVerificationRepository(client, cfg.AppName), func() { client.Close() }, nil
	default:
		return repositories.NewGORMVerificationRepository(db), func() {}, nil
	}
}

// mailSender builds the sender selected by MAIL_DRIVER.
func mailSender(cfg *config.Config, log *logrus.Logger) (mailer.Sender, func(), error) {
	switch cfg.MailDriver {
	case "mailgun":
		return mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailFrom), func() {}, nil
	case "queue":
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		return mailer.NewQueueSender(mqClient), func() { mqClient.Close() }, nil
	default:
		log.Warn("MAIL_DRIVER=log: verification emails are only written to the log")
		return &mailer.LogSender{Logger: log}, func() {}, nil
	}
}

func main() {
	// --- Configuration ---
	v := viper.New()
	config.SetDefaults(v)
	v.AutomaticEnv()

	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.AppName, cfg.Env)

	// --- Database ---
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	codes, closeCodes, err := verificationStore(cfg, db, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize verification store")
	}
	defer closeCodes()

	sender, closeSender, err := mailSender(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize mail sender")
	}
	defer closeSender()

	app := NewApp(cfg, db, codes, sender, log)

	// --- Start HTTP Server ---
	log.WithFields(logrus.Fields{
		"port":               cfg.Port,
		"database":           cfg.DatabaseDriver,
		"verification_store": cfg.VerificationStore,
		"mail_driver":        cfg.MailDriver,
	}).Info("starting server")

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.Port); err != nil {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-quit
	log.Info("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("error during Fiber shutdown")
	}
	log.Info("server gracefully stopped")
}
