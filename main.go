package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/theneural/backend/api"
	"github.com/theneural/backend/blob"
	"github.com/theneural/backend/config"
	"github.com/theneural/backend/database"
	"github.com/theneural/backend/events"
	"github.com/theneural/backend/services"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()

	connStr := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		config.GetString(c, "DB_HOST", "localhost"),
		config.GetString(c, "DB_USER", "postgres"),
		config.GetString(c, "DB_PASSWORD", ""),
		config.GetString(c, "DB_NAME", "theneural"),
		config.GetString(c, "DB_PORT", "5432"),
		config.GetString(c, "DB_SSLMODE", "disable"),
	)

	gormLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      gormLogger,
	})
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		fmt.Printf("Error enabling uuid-ossp extension: %v\n", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		fmt.Printf("Error migrating schema: %v\n", err)
		os.Exit(1)
	}

	currentDB := database.New(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blobs, err := blob.NewGCS(ctx, config.GetString(c, "GCS_BUCKET", "theneural-models"))
	if err != nil {
		fmt.Printf("Error initializing blob storage: %v\n", err)
		os.Exit(1)
	}
	defer blobs.Close()

	gcpProject := config.GetString(c, "PUBSUB_PROJECT_ID", "theneural")
	trainingTopic := config.GetString(c, "TRAINING_TOPIC", "training-jobs")
	trainingSub := config.GetString(c, "TRAINING_SUBSCRIPTION", "training-jobs-worker")

	bus, err := events.NewPubSubPublisher(ctx, gcpProject, trainingTopic)
	if err != nil {
		fmt.Printf("Error initializing event publisher: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	limits := services.Limits{
		MaxLabels:           config.GetInt(c, "MAX_LABELS", services.DefaultLimits.MaxLabels),
		MaxExamplesPerLabel: config.GetInt(c, "MAX_EXAMPLES_PER_LABEL", services.DefaultLimits.MaxExamplesPerLabel),
		MaxUploadBytes:      config.GetInt64(c, "MAX_UPLOAD_BYTES", services.DefaultLimits.MaxUploadBytes),
	}

	projects := services.NewProjectService(currentDB.ProjectRepo(), blobs, bus, limits, services.DefaultTrainingConfig)

	sessionTTL := time.Duration(config.GetInt(c, "SESSION_TTL_HOURS", 24)) * time.Hour
	sessionSecret := []byte(config.GetString(c, "SESSION_SECRET", ""))
	if len(sessionSecret) == 0 {
		fmt.Println("SESSION_SECRET is not set. Exiting...")
		os.Exit(1)
	}
	sessions := services.NewSessionService(currentDB.SessionRepo(), sessionSecret, sessionTTL)

	subClient, err := pubsub.NewClient(ctx, gcpProject)
	if err != nil {
		fmt.Printf("Error initializing pubsub subscriber: %v\n", err)
		os.Exit(1)
	}
	defer subClient.Close()

	worker := services.NewTrainingWorker(subClient, trainingSub, projects)
	go func() {
		if err := worker.Run(ctx); err != nil {
			log.Error().Err(err).Msg("training worker stopped")
		}
	}()

	go cleanupSessions(ctx, sessions)

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(projects, sessions)
	if err != nil {
		fmt.Printf("Error initializing server: %v\n", err)
		os.Exit(1)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	cancel()
	server.ShutdownGracefully(30 * time.Second)
}

// cleanupSessions periodically deletes expired guest sessions.
func cleanupSessions(ctx context.Context, sessions *services.SessionService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sessions.CleanupExpired(ctx); err != nil {
				log.Error().Err(err).Msg("session cleanup failed")
			}
		}
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
