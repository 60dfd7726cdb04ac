package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/api"
	"github.com/maheshrc27/postscheduler/internal/api/handlers"
	"github.com/maheshrc27/postscheduler/internal/api/middleware"
	job "github.com/maheshrc27/postscheduler/internal/jobs"
	"github.com/maheshrc27/postscheduler/internal/queue"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/maheshrc27/postscheduler/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	dsn := cfg.PostgresURI
	if cfg.DatabaseDriver == repository.DriverSQLite && dsn == "" {
		dsn = "postscheduler.db"
	}
	db, err := repository.Open(cfg.DatabaseDriver, dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := repository.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	r2Client, err := service.NewR2Client(context.Background(), *cfg)
	if err != nil {
		log.Fatalf("Failed to configure R2: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error(err.Error(), "path", c.Path())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	publishAttemptRepo := repository.NewPublishAttemptRepository(db)

	mediaService := service.NewMediaService(*cfg, r2Client)
	postService := service.NewPostService(*cfg, postRepo, publishAttemptRepo, mediaService)
	platformService := service.NewPlatformService(*cfg, socialAccountRepo)
	tokenService := service.NewTokenService(*cfg, socialAccountRepo)
	publishService := service.NewPublishService(*cfg, tokenService, publishAttemptRepo,
		service.NewTwitterPublisher(cfg.Twitter.APIURL, nil),
		service.NewLinkedInPublisher(cfg.LinkedIn.APIURL, nil),
	)

	api.Register(app, middleware.NewAuthMiddleware(*cfg), api.Handlers{
		Post:     handlers.NewPostHandler(postService),
		Media:    handlers.NewMediaHandler(mediaService),
		Platform: handlers.NewPlatformHandler(platformService),
	})

	// cron jobs
	var retry job.RetryScheduler
	if rs := queue.NewRetryScheduler(client, *cfg); rs != nil {
		retry = rs
	}

	runner := job.NewRunner(cfg.Jobs.MaxDuration, slog.Default())
	schedules := []struct {
		spec string
		job  job.Job
	}{
		{cfg.Jobs.DispatchSchedule, job.NewDispatchJob(*cfg, postRepo, publishService, retry)},
		{cfg.Jobs.RetentionSchedule, job.NewRetentionJob(*cfg, postRepo)},
		{cfg.Jobs.TokenRefreshSchedule, job.NewTokenRefreshJob(socialAccountRepo, tokenService)},
	}
	for _, s := range schedules {
		if err := runner.Schedule(s.spec, s.job); err != nil {
			log.Fatalf("Invalid schedule %q for %s: %v", s.spec, s.job.Name(), err)
		}
	}
	runner.Start()

	// queue
	worker := queue.NewWorker(postRepo, publishService)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency:    cfg.Jobs.PublishConcurrency,
		RetryDelayFunc: queue.RetryDelay,
	})

	go func() {
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishRetry, worker.HandlePublishRetryTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is listening on %s", cfg.ListenAddr)

	gracefulShutdown(app, runner, server, db)
}

func closeDB(db *sqlx.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, runner *job.Runner, server *asynq.Server, db *sqlx.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	runner.Stop()
	server.Shutdown()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
