package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/mission-control/configs"
	"github.com/maheshrc27/mission-control/internal/api/handlers"
	"github.com/maheshrc27/mission-control/internal/api/middleware"
	"github.com/maheshrc27/mission-control/internal/events"
	job "github.com/maheshrc27/mission-control/internal/jobs"
	"github.com/maheshrc27/mission-control/internal/queue"
	"github.com/maheshrc27/mission-control/internal/repository"
	"github.com/maheshrc27/mission-control/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	switch len(cfg.SecretKey) {
	case 16, 24, 32:
	default:
		log.Fatalf("SECRET_KEY must be 16, 24 or 32 bytes, got %d", len(cfg.SecretKey))
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}
	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	sinkCtx, stopSinks := context.WithCancel(context.Background())
	broker := events.NewBroker(64)
	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		broker.Attach(sinkCtx, events.NewKafkaSink(brokers, cfg.Kafka.Topic), nil)
		slog.Info("forwarding events to kafka", "topic", cfg.Kafka.Topic)
	}
	if cfg.SlackWebhook != "" {
		broker.Attach(sinkCtx, events.NewSlackSink(cfg.SlackWebhook), events.FailuresOnly)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout: 2 * time.Minute,
		BodyLimit:   20 * 1024 * 1024, // 20 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewLinkedInPostRepository(db)
	attemptRepo := repository.NewPublishAttemptRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	cronRepo := repository.NewCronJobRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	questRepo := repository.NewQuestRepository(db)
	improvementRepo := repository.NewImprovementRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	r2Service := service.NewR2Service(*cfg)
	gatewayService := service.NewGatewayService(*cfg, nil)
	linkedinService := service.NewLinkedInService(*cfg, credentialRepo, broker, nil)
	publisherService := service.NewPublisherService(*cfg, postRepo, attemptRepo, credentialRepo, broker, nil)
	postService := service.NewPostService(postRepo, attemptRepo, r2Service, broker)
	cronService := service.NewCronService(cronRepo, gatewayService, broker)
	agentService := service.NewAgentService(agentRepo, broker)
	taskService := service.NewTaskService(taskRepo, broker)
	questService := service.NewQuestService(questRepo, broker)
	improvementService := service.NewImprovementService(improvementRepo, broker)
	usageService := service.NewUsageService(usageRepo, broker)
	workspaceService := service.NewWorkspaceService(cfg.WorkspaceRoot)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	linkedin := handlers.NewLinkedInAuthHandler(*cfg, linkedinService)
	app.Get("/auth/linkedin", linkedin.Connect)
	app.Get("/auth/linkedin/callback", linkedin.Callback)

	post := handlers.NewPostHandler(postService, publisherService)
	cronJobs := handlers.NewCronHandler(cronService)
	agents := handlers.NewAgentHandler(agentService, gatewayService)
	work := handlers.NewWorkItemHandler(taskService, questService, improvementService)
	usage := handlers.NewUsageHandler(usageService, gatewayService)
	workspace := handlers.NewWorkspaceHandler(workspaceService)
	streamCtx, stopStreams := context.WithCancel(context.Background())
	stream := handlers.NewEventsHandler(streamCtx, broker)

	api := app.Group("/api")
	api.Use(authMiddleware.DashboardAuth())

	api.Get("/events", stream.Stream)

	api.Get("/linkedin/status", linkedin.Status)
	api.Delete("/linkedin/credential", linkedin.Disconnect)

	api.Get("/linkedin/posts", post.ListPosts)
	api.Get("/linkedin/posts/:id", post.GetPost)
	api.Patch("/linkedin/posts/:id", post.UpdatePost)
	api.Delete("/linkedin/posts/:id", post.RemovePost)
	api.Post("/linkedin/posts/:id/transition", post.TransitionPost)
	api.Post("/linkedin/posts/:id/media", post.AttachMedia)
	api.Post("/linkedin/posts/:id/publish", post.PublishNow)
	api.Get("/linkedin/posts/:id/attempts", post.Attempts)

	api.Get("/cron", cronJobs.List)
	api.Post("/cron/action", cronJobs.Action)

	api.Get("/agents", agents.ListAgents)
	api.Get("/agents/:id", agents.GetAgent)
	api.Post("/sessions/:key/messages", agents.SendMessage)

	api.Get("/tasks", work.ListTasks)
	api.Post("/tasks", work.CreateTask)
	api.Patch("/tasks/:id/status", work.UpdateTaskStatus)
	api.Get("/quests", work.ListQuests)
	api.Post("/quests", work.CreateQuest)
	api.Patch("/quests/:id/status", work.UpdateQuestStatus)
	api.Get("/improvements", work.ListImprovements)
	api.Post("/improvements", work.CreateImprovement)
	api.Patch("/improvements/:id/status", work.UpdateImprovementStatus)

	api.Get("/usage/summary", usage.Summary)
	api.Get("/usage/sessions", usage.Sessions)

	api.Get("/workspace/tree", workspace.Tree)
	api.Get("/workspace/file", workspace.File)

	hooks := app.Group("/hooks")
	hooks.Use(authMiddleware.GatewayAuth())
	hooks.Post("/cron/sync", cronJobs.Sync)
	hooks.Post("/agents/heartbeat", agents.Heartbeat)
	hooks.Post("/usage", usage.Ingest)
	hooks.Post("/linkedin/posts", post.CreatePost)
	hooks.Post("/linkedin/publish-due", post.PublishDue)

	// cron jobs
	c := cron.New()
	var refreshJob *job.CredentialRefreshJob
	if cfg.LinkedIn.RefreshEnabled {
		refreshJob = job.NewCredentialRefreshJob(linkedinService)
	}
	err = scheduleJobs(c, cfg.LinkedIn.PublishSpec, func() {
		if err := queue.EnqueuePublishDue(client, time.Minute); err != nil {
			slog.Info(err.Error())
		}
	}, refreshJob)
	if err != nil {
		log.Fatalf("Could not schedule jobs: %v", err)
	}
	c.Start()

	//queue
	worker := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 1,
	})
	go func() {
		mux := asynq.NewServeMux()
		queue.NewQueue(publisherService).Register(mux)

		log.Println("Starting the Asynq server...")
		if err := worker.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db, stopStreams, func() {
		c.Stop()
		worker.Shutdown()
		stopSinks()
		broker.Wait()
	})
}

// scheduleJobs registers the publish trigger (skipped when publishSpec is empty) and,
// when refresh is non-nil, the credential refresh job.
func scheduleJobs(c *cron.Cron, publishSpec string, publishDue func(), refresh *job.CredentialRefreshJob) error {
	if publishSpec != "" {
		if err := c.AddFunc(publishSpec, publishDue); err != nil {
			return fmt.Errorf("invalid LINKEDIN_PUBLISH_SPEC %q: %w", publishSpec, err)
		}
	}
	if refresh != nil {
		if err := c.AddFunc(fmt.Sprintf("@every %s", job.RefreshInterval), refresh.RefreshTokens); err != nil {
			return fmt.Errorf("schedule credential refresh: %w", err)
		}
	}
	return nil
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, stopStreams, stopBackground func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	// open event streams never go idle on their own
	stopStreams()
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}
	stopBackground()

	closeDB(db)
	log.Println("Server shutdown complete.")
}
