// @title           CodeCritic Backend API
// @version         1.0.0
// @description     Backend API for AI evaluation of coding-task submissions. Handles task CRUD, LLM evaluation with model fallback, and premium report unlocking via Razorpay.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a Supabase JWT.

package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"codecritic-backend/internal/config"
	"codecritic-backend/internal/database"
	"codecritic-backend/internal/handlers"
	"codecritic-backend/internal/logger"
	"codecritic-backend/internal/middleware"
	"codecritic-backend/internal/openrouter"
	"codecritic-backend/internal/razorpay"
	"codecritic-backend/internal/services"
	"codecritic-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// External gateway clients.
	openRouterClient := openrouter.NewClient(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey)
	caller := openrouter.NewCaller(openRouterClient, cfg.EvaluationModels,
		cfg.PreferredModelFamilies, cfg.EvaluationMaxTokens, zlog)
	razorpayClient := razorpay.NewClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)

	// Supabase platform clients.
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		zlog.Fatal("failed to initialize supabase client", "error", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		zlog.Fatal("failed to initialize storage client", "error", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	if cfg.DatabaseURL == "" {
		zlog.Fatal("DATABASE_URL is required; set it to the Supabase PostgreSQL connection string")
	}

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to initialize database client", "error", err)
	}
	defer dbClient.Close()

	migrator, err := database.NewMigrator(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize migrator", "error", err)
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		zlog.Fatal("migration failed", "error", err)
	}
	migrator.Close()

	// Optional Redis, enables the evaluation rate limiter.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	// Services.
	evaluationService := services.NewEvaluationService(caller, dbClient, realtimeClient,
		zlog, cfg.CodeCharLimit, cfg.EvaluationTimeout)
	paymentService := services.NewPaymentService(razorpayClient, dbClient, realtimeClient, zlog)

	// Handlers.
	tasksHandler := handlers.NewTasksHandler(dbClient, cfg.MaxCodeChars)
	evaluateHandler := handlers.NewEvaluateHandler(dbClient, evaluationService)
	statusHandler := handlers.NewStatusHandler(dbClient)
	profilesHandler := handlers.NewProfilesHandler(dbClient, storageClient)
	paymentsHandler := handlers.NewPaymentsHandler(paymentService, razorpayClient)
	webhookHandler := handlers.NewWebhookHandler(cfg, paymentService, zlog)

	// Router.
	router := gin.Default()
	router.Use(middleware.CORS(cfg.BaseURL))

	router.GET("/health", handlers.NewHealthHandler(dbClient))

	// Webhook (no auth, HMAC signature verified in the handler).
	router.POST("/api/v1/webhooks/razorpay", webhookHandler.HandleWebhook)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/tasks", tasksHandler.CreateTask)
	api.GET("/tasks", tasksHandler.ListTasks)
	api.GET("/tasks/:task_id", tasksHandler.GetTask)
	api.DELETE("/tasks/:task_id", tasksHandler.DeleteTask)

	api.POST("/tasks/:task_id/evaluate",
		middleware.RateLimit(redisClient, cfg.EvaluateRateLimit, cfg.EvaluateRateWindow),
		evaluateHandler.Evaluate)
	api.GET("/tasks/:task_id/status", statusHandler.GetStatus)

	api.GET("/profile", profilesHandler.GetProfile)
	api.PUT("/profile", profilesHandler.UpdateProfile)
	api.POST("/profile/avatar", profilesHandler.UploadAvatar)

	api.POST("/payments/order", paymentsHandler.CreateOrder)
	api.POST("/payments/verify", paymentsHandler.VerifyPayment)

	zlog.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		zlog.Fatal("server exited", "error", err)
	}
}
