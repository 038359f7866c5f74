// @title NoteQuiz API
// @version 1.0
// @description AI-backed quiz generation and grading from study notes.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"notequiz/internal/adapter"
	"notequiz/internal/adapter/llmrouter"
	"notequiz/internal/cache"
	"notequiz/internal/config"
	"notequiz/internal/database"
	"notequiz/internal/handler"
	"notequiz/internal/logger"
	"notequiz/internal/middleware"
	"notequiz/internal/repository"
	"notequiz/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// LLM client. Model selection happens per call inside the router.
	llm, err := openai.New(openai.WithToken(cfg.AI.APIKey), openai.WithModel(cfg.AI.DefaultModel))
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	modelRouter := llmrouter.NewRouter(llm, cfg.AI)
	appLogger.Info("Model router initialized",
		zap.String("default_model", cfg.AI.DefaultModel),
		zap.String("fallback_model", cfg.AI.FallbackModel))

	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	appLogger.Info("Successfully connected to Redis")

	quizRepository := repository.NewSQLXQuizRepository(db)
	attemptRepository := repository.NewSQLXAttemptRepository(db)
	userRepository := repository.NewSQLXUserRepository(db)
	classRepository := repository.NewSQLXClassRepository(db)
	analyticsRepository := repository.NewSQLXAnalyticsRepository(db)

	analyticsRecorder := service.NewAsyncAnalyticsRecorder(analyticsRepository)
	generationService := service.NewGenerationService(
		quizRepository, userRepository, classRepository,
		modelRouter, analyticsRecorder, cacheAdapter, cfg)
	gradingService := service.NewGradingService(
		quizRepository, attemptRepository, analyticsRecorder, cacheAdapter, cfg)

	quizHandler := handler.NewQuizHandler(generationService, gradingService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization," + handler.DebugTimingsHeader,
		MaxAge:       300,
	}))

	apiGroup := app.Group("/api")
	protected := middleware.Protected(cfg.Auth.JWTSecret)

	apiGroup.Post("/quizzes", protected, quizHandler.GenerateQuiz)
	apiGroup.Get("/quizzes/:id", protected, quizHandler.GetQuiz)
	apiGroup.Post("/attempts", protected, quizHandler.StartAttempt)
	apiGroup.Post("/attempts/grade", protected, quizHandler.Grade)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
