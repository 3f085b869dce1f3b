package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/themobileprof/paintrack-be/internal/api"
	"github.com/themobileprof/paintrack-be/internal/api/middleware"
	"github.com/themobileprof/paintrack-be/internal/chat"
	"github.com/themobileprof/paintrack-be/internal/classifier"
	"github.com/themobileprof/paintrack-be/internal/conversation"
	"github.com/themobileprof/paintrack-be/internal/db"
	"github.com/themobileprof/paintrack-be/internal/memory"
	"github.com/themobileprof/paintrack-be/internal/respond"
	"github.com/themobileprof/paintrack-be/internal/store"
	"github.com/themobileprof/paintrack-be/internal/ws"
	"github.com/themobileprof/paintrack-be/pkg/deepseek"
	"github.com/themobileprof/paintrack-be/pkg/gemini"
	"github.com/themobileprof/paintrack-be/pkg/llm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Get configuration from environment
	port := getEnv("PORT", "8080")
	databaseURL := getEnv("DATABASE_URL", "")
	jwtSecret := getEnv("JWT_SECRET", "")

	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Persistence: Postgres when configured, otherwise in-memory.
	var st store.Store
	var database *db.DB
	if databaseURL != "" {
		var err error
		database, err = db.NewFromURL(databaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
		st = db.NewStore(database)
		log.Println("✅ Database connected")
	} else {
		st = store.NewMemoryStore()
		log.Println("⚠️  DATABASE_URL not set: using in-memory store, data is not persisted")
	}

	// Model backend: optional. Without one the companion runs fully
	// scripted.
	var model respond.Generator
	if client := newLLMClient(); client != nil {
		model = respond.NewModel(client)
	}

	// Conversation pipeline
	cls := classifier.NewClassifier()
	memMgr := memory.NewMemoryManager(10) // keep last 10 messages
	policy := conversation.NewPolicy(st, st, st, nil)
	scripted := respond.NewScripted(policy)

	chatEngine := chat.NewEngine(cls, memMgr, scripted, model, st)

	// Initialize handlers
	logsHandler := api.NewLogsHandler(st)
	insightsHandler := api.NewInsightsHandler(st)
	patternsHandler := api.NewPatternsHandler(st)
	profileHandler := api.NewProfileHandler(st)
	sessionsHandler := api.NewSessionsHandler(st)
	historyHandler := api.NewHistoryHandler(st)
	chatHandler := ws.NewChatHandler(chatEngine, st, jwtSecret)

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// Global rate limiting (100 req/min per IP, burst of 200)
	router.Use(middleware.PerIP(100.0/60.0, 200))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	// Auth routes need the relational user table
	if database != nil {
		authHandler := api.NewAuthHandler(database, jwtSecret)
		auth := router.Group("/api/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.JWTAuth(jwtSecret), authHandler.Me)
		}
	} else {
		log.Println("⚠️  Auth routes disabled without a database")
	}

	// Protected API (per-user rate limited)
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth(jwtSecret))
	protected.Use(middleware.PerUser(500.0/3600.0, 100)) // 500/hour per user
	{
		protected.GET("/logs", logsHandler.List)
		protected.POST("/logs", logsHandler.Create)
		protected.PATCH("/logs/:id", logsHandler.Update)
		protected.DELETE("/logs/:id", logsHandler.Delete)

		protected.GET("/insights/summary", insightsHandler.Summary)
		protected.GET("/insights/series", insightsHandler.Series)
		protected.GET("/insights/report", insightsHandler.Report)

		protected.GET("/patterns", patternsHandler.Get)
		protected.GET("/patterns/suggestions", patternsHandler.Suggestions)

		protected.GET("/profile", profileHandler.Get)
		protected.PUT("/profile", profileHandler.Update)
		protected.POST("/profile/medications", profileHandler.AddMedication)

		protected.POST("/sessions", sessionsHandler.Open)
		protected.POST("/sessions/resolve", sessionsHandler.Resolve)
		protected.GET("/sessions/current", sessionsHandler.Current)

		protected.GET("/chat/history", historyHandler.Get)
	}

	// WebSocket chat route (protected via query param/header)
	router.GET("/ws/chat", chatHandler.HandleChat)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// newLLMClient picks the model backend from LLM_PROVIDER. Returns nil
// when no provider is configured.
func newLLMClient() llm.Client {
	provider := getEnv("LLM_PROVIDER", "deepseek")
	switch provider {
	case "deepseek":
		apiKey := getEnv("DEEPSEEK_API_KEY", "")
		if apiKey == "" {
			log.Println("⚠️  DEEPSEEK_API_KEY not set: running fully scripted")
			return nil
		}
		log.Println("✅ DeepSeek model backend configured")
		return deepseek.NewHTTPClient(deepseek.Config{APIKey: apiKey})
	case "gemini":
		apiKey := getEnv("GEMINI_API_KEY", "")
		if apiKey == "" {
			log.Println("⚠️  GEMINI_API_KEY not set: running fully scripted")
			return nil
		}
		log.Println("✅ Gemini model backend configured")
		return gemini.NewHTTPClient(gemini.Config{APIKey: apiKey})
	case "none", "":
		return nil
	default:
		log.Printf("⚠️  Unknown LLM_PROVIDER %q: running fully scripted", provider)
		return nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
