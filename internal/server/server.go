package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo/internal/auth"
	"todo/internal/cache"
	"todo/internal/config"
	"todo/internal/database"
	"todo/internal/handler"
	"todo/internal/middleware"
	"todo/internal/repository"
	"todo/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config
}

func Init(cfg *config.Config) (*Server, error) {
	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.GinMode)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("❌ %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("❌ %w", err)
	}

	var tokenCache *cache.TokenCache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		tokenCache = cache.NewTokenCache(redisClient, cache.DefaultPrefix, cfg.TokenCacheTTL)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := tokenCache.Ping(ctx); err != nil {
			log.Printf("⚠️  Redis at %s not reachable, token cache misses until it is: %v", cfg.RedisAddr, err)
		} else {
			log.Println("✅ Connected to Redis")
		}
		cancel()
	}

	return &Server{
		Engine: NewEngine(db, cfg, tokenCache),
		DB:     db,
		Redis:  redisClient,
		Config: cfg,
	}, nil
}

// NewEngine wires repositories, services and handlers onto a gin engine.
// tokenCache may be nil.
func NewEngine(db *gorm.DB, cfg *config.Config, tokenCache *cache.TokenCache) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), middleware.RecoveryWithLog(), cors.New(corsConfig(cfg)))

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// a nil *TokenCache must not reach the store as a non-nil interface
	var userCache auth.UserCache
	if tokenCache != nil {
		userCache = tokenCache
	}
	credentials := auth.NewCredentialStore(
		userRepo,
		tokenRepo,
		userCache,
		auth.NewPasswordHasher(cfg.BcryptCost),
		auth.NewTokenCodec(cfg.TokenSecret),
	)
	tasks := service.NewTaskService(taskRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(credentials)
	taskHandler := handler.NewTaskHandler(tasks)

	required := map[string]handler.Pinger{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	optional := map[string]handler.Pinger{}
	if tokenCache != nil {
		optional["cache"] = tokenCache.Ping
	}
	healthHandler := handler.NewHealthHandler(required, optional)

	requireAuth := middleware.AuthMiddleware(credentials)

	// Public routes
	r.GET("/health", healthHandler.Check)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authRoutes := r.Group("/auth")
	if cfg.AuthRateLimit > 0 {
		authRoutes.Use(middleware.RateLimiter(rate.Limit(cfg.AuthRateLimit), cfg.AuthRateBurst, 10*time.Minute))
	}
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", requireAuth, authHandler.Logout)
		authRoutes.GET("/user", requireAuth, authHandler.Me)
	}

	// Protected routes - require authentication
	taskRoutes := r.Group("/tasks")
	taskRoutes.Use(requireAuth)
	{
		taskRoutes.GET("", taskHandler.List)
		taskRoutes.POST("", taskHandler.Create)
		taskRoutes.GET("/:id", taskHandler.GetByID)
		taskRoutes.PATCH("/:id", taskHandler.Update)
		taskRoutes.PUT("/:id", taskHandler.Update)
		taskRoutes.PATCH("/:id/status", taskHandler.UpdateStatus)
		taskRoutes.DELETE("/:id", taskHandler.Delete)
	}

	return r
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range cfg.CORSAllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = cfg.CORSAllowedOrigins
	return c
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	s.Close()
	log.Println("✅ Server exited properly")
}

// Close releases the database and Redis connections.
func (s *Server) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis client: %v", err)
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("⚠️  Failed to close database: %v", err)
		}
	}
}
