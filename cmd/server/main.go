package main

import (
	"log"
	"log/slog"
	"os"

	_ "todo/docs"
	"todo/internal/config"
	"todo/internal/server"
)

// @title           Todo API
// @version         1.0
// @description     Personal task tracking with per-user token authentication.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.

// @schemes http
func main() {
	cfg := config.Load()

	level := slog.LevelDebug
	if cfg.GinMode == "release" {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
