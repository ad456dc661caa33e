package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	ServerPort      string
	GinMode         string
	ShutdownTimeout time.Duration

	TokenSecret string
	BcryptCost  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TokenCacheTTL time.Duration

	AuthRateLimit float64
	AuthRateBurst int

	CORSAllowedOrigins []string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "todo_user"),
		DBPassword: getEnv("DB_PASSWORD", "todo_pass"),
		DBName:     getEnv("DB_NAME", "todo_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "todo.db"),

		ServerPort:      getEnv("SERVER_PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),

		TokenSecret: getEnv("TOKEN_SECRET", getEnv("JWT_SECRET", "supersecretkey")),
		BcryptCost:  getEnvInt("BCRYPT_COST", 10),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		TokenCacheTTL: getEnvDuration("TOKEN_CACHE_TTL", 10*time.Minute),

		AuthRateLimit: getEnvFloat("AUTH_RATE_LIMIT", 5),
		AuthRateBurst: getEnvInt("AUTH_RATE_BURST", 10),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("⚠️  Invalid integer for %s, using %d", key, defaultVal)
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("⚠️  Invalid number for %s, using %v", key, defaultVal)
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("⚠️  Invalid duration for %s, using %s", key, defaultVal)
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	v, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(v) == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
