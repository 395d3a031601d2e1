package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"pulse/internal/comments"
	"pulse/internal/config"
	"pulse/internal/database"
	"pulse/internal/follow"
	"pulse/internal/likes"
	"pulse/internal/posts"
	"pulse/internal/session"
	"pulse/internal/storage"
	"pulse/internal/users"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	port int

	db           database.Service
	storage      storage.Service
	sessions     session.Manager
	sessionStore session.Store

	postsHandler    *posts.Handler
	commentsHandler *comments.Handler
	likesHandler    *likes.Handler
	followHandler   *follow.Handler
	usersHandler    *users.Handler
	storageHandler  *storage.Handler
}

// Config holds server configuration
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LoadConfigFromEnv loads server configuration from environment variables
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(config.GetEnvOrDefault("PORT", "8080"))

	return &Config{
		Port:         port,
		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
	}
}

// NewServer wires the application and returns a configured HTTP server
func NewServer() *http.Server {
	cfg := LoadConfigFromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := database.New()
	slog.Info("Database service initialized")

	storageService, err := storage.New(ctx)
	if err != nil {
		// the app keeps working without file uploads
		slog.Warn("Storage service unavailable", "error", err)
	} else {
		slog.Info("Storage service initialized")
	}

	redisAddr := config.GetEnvOrDefault("REDIS_ADDR", "localhost:6379")
	redisPassword := config.GetEnvOrDefault("REDIS_PASSWORD", "")
	store := session.NewRedisStore(redisAddr, redisPassword, 0)
	sessionMgr := session.NewManager(store)
	slog.Info("Session store initialized", "redis_addr", redisAddr)

	app := &Server{
		port:         cfg.Port,
		db:           db,
		storage:      storageService,
		sessions:     sessionMgr,
		sessionStore: store,

		postsHandler:    posts.NewHandler(posts.NewService(posts.NewRepository(db))),
		commentsHandler: comments.NewHandler(comments.NewService(db)),
		likesHandler:    likes.NewHandler(likes.NewService(db)),
		followHandler:   follow.NewHandler(follow.NewService(db)),
		usersHandler:    users.NewHandler(users.NewService(db)),
	}
	if storageService != nil {
		app.storageHandler = storage.NewHandler(storageService)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.RegisterRoutes(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	slog.Info("HTTP server configured", "port", cfg.Port)
	return server
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
