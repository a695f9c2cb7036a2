package main

import (
	"context"

	"go.uber.org/zap"

	"taskmaster/config"
	"taskmaster/internal/db"
	"taskmaster/internal/handler"
	"taskmaster/internal/httpserver"
	"taskmaster/internal/mq"
	redisclient "taskmaster/internal/redis"
	"taskmaster/internal/repository"
	"taskmaster/internal/service/auth"
	"taskmaster/internal/service/label"
	"taskmaster/internal/service/task"
	"taskmaster/internal/session"
	"taskmaster/pkg/logger"
)

func main() {
	// Load config
	cfg := config.Load()

	logger := logger.NewLogger()
	defer logger.Sync()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.Migrate(context.Background(), dbConn, logger); err != nil {
		logger.Fatal("Schema migration failed", zap.Error(err))
	}

	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	sessionStore := session.NewStore(rdb)

	// Auth-state stream: subscribe on startup, unsubscribe on shutdown
	watcher := session.NewWatcher(rdb, logger)
	if err := watcher.Start(context.Background()); err != nil {
		logger.Fatal("Auth state watcher failed to start", zap.Error(err))
	}
	defer watcher.Stop()

	// Init RabbitMQ Publisher. The API runs without a broker; events are
	// simply not published.
	var publisher *mq.Producer
	if cfg.MQ.URL != "" {
		publisher, err = mq.NewProducer(cfg.MQ.URL)
		if err != nil {
			logger.Warn("Event publisher disabled", zap.Error(err))
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn)
	taskRepo := repository.NewTaskRepository(dbConn, logger)
	labelRepo := repository.NewLabelRepository(dbConn, logger)

	// Init Services
	authService := auth.NewService(userRepo, sessionStore, servicePublisher(publisher), cfg.JWT.Secret, logger)
	taskService := task.NewService(taskRepo, servicePublisher(publisher), logger)
	labelService := label.NewService(labelRepo, servicePublisher(publisher), logger)

	// Init Handlers
	authHandler := handler.NewAuthHandler(authService, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	labelHandler := handler.NewLabelHandler(labelService, logger)

	// Router
	router := httpserver.NewRouter(
		authHandler,
		taskHandler,
		labelHandler,
		cfg.JWT.Secret,
		sessionStore,
		dbConn,
	)

	// Start API server
	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server start failed", zap.Error(err))
	}
}

// servicePublisher keeps a nil *mq.Producer from becoming a non-nil
// interface value inside the services.
func servicePublisher(p *mq.Producer) interface {
	Publish(routingKey string, payload any) error
} {
	if p == nil {
		return nil
	}
	return p
}
