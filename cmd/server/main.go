package main

import (
	"net/http"
	"time"

	_ "taskforge/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"taskforge/internal/auth"
	"taskforge/internal/config"
	"taskforge/internal/db"
	"taskforge/internal/handler"
	"taskforge/internal/model"
	"taskforge/internal/repository"
	"taskforge/internal/router"
	"taskforge/internal/service"
)

// @title Taskforge API
// @version 1.0
// @description Multi-tenant todo service with JWT authentication, direct and agent-style task routes.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("database init", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Task{},
	); err != nil {
		logger.Fatal("auto-migrate", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService)
	taskService := service.NewTaskService(taskRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskService)
	agentHandler := handler.NewAgentHandler(taskService)
	chatHandler := handler.NewChatHandler(taskService)

	// Register routes
	router.Register(
		e,
		cfg,
		jwtService,
		authHandler,
		taskHandler,
		agentHandler,
		chatHandler,
	)

	addr := ":" + cfg.ServerPort
	logger.Info("starting server", zap.String("addr", addr))
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server start", zap.Error(err))
	}
}
