// Command seed provisions a demo user with a handful of tasks for local
// development. Safe to run repeatedly: the user is looked up by email and
// tasks are only inserted when missing.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskforge/internal/config"
	"taskforge/internal/db"
	"taskforge/internal/model"
	"taskforge/internal/repository"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "password123"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("database init", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		logger.Fatal("auto-migrate", zap.Error(err))
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	user, err := userRepo.FindByEmail(ctx, demoEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(demoPassword), 10)
		if hashErr != nil {
			logger.Fatal("hash password", zap.Error(hashErr))
		}
		user = &model.User{
			ID:           uuid.New(),
			Email:        demoEmail,
			PasswordHash: string(hash),
		}
		if err := userRepo.Create(ctx, user); err != nil {
			logger.Fatal("create demo user", zap.Error(err))
		}
		logger.Info("created demo user", zap.String("email", demoEmail))
	} else if err != nil {
		logger.Fatal("lookup demo user", zap.Error(err))
	}

	tomorrow := time.Now().Add(24 * time.Hour)
	fixtures := []model.Task{
		{Title: "Buy groceries", Priority: model.PriorityMedium},
		{Title: "Prepare quarterly report", Priority: model.PriorityHigh, DueDate: &tomorrow},
		{Title: "Water the plants", Priority: model.PriorityLow, Completed: true},
	}

	_, total, err := taskRepo.List(ctx, user.ID, repository.TaskFilters{}, repository.TaskSort{}, repository.TaskPage{})
	if err != nil {
		logger.Fatal("list demo tasks", zap.Error(err))
	}
	if total > 0 {
		logger.Info("demo tasks already present", zap.Int64("count", total))
		return
	}

	for i := range fixtures {
		fixtures[i].UserID = user.ID
		if err := taskRepo.Create(ctx, &fixtures[i]); err != nil {
			logger.Fatal("create demo task", zap.String("title", fixtures[i].Title), zap.Error(err))
		}
	}
	logger.Info("seeded demo tasks", zap.Int("count", len(fixtures)))
}
