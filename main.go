package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matprat/matprat/pkg/config"
	"github.com/matprat/matprat/pkg/db"
	"github.com/matprat/matprat/pkg/service"
	"github.com/matprat/matprat/pkg/utils"
)

func main() {
	// Initialize logging system
	utils.InitLogger()
	logger := utils.GetLogger()

	if _, err := config.EnsureDefaultConfig(); err != nil {
		logger.Warn("Failed to write default config", "error", err)
	}
	cfg, configFile, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Info("Loaded config", "path", configFile, "provider", cfg.Provider())

	dataDir, err := cfg.DataDir()
	if err != nil {
		logger.Error("Failed to resolve data dir", "error", err)
		os.Exit(1)
	}

	gdb, err := db.Open(dataDir)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionService := service.NewSessionService(db.NewSessionStore(gdb))
	nutritionService := service.NewNutritionService(dataDir)
	mealPlanService := service.NewMealPlanService()

	modelService := service.NewModelService()
	chatModel, err := modelService.CreateChatModel(ctx, cfg)
	if err != nil {
		// Sessions and exports still work without a model; only new turns fail.
		logger.Warn("Chat model unavailable", "provider", cfg.Provider(), "error", err)
	}
	chatService := service.NewChatService(sessionService, nutritionService, chatModel)

	server := NewServer(cfg, sessionService, chatService, nutritionService, mealPlanService)
	if err := server.Start(ctx); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
