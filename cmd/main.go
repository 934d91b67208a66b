package main

import (
	"context"
	"fmt"
	"os"

	"github.com/emberchat/emberchat-backend/internal/cache"
	"github.com/emberchat/emberchat-backend/internal/data/repos"
	"github.com/emberchat/emberchat-backend/internal/db"
	"github.com/emberchat/emberchat-backend/internal/handlers"
	"github.com/emberchat/emberchat-backend/internal/middleware"
	"github.com/emberchat/emberchat-backend/internal/platform/envutil"
	"github.com/emberchat/emberchat-backend/internal/platform/gemini"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
	"github.com/emberchat/emberchat-backend/internal/server"
	"github.com/emberchat/emberchat-backend/internal/services"
	"github.com/emberchat/emberchat-backend/internal/temporalx"
	"github.com/emberchat/emberchat-backend/internal/temporalx/temporalworker"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Store
	dbService, err := db.New(log)
	if err != nil {
		log.Fatal("Store init failed", "error", err)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Fatal("Store auto migration failed", "error", err)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(gdb, log)
	roomRepo := repos.NewRoomRepo(gdb, log)
	messageRepo := repos.NewMessageRepo(gdb, log)

	// Cache
	aside := cache.NewAside(cache.NewRedis(log), log)

	// Generator
	gen, err := gemini.NewClient(log)
	if err != nil {
		log.Fatal("Could not init generator client", "error", err)
	}

	// Temporal (optional; async sends 503 without it)
	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Fatal("Could not init Temporal client", "error", err)
	}
	var queue services.ReplyEnqueuer
	if tc != nil {
		defer tc.Close()
		starter, err := temporalx.NewReplyStarter(tc, log)
		if err != nil {
			log.Fatal("Could not init reply starter", "error", err)
		}
		queue = starter
	}

	// Services
	log.Info("Setting up services...")
	window := services.NewWindowBuilder(aside, messageRepo, userRepo, log)
	chatService := services.NewChatService(aside, roomRepo, messageRepo, userRepo, window, gen, queue, log)
	roomService := services.NewRoomService(aside, roomRepo, messageRepo, userRepo, log)

	// Worker
	if tc != nil {
		runner, err := temporalworker.NewRunner(log, tc, chatService)
		if err != nil {
			log.Fatal("Could not init Temporal worker", "error", err)
		}
		if err := runner.Start(context.Background()); err != nil {
			log.Fatal("Could not start Temporal worker", "error", err)
		}
	}

	// Handlers and middleware
	log.Info("Setting up handlers...")
	roomHandler := handlers.NewRoomHandler(roomService)
	chatHandler := handlers.NewChatHandler(chatService)
	authMiddleware, err := middleware.NewAuthMiddleware(log)
	if err != nil {
		log.Fatal("Could not init auth middleware", "error", err)
	}

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		AuthMiddleware: authMiddleware,
		RoomHandler:    roomHandler,
		ChatHandler:    chatHandler,
	})

	port := envutil.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
