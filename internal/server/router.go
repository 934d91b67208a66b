package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emberchat/emberchat-backend/internal/handlers"
	"github.com/emberchat/emberchat-backend/internal/middleware"
	"github.com/emberchat/emberchat-backend/internal/platform/envutil"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *middleware.AuthMiddleware
	RoomHandler    *handlers.RoomHandler
	ChatHandler    *handlers.ChatHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(cfg.Log),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	api.POST("/rooms", cfg.RoomHandler.CreateRoom)
	api.GET("/rooms", cfg.RoomHandler.ListRooms)
	api.GET("/rooms/:id", cfg.RoomHandler.GetRoom)
	api.DELETE("/rooms/:id", cfg.RoomHandler.DeleteRoom)

	api.POST("/rooms/:id/messages", cfg.ChatHandler.SendMessage)
	api.POST("/rooms/:id/messages/async", cfg.ChatHandler.SendMessageAsync)
	api.GET("/rooms/:id/messages", cfg.ChatHandler.ListMessages)

	return router
}

func allowedOrigins(log *logger.Logger) []string {
	raw := envutil.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
