package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matprat/matprat/pkg/config"
	"github.com/matprat/matprat/pkg/handler"
	"github.com/matprat/matprat/pkg/service"
	"github.com/matprat/matprat/pkg/utils"
)

type Server struct {
	ginEngine *gin.Engine
	logger    *slog.Logger
	cfg       *config.AppConfig
	port      int
}

func NewServer(cfg *config.AppConfig, sessions *service.SessionService, chat *service.ChatService,
	nutrition *service.NutritionService, mealPlan *service.MealPlanService) *Server {
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())

	// CORS middleware: allow common localhost dev origins only.
	ginEngine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// If there's no Origin header, it's not a browser CORS request.
		if origin != "" {
			allowed := strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0.1") ||
				strings.HasPrefix(origin, "https://localhost") ||
				strings.HasPrefix(origin, "https://127.0.0.1")

			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
			} else {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	server := &Server{
		ginEngine: ginEngine,
		logger:    utils.GetLogger(),
		cfg:       cfg,
	}

	server.setupRoutes(sessions, chat, nutrition, mealPlan)

	return server
}

func (s *Server) setupRoutes(sessions *service.SessionService, chat *service.ChatService,
	nutrition *service.NutritionService, mealPlan *service.MealPlanService) {
	apiGroup := s.ginEngine.Group("/api/v1")

	handler.NewSessionHandler(sessions).RegisterRoutes(apiGroup)
	handler.NewChatHandler(chat).RegisterRoutes(apiGroup)
	handler.NewNutritionHandler(nutrition).RegisterRoutes(apiGroup)
	handler.NewMealPlanHandler(sessions, mealPlan).RegisterRoutes(apiGroup)

	s.ginEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Start binds the listener and serves until ctx is cancelled. Binding
// failures are returned immediately; a cancelled context shuts the server
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host(), s.cfg.Port())
	srv := &http.Server{Addr: addr, Handler: s.ginEngine}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	s.logger.Info("Listening", "addr", addr)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err = <-errChan
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
