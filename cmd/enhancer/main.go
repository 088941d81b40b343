package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"enhancer-backend/internal/cache"
	"enhancer-backend/internal/client"
	"enhancer-backend/internal/config"
	"enhancer-backend/internal/controller"
	"enhancer-backend/internal/editor"
	"enhancer-backend/internal/events"
	"enhancer-backend/internal/handler"
	"enhancer-backend/internal/history"
	"enhancer-backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	store := newHistoryStore(cfg)
	if err := store.Init(); err != nil {
		log.Fatalf("Failed to init history store: %v", err)
	}
	defer store.Close()

	renderer := history.NewRenderer(store)

	registry := editor.NewRegistry()
	registry.AttachElement(cfg.Editor.ID, editor.NewDocument())

	adapter, err := editor.New(editor.Kind(cfg.Editor.Type), cfg.Editor.ID, registry, editor.Options{
		PollInterval: cfg.Editor.ReadyPoll,
		ReadyWithin:  cfg.Editor.ReadyWithin,
	})
	if err != nil {
		log.Fatalf("Failed to create editor adapter: %v", err)
	}

	bus := events.NewBus()
	transport := client.New(cfg.Proxy)
	ctrl := controller.New(transport, renderer, adapter,
		cache.New(cfg.Cache.MaxItems, cfg.Cache.TTL), bus, cfg.Editor.Context)

	enhanceHandler := handler.NewEnhanceHandler(ctrl, renderer, bus)

	router := setupRouter(cfg, enhanceHandler)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}

func newHistoryStore(cfg *config.Config) history.Store {
	if cfg.History.Type == "disk" {
		return history.NewDiskStore(cfg.History.DataDir)
	}
	return history.NewMemoryStore()
}

func setupRouter(cfg *config.Config, h *handler.EnhanceHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/actions/run", h.RunAction)
		api.POST("/chat", h.Chat)
		api.POST("/conversation/new", h.NewConversation)

		api.GET("/responses", h.ListResponses)
		api.DELETE("/responses", h.ClearResponses)
		api.POST("/responses/:response_id/use", h.Use)
		api.POST("/responses/:response_id/retry", h.Retry)
		api.POST("/responses/:response_id/copy", h.Copy)

		api.GET("/events", h.Events)
	}

	return router
}
