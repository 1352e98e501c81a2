package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"
	"github.com/mbeoliero/kit/log"
	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/gateway"
	"github.com/parley-chat/parley/internal/handler"
	"github.com/parley-chat/parley/internal/repository"
	"github.com/parley-chat/parley/internal/router"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/internal/storage"
	"github.com/parley-chat/parley/pkg/constant"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx := context.TODO()

	// Load .env for local development, ignore when absent
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}

	log.CtxInfo(ctx, "config loaded: mode=%s", cfg.Server.Mode)

	constant.InitRedisKeyPrefix(cfg.Redis.KeyPrefix)

	repos, err := repository.NewRepositories(cfg)
	if err != nil {
		log.CtxError(ctx, "failed to initialize repositories: %v", err)
		panic(err)
	}
	defer repos.Close()

	if err := repos.CheckConnection(ctx); err != nil {
		log.CtxError(ctx, "database connection check failed: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "database connection established")

	store, err := storage.NewGCSStore(ctx, &cfg.Storage)
	if err != nil {
		log.CtxError(ctx, "failed to initialize attachment store: %v", err)
		panic(err)
	}
	defer store.Close()

	// Initialize services
	authService := service.NewAuthService(repos.User, cfg)
	userService := service.NewUserService(repos.User, store)
	groupService := service.NewGroupService(repos.Group, repos.User, store)
	msgService := service.NewMessageService(repos, store)

	// Initialize the WebSocket hub and hand it to the message service
	// as its broadcaster
	hub := gateway.NewHub(cfg, repos.Redis, msgService)
	msgService.SetBroadcaster(hub)

	hub.Run(ctx)
	log.CtxInfo(ctx, "gateway hub started")

	// Prometheus listener on its own port
	if cfg.Metrics.Enabled {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			log.CtxInfo(ctx, "metrics listening on %s", addr)
			if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
				log.CtxError(ctx, "metrics listener failed: %v", err)
			}
		}()
	}

	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		Group:   handler.NewGroupHandler(groupService),
		Message: handler.NewMessageHandler(msgService),
	}

	h := server.Default(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.HTTPPort)),
	)

	router.SetupRouter(h, handlers, hub)

	log.CtxInfo(ctx, "server starting on port %d", cfg.Server.HTTPPort)

	go func() {
		h.Spin()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down server...")

	if err := h.Shutdown(ctx); err != nil {
		log.CtxError(ctx, "server shutdown error: %v", err)
	}

	log.CtxInfo(ctx, "server stopped")
}
