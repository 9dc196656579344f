package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sudooom.tablegame/internal/auth"
	"sudooom.tablegame/internal/config"
	"sudooom.tablegame/internal/game"
	"sudooom.tablegame/internal/health"
	"sudooom.tablegame/internal/nats"
	tableRedis "sudooom.tablegame/internal/redis"
	"sudooom.tablegame/internal/server"
	"sudooom.tablegame/internal/simple"
	"sudooom.tablegame/internal/task"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 加载配置
	cfg, err := config.Load(config.Path("configs/config.yaml"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.Level(),
	}))
	slog.SetDefault(logger)

	var (
		observers []game.Observer
		natsConn  health.Connection
		redisPing health.Pinger
		opts      = server.Options{
			Mode:            cfg.Server.Mode,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			ResponseTimeout: cfg.Game.ResponseTimeout,
		}
	)

	// 初始化 NATS 客户端
	var natsClient *nats.Client
	if cfg.NATS.Enabled {
		natsClient, err = nats.NewClient(cfg.NATS)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)

		natsConn = natsClient
		observers = append(observers, nats.NewEventPublisher(natsClient.Conn(), cfg.NATS.SubjectPrefix))
	}

	// 初始化 Redis 客户端
	if cfg.Redis.Enabled {
		redisClient := tableRedis.NewClient(cfg.Redis)
		defer redisClient.Close()
		logger.Info("Redis snapshot store enabled", "addr", cfg.Redis.Addr())

		store := tableRedis.NewSnapshotStore(redisClient, cfg.Redis.SnapshotTTL)
		redisPing = redisClient
		opts.Store = store
		observers = append(observers, store)
	}

	if cfg.JWT.Enabled {
		opts.Auth = auth.NewService(cfg.JWT.Secret)
	}

	// 规则与发牌
	table, err := simple.LoadTable(cfg.Game.CardTable)
	if err != nil {
		logger.Error("Failed to load card table", "path", cfg.Game.CardTable, "error", err)
		os.Exit(1)
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rules, err := simple.NewRules(simple.Settings{
		Capacity:      cfg.Game.Capacity,
		HandSize:      cfg.Game.HandSize,
		InitialHealth: cfg.Game.InitialHealth,
		DevilReward:   cfg.Game.DevilReward,
	}, table, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	if err != nil {
		logger.Error("Failed to build rules", "error", err)
		os.Exit(1)
	}

	// 结束对局的延迟清理
	scheduler := task.NewScheduler(2, 100*time.Millisecond)
	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	manager := game.NewManager(game.Rules[*simple.Player, simple.Card](rules), scheduler, cfg.Game.FinishedTTL, observers...)

	var control *nats.ControlSubscriber
	if natsClient != nil {
		control = nats.NewControlSubscriber(natsClient.Conn(), manager, cfg.NATS.SubjectPrefix)
		if err := control.Start(); err != nil {
			logger.Error("Failed to subscribe control subject", "error", err)
			os.Exit(1)
		}
	}

	opts.Health = health.NewChecker(natsConn, redisPing, manager)

	// 创建并启动服务器
	srv := server.New(cfg.Server.Addr, manager, opts)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Table game server started",
		"addr", cfg.Server.Addr,
		"game", rules.Name(),
		"capacity", rules.Capacity(),
		"seed", seed)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if control != nil {
		control.Stop()
	}
	if err := manager.Shutdown(ctx); err != nil {
		logger.Warn("Session shutdown incomplete", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Server shutdown incomplete", "error", err)
	}
	logger.Info("Server stopped")
}
