package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"murmur.chat.web/internal/config"
	"murmur.chat.web/internal/handler"
	"murmur.chat.web/internal/jwt"
	"murmur.chat.web/internal/nats"
	"murmur.chat.web/internal/repository"
	"murmur.chat.web/internal/router"
	"murmur.chat.web/internal/service"
	"murmur.chat.web/pkg/snowflake"
)

func main() {
	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// 加载配置
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	// 连接 NATS，失败不阻塞启动，消息事件降级为仅存储
	var publisher service.EventPublisher
	natsClient, err := nats.NewClient(cfg.NATS)
	if err != nil {
		logger.Warn("Failed to connect to NATS, events disabled", "error", err)
	} else {
		defer natsClient.Close()
		publisher = nats.NewMessagePublisher(natsClient.Conn())
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	}

	// 初始化 JWT 服务
	jwtService := jwt.NewService(
		cfg.JWT.SecretKey,
		cfg.JWT.AccessExpire,
		cfg.JWT.RefreshExpire,
	)

	// 初始化雪花ID生成器
	sfNode, err := snowflake.NewNode(1)
	if err != nil {
		logger.Error("Failed to create snowflake node", "error", err)
		os.Exit(1)
	}

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	joinRequestRepo := repository.NewJoinRequestRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	tokenRepo := repository.NewTokenRepository(redisClient)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, tokenRepo, jwtService, sfNode)
	userService := service.NewUserService(userRepo)
	groupService := service.NewGroupService(groupRepo, sfNode)
	joinRequestService := service.NewJoinRequestService(joinRequestRepo, groupRepo, sfNode)
	messageService := service.NewMessageService(messageRepo, groupRepo, publisher, sfNode)
	conversationService := service.NewConversationService(messageRepo, groupRepo, userRepo)
	adminService := service.NewAdminService(userRepo, groupRepo, messageRepo, tokenRepo, announcementRepo, publisher, sfNode)

	// 初始化 Handler 与路由
	r := router.SetupRouter(cfg, jwtService, tokenRepo, &router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService),
		Group:        handler.NewGroupHandler(groupService, joinRequestService),
		Message:      handler.NewMessageHandler(messageService),
		Conversation: handler.NewConversationHandler(conversationService),
		Admin:        handler.NewAdminHandler(adminService),
	})

	// 启动服务器
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	go func() {
		logger.Info("Web server started", "addr", addr, "mode", cfg.App.Mode)
		if err := r.Run(addr); err != nil {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()
	logger.Info("Server stopped")
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
