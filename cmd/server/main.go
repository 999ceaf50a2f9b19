package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"actionlink-platform/internal/actionlink"
	"actionlink-platform/internal/config"
	"actionlink-platform/internal/handler"
	"actionlink-platform/internal/identity"
	"actionlink-platform/internal/lock"
	"actionlink-platform/internal/middleware"
	"actionlink-platform/internal/repository"
	"actionlink-platform/internal/shortcode"
	"actionlink-platform/internal/sweeper"
	"actionlink-platform/pkg/database"
	auth "actionlink-platform/pkg/jwt"
	"actionlink-platform/pkg/logger"
	"actionlink-platform/pkg/redis"

	"github.com/gin-gonic/gin"
	redisClient "github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer func() {
		if err := logger.Logger.Sync(); err != nil {
			fmt.Println("日志同步失败:", err)
		}
	}()
	sugaredLogger := logger.Sugar

	db, err := database.Open(cfg.Database)
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	sugaredLogger.Infof("✅ 数据库连接成功 (%s)", cfg.Database.Driver)

	var rdb *redisClient.Client
	if cfg.Cache.Host != "" {
		rdb, err = redis.NewRedisClient(&redis.Options{
			Host: cfg.Cache.Host, Port: cfg.Cache.Port, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
		})
		if err != nil {
			sugaredLogger.Warnf("缓存连接失败，将以无缓存模式运行: %v", err)
			rdb = nil
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
				}
			}()
			sugaredLogger.Info("✅ 缓存连接成功")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users := repository.NewUserRepository(db)
	if _, err := users.EnsureUser(ctx, "system", identity.SystemEmail, "system"); err != nil {
		sugaredLogger.Fatalf("创建系统用户失败: %v", err)
	}

	// 初始化并启动短码生成器
	shortcodeGenerator := shortcode.NewGenerator(db, sugaredLogger)
	shortcodeGenerator.Start()
	defer shortcodeGenerator.Stop()
	sugaredLogger.Info("✅ 短码生成器已启动")

	// redis.Cmdable 为接口，未连接时必须传入 nil 接口而不是 nil 指针
	var cache redisClient.Cmdable
	if rdb != nil {
		cache = rdb
	}

	links := repository.NewActionLinkRepository(db)
	provider := shortcode.NewProvider(db, shortcodeGenerator, cache, cfg.Links.ShortBaseURL, sugaredLogger)
	linkService := actionlink.NewService(
		links,
		repository.NewUsageLogRepository(db),
		users,
		provider,
		repository.NewTransactor(db),
		sugaredLogger,
	)

	if cfg.Scheduler.Enabled {
		var locker lock.Locker
		if rdb != nil {
			locker = lock.NewRedisLocker(rdb, cfg.Scheduler.LockAcquireTimeout, sugaredLogger)
		} else {
			sugaredLogger.Warn("未配置 Redis，过期清理使用进程内锁，仅适用于单实例部署")
			locker = lock.NewLocalLocker()
		}
		expiration := sweeper.NewExpirationSweeper(links, users, locker, sweeper.Config{
			LockKey:           cfg.Scheduler.LockKey,
			BatchSize:         cfg.Scheduler.BatchSize,
			MaxRunInterval:    cfg.Scheduler.MaxRunInterval,
			LockBuffer:        cfg.Scheduler.LockBuffer,
			ExpirableStatuses: cfg.Scheduler.ExpirableStatuses,
		}, sugaredLogger)
		scheduler := sweeper.NewScheduler(expiration, cfg.Scheduler.Interval, sugaredLogger)
		scheduler.Start(ctx)
		defer scheduler.Stop()
		sugaredLogger.Info("✅ 过期清理任务已启动")
	}

	tokenManager := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.ExpirationHours)
	sugaredLogger.Info("✅ 认证管理器初始化成功")

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.GinZapLogger(logger.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.RateLimit(&cfg.RateLimit))

	handler.Routes{
		Links:        handler.NewActionLinkHandler(linkService, sugaredLogger),
		ShortLinks:   handler.NewShortLinkHandler(db, cache, sugaredLogger),
		Auth:         handler.NewAuthHandler(users),
		RequireAuth:  middleware.RequireAuth(tokenManager),
		OptionalAuth: middleware.OptionalAuth(tokenManager),
	}.Register(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		sugaredLogger.Infof("🚀 服务启动成功, 访问 http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugaredLogger.Fatalf("服务启动失败: %v", err)
		}
	}()

	<-ctx.Done()
	sugaredLogger.Info("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugaredLogger.Errorf("服务关闭失败: %v", err)
	}
}
