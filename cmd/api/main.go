package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/stockroom/internal/infrastructure/config"
	"github.com/xiebiao/stockroom/pkg/logger"
	"github.com/xiebiao/stockroom/pkg/tracing"
)

// @title           Stockroom API
// @version         1.0
// @description     库存与订单账本
// @BasePath        /
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stockroom: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	// 2. 初始化日志
	log, level, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// 配置文件修改后热更新日志级别,其余配置需要重启生效
	cfg.OnChange(func(next *config.Config) {
		if err := logger.SetLevel(level, next.Log.Level); err != nil {
			log.Warn("日志级别热更新失败", zap.Error(err))
			return
		}
		log.Info("日志级别已更新", zap.String("level", next.Log.Level))
	})

	// 3. 初始化链路追踪
	shutdownTracer, err := tracing.InitTracer(tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("初始化链路追踪失败: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Warn("关闭链路追踪失败", zap.Error(err))
		}
	}()

	// 4. 依赖注入
	app, cleanup, err := InitializeApp(cfg, log)
	if err != nil {
		log.Error("初始化应用失败", zap.Error(err))
		return err
	}
	defer cleanup()

	// 5. 运行直到收到SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Error("服务异常退出", zap.Error(err))
		return err
	}

	log.Info("服务已安全关闭")
	return nil
}
