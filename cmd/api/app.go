package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/xiebiao/stockroom/internal/infrastructure/config"
	grpcserver "github.com/xiebiao/stockroom/internal/interface/grpc"
)

// App 组装好的应用(HTTP + gRPC健康检查)
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	router *gin.Engine
	grpc   *grpcserver.Server
}

func newApp(cfg *config.Config, log *zap.Logger, router *gin.Engine, grpc *grpcserver.Server) *App {
	return &App{cfg: cfg, log: log, router: router, grpc: grpc}
}

// provideSQLDB 从GORM取出底层连接池,用于健康检查
func provideSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

// Run 启动HTTP和gRPC服务,ctx取消后优雅关闭
// 任一服务异常退出都会取消另一个
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("HTTP服务启动",
			zap.String("addr", srv.Addr),
			zap.String("mode", a.cfg.Server.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP服务异常退出: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.grpc.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("开始优雅关闭HTTP服务", zap.Duration("timeout", a.cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP服务关闭失败: %w", err)
		}
		return nil
	})

	return g.Wait()
}
