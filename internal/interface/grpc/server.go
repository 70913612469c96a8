// Package grpc 提供gRPC健康检查服务(grpc.health.v1)
// 供负载均衡、k8s探针和grpcurl使用,业务接口仍然走HTTP
package grpc

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/xiebiao/stockroom/internal/infrastructure/config"
)

// ServiceName 健康检查中注册的服务名(空字符串表示整体状态)
const ServiceName = "stockroom.Ledger"

// checkInterval 数据库连通性检查间隔
const checkInterval = 10 * time.Second

// Pinger 存储连通性检查(*sql.DB实现)
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server gRPC健康检查服务器
type Server struct {
	srv     *grpc.Server
	health  *health.Server
	db      Pinger
	port    int
	log     *zap.Logger
	serving atomic.Bool
}

// NewServer 创建gRPC服务器并注册health、reflection服务
func NewServer(cfg *config.Config, db Pinger, log *zap.Logger) *Server {
	log = log.Named("grpc")

	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.MaxSendMsgSize(4*1024*1024),
		grpc.ChainUnaryInterceptor(unaryLogger(log)),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	// 注册反射服务(用于grpcurl调试)
	reflection.Register(srv)

	return &Server{
		srv:    srv,
		health: hs,
		db:     db,
		port:   cfg.Server.GRPCPort,
		log:    log,
	}
}

// Run 监听server.grpc_port直到ctx取消
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("监听gRPC端口失败: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve 在指定listener上提供服务,ctx取消后优雅关闭
// 关闭前先把状态切到NOT_SERVING,让探针尽早摘除实例
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Check(ctx)

	go s.watch(ctx)
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.srv.GracefulStop()
	}()

	s.log.Info("gRPC服务启动", zap.String("addr", lis.Addr().String()))
	if err := s.srv.Serve(lis); err != nil {
		return fmt.Errorf("gRPC服务异常退出: %w", err)
	}
	s.log.Info("gRPC服务已关闭")
	return nil
}

// Check 检查数据库连通性并更新健康状态
func (s *Server) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := s.db.PingContext(ctx)
	healthy := err == nil
	changed := s.serving.Swap(healthy) != healthy

	status := healthpb.HealthCheckResponse_SERVING
	switch {
	case !healthy:
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.log.Warn("数据库不可用,gRPC健康状态NOT_SERVING", zap.Error(err))
	case changed:
		s.log.Info("gRPC健康状态SERVING")
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// unaryLogger 记录每次调用的方法、耗时和错误
func unaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			log.Warn("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("grpc call", fields...)
		}
		return resp, err
	}
}
