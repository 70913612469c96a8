// Package tracing 基于OpenTelemetry的链路追踪
//
// 每个账本操作（批量入库、下单等）都在一个Span中执行：
//
//	Trace: POST /api/v1/items
//	└─ Span: stock-ledger/BulkUpsert  (batch.size=3)
//	   └─ gorm SQL（事务内的每条INSERT ... ON CONFLICT）
//
// 未启用追踪时使用OpenTelemetry全局的no-op Provider，StartSpan几乎没有开销。
//
// 使用示例：
//
//	shutdown, err := tracing.InitTracer(tracing.Options{
//	    Enabled:     true,
//	    ServiceName: "stockroom",
//	    Endpoint:    "localhost:4317",
//	    SampleRatio: 0.1,
//	})
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
//
//	func (l *Ledger) Delete(ctx context.Context, id uint) (err error) {
//	    ctx, span := tracing.StartSpan(ctx, "stock-ledger", "Delete")
//	    defer func() { tracing.EndSpan(span, err) }()
//	    ...
//	}
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/xiebiao/stockroom/pkg/errors"
)

// ShutdownFunc 关闭Tracer Provider（刷新未发送的Span）
type ShutdownFunc func(context.Context) error

// Options 追踪配置
type Options struct {
	Enabled     bool
	ServiceName string
	Endpoint    string  // OTLP gRPC端点，如 localhost:4317
	SampleRatio float64 // 0~1，1表示全部采样
}

// InitTracer 初始化全局Tracer Provider
//
// 1. OTLP gRPC Exporter（Jaeger 1.35+ / OTel Collector）
// 2. Resource: service.name
// 3. 按TraceID比例采样，尊重上游的采样决定（ParentBased）
// 4. BatchSpanProcessor批量发送
// 5. W3C Trace Context + Baggage传播
//
// Enabled=false时不做任何事，返回空的shutdown
func InitTracer(opts Options) (ShutdownFunc, error) {
	if !opts.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 1. 创建OTLP gRPC Exporter
	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(opts.Endpoint),
		otlptracegrpc.WithInsecure(), // 禁用TLS（生产环境应启用）
	)
	if err != nil {
		return nil, fmt.Errorf("创建OTLP exporter失败: %w", err)
	}

	// 2. 创建Resource
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(opts.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("创建资源属性失败: %w", err)
	}

	// 3. 创建Tracer Provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	// 4. 设置全局Provider和传播器
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return func(ctx context.Context) error {
		// 设置5秒超时，防止shutdown阻塞过久
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// StartSpan 创建一个新的Span
// 如果ctx包含父Span，新Span会自动成为子Span
func StartSpan(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName)
}

// EndSpan 记录错误并结束Span
// 只有服务端错误（5xxxx或非AppError）把Span标记为Error，
// 业务拒绝（库存不足、不存在等）只记录为事件
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if appErr := apperrors.GetAppError(err); apperrors.IsServerError(appErr.Code) {
			span.SetStatus(codes.Error, appErr.Message)
		}
	}
	span.End()
}

// ExtractTraceID 从Context提取TraceID（用于关联日志）
func ExtractTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// ExtractSpanID 从Context提取SpanID
func ExtractSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
