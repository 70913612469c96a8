// Package metrics 基于Prometheus的指标收集
//
// 指标分三组：
//   - HTTP：请求总数、耗时、处理中的请求数（由中间件记录）
//   - 账本：批量入库、订单受理/拒绝、操作耗时（由application层记录）
//   - 基础设施：熔断器状态、事件发布结果
//
// 命名规范：
//   - Counter以_total结尾
//   - Histogram以单位结尾（_seconds）
//   - 标签只使用有限取值（method、op、reason），不使用item_id这类高基数字段
//
// 使用示例：
//
//	metrics.InitMetrics()
//	router.GET("/metrics", gin.WrapH(metrics.Handler()))
//
//	start := time.Now()
//	defer metrics.ObserveSince("bulk_upsert", start)
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockroom"

var (
	// once 防止重复注册（重复注册会panic）
	once sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板，如/api/v1/items/:id）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 账本指标

	// LedgerOperationDuration 账本操作耗时
	// 标签：op（bulk_upsert/set_stock/place_order...）
	LedgerOperationDuration *prometheus.HistogramVec

	// ItemsUpsertedTotal 成功入库的库存变更条数
	ItemsUpsertedTotal prometheus.Counter

	// BatchesRejectedTotal 整批回滚的批量入库次数
	BatchesRejectedTotal prometheus.Counter

	// OrdersPlacedTotal 受理的订单数
	OrdersPlacedTotal prometheus.Counter

	// OrdersRejectedTotal 拒绝的订单数
	// 标签：reason（invalid_quantity/item_not_found/insufficient_stock/duplicate/store_error）
	OrdersRejectedTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数
	// 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息队列指标

	// MessagesPublishedTotal 事件发布总数
	// 标签：routing_key、result（success/failure）
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 注册所有指标到默认Registry
// 可重复调用，只有第一次生效
func InitMetrics() {
	once.Do(register)
}

func register() {
	// HTTP请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP请求耗时（秒）",
			// 1ms ~ 10s
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_progress",
			Help:      "正在处理的HTTP请求数",
		},
	)

	// 账本指标
	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_operation_duration_seconds",
			Help:      "账本操作耗时（秒）",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)

	ItemsUpsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_upserted_total",
			Help:      "成功入库的库存变更条数",
		},
	)

	BatchesRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upsert_batches_rejected_total",
			Help:      "整批回滚的批量入库次数",
		},
	)

	OrdersPlacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "受理的订单数",
		},
	)

	OrdersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "拒绝的订单数",
		},
		[]string{"reason"},
	)

	// 熔断器指标
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_requests_total",
			Help:      "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	// 消息队列指标
	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "事件发布总数",
		},
		[]string{"routing_key", "result"},
	)
}

// Handler /metrics端点
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSince 记录账本操作耗时
func ObserveSince(op string, start time.Time) {
	LedgerOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RejectOrder 记录一次订单拒绝
func RejectOrder(reason string) {
	OrdersRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordPublish 记录一次事件发布结果
func RecordPublish(routingKey string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	MessagesPublishedTotal.WithLabelValues(routingKey, result).Inc()
}
