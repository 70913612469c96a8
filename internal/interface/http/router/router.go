package router

import (
	"fmt"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/stockroom/docs"
	"github.com/xiebiao/stockroom/internal/infrastructure/config"
	"github.com/xiebiao/stockroom/internal/interface/http/handler"
	"github.com/xiebiao/stockroom/internal/interface/http/middleware"
	"github.com/xiebiao/stockroom/pkg/metrics"
)

// NewRouter 创建Gin引擎并注册全部路由
// 中间件顺序：requestid → Logger → Recovery → CORS
func NewRouter(
	cfg *config.Config,
	log *zap.Logger,
	itemHandler *handler.ItemHandler,
	orderHandler *handler.OrderHandler,
	healthHandler *handler.HealthHandler,
) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(
		requestid.New(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.Server),
	)

	// 健康检查与监控
	r.GET("/ping", healthHandler.Ping)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Swagger文档：http://localhost:8080/swagger/index.html
	if cfg.Server.EnableSwagger {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.Server.Port)
		docs.SwaggerInfo.BasePath = "/"
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		items := v1.Group("/items")
		{
			items.GET("", itemHandler.ListItems)
			items.POST("", itemHandler.UpsertItems)
			items.GET("/:id", itemHandler.GetItem)
			items.PATCH("/:id", itemHandler.SetStock)
			items.DELETE("/:id", itemHandler.DeleteItem)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("", orderHandler.ListOrders)
			orders.POST("", middleware.IdempotencyKey(), orderHandler.PlaceOrder)
			orders.GET("/:id", orderHandler.GetOrder)
		}
	}

	return r
}
