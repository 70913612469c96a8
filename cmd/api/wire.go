//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改Provider后运行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"database/sql"

	"github.com/google/wire"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/stockroom/internal/application/order"
	"github.com/xiebiao/stockroom/internal/application/stock"
	"github.com/xiebiao/stockroom/internal/domain/item"
	"github.com/xiebiao/stockroom/internal/infrastructure/config"
	"github.com/xiebiao/stockroom/internal/infrastructure/mq"
	"github.com/xiebiao/stockroom/internal/infrastructure/persistence/database"
	"github.com/xiebiao/stockroom/internal/infrastructure/persistence/redis"
	grpcserver "github.com/xiebiao/stockroom/internal/interface/grpc"
	"github.com/xiebiao/stockroom/internal/interface/http/handler"
	"github.com/xiebiao/stockroom/internal/interface/http/router"
)

// infrastructureSet 基础设施层依赖
// 包含：数据库连接、Redis连接、消息队列
var infrastructureSet = wire.NewSet(
	database.NewDB,
	provideSQLDB,
	redis.NewClient,
	redis.ProvideIdempotencyStore,
	mq.ProvideEventPublisher,
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	database.NewItemRepository,
	database.NewOrderRepository,
	database.NewTxManager,
	wire.Bind(new(stock.TxManager), new(*database.TxManager)),
)

// applicationSet 应用层依赖(两个账本)
var applicationSet = wire.NewSet(
	stock.NewLedger,
	apporder.NewLedger,
	wire.Bind(new(apporder.ItemReader), new(item.Repository)),
)

// interfaceSet 接口层依赖
var interfaceSet = wire.NewSet(
	handler.NewItemHandler,
	handler.NewOrderHandler,
	handler.NewHealthHandler,
	wire.Bind(new(handler.StockLedger), new(*stock.Ledger)),
	wire.Bind(new(handler.OrderLedger), new(*apporder.Ledger)),
	wire.Bind(new(handler.Pinger), new(*sql.DB)),
	router.NewRouter,
	grpcserver.NewServer,
	wire.Bind(new(grpcserver.Pinger), new(*sql.DB)),
)

// InitializeApp 初始化整个应用
// 配置和Logger由main创建后传入(启动阶段的错误也需要写日志)
// 返回的cleanup按创建的逆序关闭消息队列、Redis、数据库
func InitializeApp(cfg *config.Config, log *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		applicationSet,
		interfaceSet,
		newApp,
	)
	return nil, nil, nil
}
