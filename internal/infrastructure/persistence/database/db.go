package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/stockroom/internal/infrastructure/config"
)

// NewDB 创建数据库连接（供Wire使用，返回cleanup关闭连接池）
// 设计说明：
// 1. 使用GORM v2作为数据访问层，MySQL/Postgres二选一
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. SQL日志通过zap输出，开发环境打印全部SQL
// 4. 自动迁移表结构（可通过database.auto_migrate关闭）
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	logLevel := gormlogger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info // 开发环境打印SQL
	}

	db, err := Open(cfg.Database, log, logLevel)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		log.Info("数据库连接已关闭")
	}

	return db, cleanup, nil
}

// Open 按配置打开数据库、测试连接并迁移表结构
func Open(cfg config.DatabaseConfig, log *zap.Logger, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	// 1. 选择方言
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	default:
		dialector = mysql.Open(cfg.DSN())
	}

	// 2. 连接数据库
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  NewGormLogger(log, logLevel, 200*time.Millisecond),
		NowFunc: time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 3. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// 4. 测试连接
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info("数据库连接成功",
		zap.String("driver", cfg.Driver),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.DBName),
	)

	// 5. 自动迁移表结构
	if cfg.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	return db, nil
}

// AutoMigrate 创建item、order_table表
// 注意：AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ItemModel{},
		&OrderModel{},
	)
}

// ItemModel GORM商品模型
// 设计说明:
// 1. (type, color, size)联合唯一索引uk_item_natural_key,冲突时走ON CONFLICT增量更新
// 2. CHECK约束保证库存非负
// 3. 物理删除(不使用DeletedAt),删除后同一自然键可以重新入库
type ItemModel struct {
	ID        uint      `gorm:"primaryKey"`
	Type      string    `gorm:"uniqueIndex:uk_item_natural_key;size:64;not null;comment:类型"`
	Color     string    `gorm:"uniqueIndex:uk_item_natural_key;size:64;not null;comment:颜色"`
	Size      string    `gorm:"uniqueIndex:uk_item_natural_key;size:64;not null;comment:尺码"`
	Stock     int       `gorm:"not null;default:0;check:chk_item_stock,stock >= 0;comment:库存数量"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ItemModel) TableName() string {
	return "item"
}

// OrderModel GORM订单模型
// 说明: itemId不加外键约束,商品删除后历史订单保留
type OrderModel struct {
	ID        uint      `gorm:"primaryKey"`
	ItemID    uint      `gorm:"column:itemId;index;not null;comment:商品ID"`
	Quantity  int       `gorm:"not null;check:chk_order_quantity,quantity > 0;comment:下单数量"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "order_table"
}
