package database

import (
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// MySQL错误码
// 参考: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
var mysqlConstraintErrors = map[uint16]struct{}{
	1048: {}, // Column cannot be null
	1062: {}, // Duplicate entry
	1264: {}, // Out of range value
	1364: {}, // Field doesn't have a default value
	1366: {}, // Incorrect value
	1406: {}, // Data too long
	1690: {}, // Value is out of range
	3819: {}, // Check constraint is violated
	4025: {}, // Constraint failed (MariaDB)
}

// Postgres SQLSTATE
var pgConstraintErrors = map[string]struct{}{
	pgerrcode.NotNullViolation:                       {},
	pgerrcode.UniqueViolation:                        {},
	pgerrcode.CheckViolation:                         {},
	pgerrcode.StringDataRightTruncationDataException: {},
	pgerrcode.NumericValueOutOfRange:                 {},
	pgerrcode.InvalidTextRepresentation:              {},
}

// isConstraintViolation 判断是否为存储层拒绝写入(约束/数据不合法)
// 这类错误由输入数据导致,重试无意义;其余错误视为存储不可用
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	// GORM开启TranslateError时的统一错误
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		_, ok := mysqlConstraintErrors[myErr.Number]
		return ok
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := pgConstraintErrors[pgErr.Code]
		return ok
	}

	return false
}
