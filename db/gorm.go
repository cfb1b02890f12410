package db

import (
	"fmt"
	"net"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"PracticeLog/config"
	"PracticeLog/logger"
	mysqlrepo "PracticeLog/repository/mysql"
)

// MySQLDSN 由配置拼出 DSN。
// ClientFoundRows 让 UPDATE 在值未变化时也返回匹配行数，否则会被误判为不存在。
func MySQLDSN(cfg *config.Config) string {
	dc := gomysql.NewConfig()
	dc.User = cfg.Database.User
	dc.Passwd = cfg.Database.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Database.Host, cfg.Database.Port)
	dc.DBName = cfg.Database.Name
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.ClientFoundRows = true
	dc.Timeout = cfg.Store.Timeout
	dc.Params = map[string]string{"charset": "utf8mb4"}
	return dc.FormatDSN()
}

// OpenGorm 建立 GORM 连接并配置连接池
func OpenGorm(cfg *config.Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(MySQLDSN(cfg)), &gorm.Config{
		Logger: gormlogger.New(zap.NewStdLog(logger.L()), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc:                func() time.Time { return time.Now().UTC() },
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("[DB] connected to MySQL with GORM", logger.String("addr", net.JoinHostPort(cfg.Database.Host, cfg.Database.Port)))
	return gdb, nil
}

// CloseGorm 关闭底层连接
func CloseGorm(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate 建表并创建级联外键
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(mysqlrepo.Models()...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Info("[DB] models migrated with GORM")
	return nil
}
