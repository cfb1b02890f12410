// Package db opens the configured store backend and runs its migrations.
package db

import (
	"context"
	"fmt"

	"PracticeLog/config"
	"PracticeLog/logger"
	"PracticeLog/repository"
	"PracticeLog/repository/memory"
	mysqlrepo "PracticeLog/repository/mysql"
	"PracticeLog/repository/postgres"
	"PracticeLog/repository/postgrest"
)

// Open 按 STORE_DRIVER 建立存储，返回 Factory 和释放连接的 close 函数
func Open(ctx context.Context, cfg *config.Config) (repository.Factory, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgREST:
		client, err := postgrest.NewClient(postgrest.Config{
			URL:        cfg.Supabase.URL,
			ServiceKey: cfg.Supabase.ServiceKey,
			Timeout:    cfg.Store.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("[DB] using PostgREST store", logger.String("url", cfg.Supabase.URL))
		return postgrest.NewFactory(client), func() {}, nil

	case config.DriverPostgres:
		pool, err := OpenPgxPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewFactory(pool), pool.Close, nil

	case config.DriverMySQL:
		gdb, err := OpenGorm(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := CloseGorm(gdb); err != nil {
				logger.Warn("[DB] close MySQL failed", logger.ErrorField(err))
			}
		}
		return mysqlrepo.NewFactory(gdb), closeFn, nil

	case config.DriverMemory:
		logger.Warn("[DB] using in-memory store, data is lost on restart")
		return memory.New().Factory(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Migrate 建表。postgrest 的表由 Supabase 管理，memory 无需迁移
func Migrate(ctx context.Context, cfg *config.Config) error {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		return MigratePostgres(ctx, cfg.Database.URL)
	case config.DriverMySQL:
		gdb, err := OpenGorm(cfg)
		if err != nil {
			return err
		}
		defer CloseGorm(gdb)
		return AutoMigrate(gdb)
	case config.DriverPostgREST, config.DriverMemory:
		logger.Info("[DB] nothing to migrate", logger.String("driver", cfg.Store.Driver))
		return nil
	}
	return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
