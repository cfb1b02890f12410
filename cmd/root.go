package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"PracticeLog/config"
	"PracticeLog/logger"
	"PracticeLog/server"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "practicelog",
	Short:         "PracticeLog is a music practice tracking API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return logger.Init(logger.Config{
			Level:      cfg.Log.Level,
			OutputPath: cfg.Log.File,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		})
	},
	// 不带子命令时直接启动服务
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file (default $CONFIG_FILE)")
}

// Execute executes the root command. os.Exit skips deferred calls, so the logger is flushed first.
func Execute() {
	code := run(context.Background(), os.Args[1:])
	logger.Sync()
	if code != 0 {
		os.Exit(code)
	}
}

// run 执行命令并返回进程退出码
func run(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("[CLI] command failed", logger.ErrorField(err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
