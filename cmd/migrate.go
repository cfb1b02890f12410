package cmd

import (
	"github.com/spf13/cobra"

	"PracticeLog/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "建表",
	Long:  `postgres 执行内嵌的 goose 迁移，mysql 使用 GORM AutoMigrate；postgrest 与 memory 无需迁移`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return db.Migrate(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
