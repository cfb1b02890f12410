package cmd

import (
	"github.com/spf13/cobra"

	"PracticeLog/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 HTTP 服务",
	Long:  `启动练习记录的 HTTP API 服务，存储后端由 STORE_DRIVER 决定`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
