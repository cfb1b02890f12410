package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"PracticeLog/db"
)

// 连接检查用的用户 id，不会匹配任何真实数据
const checkUserID = "00000000-0000-0000-0000-000000000000"

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "存储连接测试",
	Long:  `打开配置的存储后端并执行一次只读查询，确认连接和表结构可用`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("存储驱动: %s\n", cfg.Store.Driver)

		stores, closeStore, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("无法连接存储: %w", err)
		}
		defer closeStore()

		store, err := stores.Open(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := store.Songs().ListSongs(cmd.Context(), checkUserID); err != nil {
			return fmt.Errorf("查询歌曲失败: %w", err)
		}
		fmt.Println("存储连接正常")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
