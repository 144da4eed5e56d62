package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoeyai/elementmap/internal/logger"
	"github.com/zoeyai/elementmap/pkg/config"
)

// rootOptions 全局参数
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "elementmap",
		Short:         "定位桌面窗口中的可交互元素",
		Long:          "遍历窗口无障碍树，结合截图 OCR 和像素分析，输出去重后带编号的元素列表和标注图。",
		SilenceUsage:  true,
		SilenceErrors: false,
		// 标准输出只留给结果，日志一律写标准错误
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Default().SetOutput(cmd.ErrOrStderr())
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "配置文件 (.json/.yaml)，默认 ~/.elementmap/config.json")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "日志级别 DEBUG/INFO/WARN/ERROR")

	cmd.AddCommand(newDetectCmd(opts), newWindowsCmd(opts), newVersionCmd())
	return cmd
}

// loadConfig 加载配置并应用日志设置
func (o *rootOptions) loadConfig() (*config.Config, error) {
	manager := config.GetDefaultManager()
	if o.configPath != "" {
		manager = config.NewManagerWithFile(o.configPath)
	}
	cfg, err := manager.Load()
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger.Default().SetLevel(logger.ParseLevel(level))
	if cfg.Log.File != "" {
		if err := logger.Default().SetFile(true, cfg.Log.File); err != nil {
			logger.Warn("打开日志文件失败: %v", err)
		}
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "elementmap v%s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  构建时间: %s\n", BuildTime)
			fmt.Fprintf(cmd.OutOrStdout(), "  Git 提交: %s\n", GitCommit)
		},
	}
}
