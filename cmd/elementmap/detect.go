package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/zoeyai/elementmap/pkg/pipeline"
	"github.com/zoeyai/elementmap/pkg/screen"
)

// detectOptions detect 子命令参数
type detectOptions struct {
	window     string
	handle     int
	screenshot string
	capture    bool
	annotate   string
	format     string
	maxDepth   int
}

func newDetectCmd(root *rootOptions) *cobra.Command {
	opts := &detectOptions{}
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "检测窗口中的元素",
		Example: `  elementmap detect --window "记事本" --capture --annotate out.png
  elementmap detect --handle 132456 --screenshot shot.png --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.window, "window", "w", "", "窗口标题（子串，不区分大小写）")
	f.IntVar(&opts.handle, "handle", 0, "窗口句柄，优先于 --window")
	f.StringVarP(&opts.screenshot, "screenshot", "s", "", "截图文件")
	f.BoolVar(&opts.capture, "capture", false, "未提供截图时自动截取窗口")
	f.StringVarP(&opts.annotate, "annotate", "a", "", "标注图输出路径 (PNG)")
	f.StringVarP(&opts.format, "format", "f", formatText, "输出格式 text/json/yaml")
	f.IntVar(&opts.maxDepth, "max-depth", 0, "无障碍树最大遍历深度，默认取配置")
	return cmd
}

func runDetect(cmd *cobra.Command, root *rootOptions, opts *detectOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	if opts.window == "" && opts.handle == 0 && opts.screenshot == "" {
		return fmt.Errorf("至少需要 --window、--handle 或 --screenshot 之一")
	}

	if opts.capture && opts.screenshot == "" {
		if err := screen.CheckPermission(); err != nil {
			screen.OpenPermissionSettings()
			return err
		}
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if opts.maxDepth > 0 {
		cfg.Detection.MaxDepth = opts.maxDepth
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.NewFromConfig(cfg)
	defer p.Close()

	result, err := p.DetectFile(ctx, pipeline.Request{
		WindowTitle:    opts.window,
		WindowHandle:   opts.handle,
		ScreenshotPath: opts.screenshot,
		CaptureScreen:  opts.capture,
		AnnotatePath:   opts.annotate,
	})
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), result, opts.format)
}
