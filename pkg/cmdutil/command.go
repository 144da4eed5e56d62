// Package cmdutil 提供子进程相关的辅助函数
package cmdutil

import (
	"context"
	"os/exec"
)

// Command 创建绑定上下文的命令，并在 Windows 上隐藏控制台窗口
func Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	HideWindow(cmd)
	return cmd
}
