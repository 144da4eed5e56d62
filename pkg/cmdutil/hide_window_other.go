//go:build !windows

package cmdutil

import "os/exec"

// HideWindow 非 Windows 平台没有控制台窗口，不做处理
func HideWindow(_ *exec.Cmd) {}
