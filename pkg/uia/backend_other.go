//go:build !windows

package uia

import (
	"context"
	"fmt"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/elementmap/pkg/element"
)

// otherBackend 非 Windows 平台：只能通过 robotgo 列出窗口，句柄即 PID
type otherBackend struct{}

// NewBackend 创建当前平台的后端
func NewBackend() Backend {
	return otherBackend{}
}

func (otherBackend) Windows(_ context.Context) ([]Window, error) {
	pids, err := robotgo.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	var windows []Window
	for _, pid := range pids {
		title := robotgo.GetTitle(pid)
		if title == "" {
			continue
		}
		x, y, w, h := robotgo.GetBounds(pid)
		windows = append(windows, Window{
			Handle: pid,
			Title:  title,
			PID:    pid,
			Bounds: element.NewRect(x, y, w, h),
		})
	}
	return windows, nil
}

func (otherBackend) Root(_ context.Context, _ int, _ int) (Node, error) {
	return nil, ErrUnsupported
}

func (otherBackend) Close() error {
	return nil
}
