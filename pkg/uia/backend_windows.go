//go:build windows

package uia

import (
	"context"
	"fmt"

	"github.com/zoeyai/elementmap/pkg/python"
)

// windowsBackend 原生 API 枚举窗口，pywinauto 子进程读取树
type windowsBackend struct {
	bridge *Bridge
}

// NewBackend 创建当前平台的后端
func NewBackend() Backend {
	info := python.Detect()
	return &windowsBackend{bridge: NewBridge(info.Path)}
}

func (b *windowsBackend) Windows(_ context.Context) ([]Window, error) {
	return enumWindows(), nil
}

func (b *windowsBackend) Root(ctx context.Context, handle int, maxDepth int) (Node, error) {
	root, err := b.bridge.Tree(ctx, handle, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("读取无障碍树失败: %w", err)
	}
	return root, nil
}

func (b *windowsBackend) Close() error {
	return b.bridge.Close()
}
