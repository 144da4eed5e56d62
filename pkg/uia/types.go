// Package uia 遍历目标窗口的无障碍树（第一层检测）
//
// 平台相关部分抽象为 Backend/Node 接口：Windows 上通过常驻的 pywinauto
// 子进程读取 UI Automation 树，其他平台只提供窗口列表。
package uia

import (
	"context"
	"errors"

	"github.com/zoeyai/elementmap/pkg/element"
)

var (
	// ErrWindowNotFound 未找到匹配的窗口
	ErrWindowNotFound = errors.New("未找到窗口")
	// ErrUnsupported 当前平台不支持读取无障碍树
	ErrUnsupported = errors.New("当前平台不支持 UI Automation")
)

// Window 顶层窗口信息
type Window struct {
	Handle      int                  `json:"handle" yaml:"handle"`
	Title       string               `json:"title" yaml:"title"`
	PID         int                  `json:"pid" yaml:"pid"`
	ProcessName string               `json:"process_name,omitempty" yaml:"process_name,omitempty"`
	Bounds      element.BoundingRect `json:"bounds" yaml:"bounds"`
}

// ToggleState 切换模式状态
type ToggleState int

const (
	ToggleNone ToggleState = iota
	ToggleOff
	ToggleOn
	ToggleIndeterminate
)

// ExpandState 展开/折叠模式状态
type ExpandState int

const (
	ExpandNone ExpandState = iota
	ExpandCollapsed
	ExpandExpanded
	ExpandPartial
	ExpandLeaf
)

// Properties 单个节点的属性
type Properties struct {
	Name             string
	AutomationID     string
	ClassName        string
	ControlType      string
	Bounds           element.BoundingRect
	IsOffscreen      bool
	IsEnabled        bool
	HasKeyboardFocus bool
	Toggle           ToggleState
	Selected         bool
	Expand           ExpandState
}

// Node 无障碍树节点
type Node interface {
	Properties() (Properties, error)
	Children() ([]Node, error)
}

// Backend 平台后端，由 Detector 独占，不支持并发调用
type Backend interface {
	// Windows 枚举可见的顶层窗口
	Windows(ctx context.Context) ([]Window, error)
	// Root 返回窗口根节点，maxDepth 为需要读取的最大深度
	Root(ctx context.Context, handle int, maxDepth int) (Node, error)
	Close() error
}
