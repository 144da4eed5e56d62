package uia

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/zoeyai/elementmap/internal/logger"
	"github.com/zoeyai/elementmap/pkg/element"
)

// DefaultMaxDepth 默认遍历深度
const DefaultMaxDepth = 15

// Options 检测选项
type Options struct {
	// MaxDepth 最大遍历深度，窗口自身为第 0 层
	MaxDepth int
	// Screens 各显示器范围，节点与所有显示器都不相交才算屏幕外；
	// 为空时只丢弃完全位于负坐标区域的节点
	Screens []element.BoundingRect
}

// Option 配置函数
type Option func(*Options)

// WithMaxDepth 设置最大遍历深度
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		if depth > 0 {
			o.MaxDepth = depth
		}
	}
}

// WithScreenBounds 设置显示器范围，多显示器时逐个传入，空矩形忽略
func WithScreenBounds(rects ...element.BoundingRect) Option {
	return func(o *Options) {
		o.Screens = o.Screens[:0]
		for _, r := range rects {
			if !r.IsEmpty() {
				o.Screens = append(o.Screens, r)
			}
		}
	}
}

// Detector 无障碍树检测器，持有一个 Backend，不支持并发调用
type Detector struct {
	backend Backend
	opts    Options
}

// NewDetector 创建检测器
func NewDetector(backend Backend, opts ...Option) *Detector {
	o := Options{MaxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return &Detector{backend: backend, opts: o}
}

// Close 释放后端资源
func (d *Detector) Close() error {
	if d.backend == nil {
		return nil
	}
	return d.backend.Close()
}

// Windows 列出可见顶层窗口，并补充进程名
func (d *Detector) Windows(ctx context.Context) ([]Window, error) {
	windows, err := d.backend.Windows(ctx)
	if err != nil {
		return nil, fmt.Errorf("枚举窗口失败: %w", err)
	}
	for i := range windows {
		if windows[i].ProcessName == "" && windows[i].PID > 0 {
			windows[i].ProcessName = processName(windows[i].PID)
		}
	}
	return windows, nil
}

// FindWindow 按标题（不区分大小写的子串）查找第一个匹配的窗口
func (d *Detector) FindWindow(ctx context.Context, title string) (Window, error) {
	windows, err := d.Windows(ctx)
	if err != nil {
		return Window{}, err
	}
	needle := strings.ToLower(title)
	for _, w := range windows {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			return w, nil
		}
	}
	return Window{}, fmt.Errorf("%w: 标题包含 %q", ErrWindowNotFound, title)
}

// Detect 遍历窗口的无障碍树，失败时记录日志并返回已收集的元素
func (d *Detector) Detect(ctx context.Context, handle int) []element.DetectedElement {
	start := time.Now()

	root, err := d.backend.Root(ctx, handle, d.opts.MaxDepth)
	if err != nil {
		logger.LogEvent("UIA", false, time.Since(start), fmt.Sprintf("读取窗口 %d 失败: %v", handle, err))
		return nil
	}

	w := &walker{opts: d.opts}
	w.descend(root, 0)

	detail := fmt.Sprintf("窗口 %d: %d 个元素, 访问 %d 个节点", handle, len(w.out), w.visited)
	if w.failed > 0 {
		detail += fmt.Sprintf(", %d 个节点读取失败", w.failed)
	}
	logger.LogEvent("UIA", true, time.Since(start), detail)
	return w.out
}

// ==================== 内部函数 ====================

// walker 单次遍历的状态
type walker struct {
	opts    Options
	out     []element.DetectedElement
	visited int
	failed  int
}

// descend 遍历 node 的子节点，子节点深度为 depth+1
func (w *walker) descend(node Node, depth int) {
	if depth >= w.opts.MaxDepth {
		return
	}
	children, err := safeChildren(node)
	if err != nil {
		w.failed++
		logger.Debug("读取子节点失败 (深度 %d): %v", depth, err)
		return
	}
	for _, child := range children {
		w.visit(child, depth+1)
	}
}

// visit 处理单个节点
func (w *walker) visit(node Node, depth int) {
	if node == nil {
		return
	}
	w.visited++

	props, err := safeProperties(node)
	if err != nil {
		w.failed++
		logger.Debug("读取节点属性失败 (深度 %d): %v", depth, err)
		w.descend(node, depth)
		return
	}

	// 无边界的容器：不输出，但继续遍历
	if props.Bounds.IsEmpty() {
		w.descend(node, depth)
		return
	}

	// 屏幕外的节点连同子树一起丢弃
	if props.IsOffscreen || w.offscreen(props.Bounds) {
		return
	}

	if shouldEmit(props) {
		w.out = append(w.out, toElement(props))
	}
	w.descend(node, depth)
}

// offscreen 判断边界是否完全位于所有显示器之外
func (w *walker) offscreen(r element.BoundingRect) bool {
	if len(w.opts.Screens) == 0 {
		return r.Right() <= 0 || r.Bottom() <= 0
	}
	for _, s := range w.opts.Screens {
		if !r.Intersect(s).IsEmpty() {
			return false
		}
	}
	return true
}

// safeProperties 读取属性，节点内部 panic 视为读取失败
func safeProperties(node Node) (p Properties, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("读取属性 panic: %v", r)
		}
	}()
	return node.Properties()
}

// safeChildren 读取子节点，节点内部 panic 视为读取失败
func safeChildren(node Node) (children []Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("读取子节点 panic: %v", r)
		}
	}()
	return node.Children()
}

// processName 通过 PID 获取进程名称
func processName(pid int) string {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return ""
	}
	name, err := p.Name()
	if err != nil {
		return ""
	}
	if strings.HasSuffix(strings.ToLower(name), ".exe") {
		name = name[:len(name)-4]
	}
	return name
}
