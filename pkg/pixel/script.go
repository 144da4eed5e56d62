// Package pixel 封装像素分析（第三层检测）
//
// 外部脚本以 `script screenshotPath` 方式调用，stdout 输出一个 JSON 对象：
//
//	{"elements": [{"bbox": [x1, y1, x2, y2], "confidence": 0.9, "type": "button"}]}
//
// bbox 为左上、右下角坐标。confidence 缺省 0.8，type 缺省 "button"。
// 脚本缺失、超时、退出码非零、输出无法解析时均返回空列表并记录警告。
package pixel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/zoeyai/elementmap/internal/logger"
	"github.com/zoeyai/elementmap/pkg/cmdutil"
	"github.com/zoeyai/elementmap/pkg/element"
	"github.com/zoeyai/elementmap/pkg/python"
)

// 默认参数
const (
	DefaultTimeout    = 30 * time.Second
	DefaultThreshold  = 0.3
	DefaultConfidence = 0.8
	DefaultType       = "button"
)

// Options 脚本检测器选项
type Options struct {
	// Timeout 单次调用超时
	Timeout time.Duration
	// ConfidenceThreshold 低于该值的结果被过滤
	ConfidenceThreshold float64
	// Python 运行 .py 脚本的解释器，为空时自动检测
	Python string
}

// Option 配置函数
type Option func(*Options)

// WithTimeout 设置超时
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

// WithThreshold 设置置信度阈值
func WithThreshold(v float64) Option {
	return func(o *Options) {
		o.ConfidenceThreshold = v
	}
}

// WithPython 指定 Python 解释器
func WithPython(path string) Option {
	return func(o *Options) {
		o.Python = path
	}
}

// ScriptDetector 通过外部脚本做像素分析，每次调用启动新进程
type ScriptDetector struct {
	script string
	opts   Options
	// python .py 脚本的解释器，其他脚本直接执行
	python string
	reason string
}

// NewScriptDetector 创建脚本检测器，找不到脚本时检测器不可用
func NewScriptDetector(script string, opts ...Option) *ScriptDetector {
	o := Options{
		Timeout:             DefaultTimeout,
		ConfidenceThreshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}

	d := &ScriptDetector{opts: o}
	path, err := locateScript(script)
	if err != nil {
		d.reason = err.Error()
		logger.Warn("像素分析不可用: %v", err)
		return d
	}

	if strings.EqualFold(filepath.Ext(path), ".py") {
		py := o.Python
		if py == "" {
			info := python.Detect()
			if !info.Available {
				d.reason = "未找到 Python 3"
				logger.Warn("像素分析不可用: %s", d.reason)
				return d
			}
			py = info.Path
		}
		d.python = py
	}
	d.script = path
	return d
}

// Available 脚本是否可用
func (d *ScriptDetector) Available() bool {
	return d.script != ""
}

// Reason 不可用的原因
func (d *ScriptDetector) Reason() string {
	return d.reason
}

// DetectFile 对截图文件运行脚本
func (d *ScriptDetector) DetectFile(ctx context.Context, screenshotPath string) []element.VisualElement {
	if !d.Available() {
		return nil
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	name, args := d.script, []string{screenshotPath}
	if d.python != "" {
		name, args = d.python, []string{d.script, screenshotPath}
	}
	cmd := cmdutil.Command(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// 超时后不等待孙进程关闭管道
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	elapsed := time.Since(start)
	if ctx.Err() != nil {
		logger.LogEvent("PIX", false, elapsed, fmt.Sprintf("脚本超时或被取消: %v", ctx.Err()))
		return nil
	}
	if err != nil {
		logger.LogEvent("PIX", false, elapsed, fmt.Sprintf("脚本执行失败: %v, stderr: %s", err, truncate(stderr.String(), 200)))
		return nil
	}

	elements, err := ParseOutput(stdout.Bytes())
	if err != nil {
		logger.LogEvent("PIX", false, elapsed, err.Error())
		return nil
	}

	kept := Filter(elements, d.opts.ConfidenceThreshold)
	logger.LogEvent("PIX", true, elapsed, fmt.Sprintf("检测到 %d 个元素, 过滤后 %d 个", len(elements), len(kept)))
	return kept
}

// Filter 过滤低于阈值的结果
func Filter(elements []element.VisualElement, threshold float64) []element.VisualElement {
	out := make([]element.VisualElement, 0, len(elements))
	for _, e := range elements {
		if e.Confidence >= threshold {
			out = append(out, e)
		}
	}
	return out
}

// rawElement 脚本输出的单个元素
type rawElement struct {
	BBox       []float64 `json:"bbox"`
	Confidence *float64  `json:"confidence"`
	Type       string    `json:"type"`
}

// ParseOutput 解析脚本输出，单个格式错误的元素会被跳过
func ParseOutput(stdout []byte) ([]element.VisualElement, error) {
	data := bytes.TrimSpace(stdout)
	if len(data) == 0 {
		return nil, errors.New("脚本输出为空")
	}

	var doc struct {
		Elements *[]json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		// 兼容脚本在 JSON 前打印日志的情况，取最后一行
		lastLine := data[bytes.LastIndexByte(data, '\n')+1:]
		if err2 := json.Unmarshal(lastLine, &doc); err2 != nil {
			return nil, fmt.Errorf("解析脚本输出失败: %w", err)
		}
	}
	if doc.Elements == nil {
		return nil, errors.New("脚本输出缺少 elements 字段")
	}

	out := make([]element.VisualElement, 0, len(*doc.Elements))
	for i, raw := range *doc.Elements {
		var e rawElement
		if err := json.Unmarshal(raw, &e); err != nil {
			logger.Warn("跳过第 %d 个元素: %v", i, err)
			continue
		}
		if len(e.BBox) != 4 {
			logger.Warn("跳过第 %d 个元素: bbox 应为 4 个数, 实际 %d 个", i, len(e.BBox))
			continue
		}
		conf := DefaultConfidence
		if e.Confidence != nil {
			conf = *e.Confidence
		}
		typ := e.Type
		if typ == "" {
			typ = DefaultType
		}
		bounds := element.RectFromCorners(int(e.BBox[0]), int(e.BBox[1]), int(e.BBox[2]), int(e.BBox[3]))
		if bounds.IsEmpty() {
			logger.Warn("跳过第 %d 个元素: bbox 面积为 0", i)
			continue
		}
		out = append(out, element.VisualElement{
			Type:       typ,
			Bounds:     bounds,
			Confidence: conf,
		})
	}
	return out, nil
}

// ==================== 内部函数 ====================

// locateScript 查找脚本：存在的路径直接使用，否则在 PATH 中查找
func locateScript(script string) (string, error) {
	if script == "" {
		return "", errors.New("未配置像素分析脚本")
	}
	if info, err := os.Stat(script); err == nil && !info.IsDir() {
		abs, err := filepath.Abs(script)
		if err != nil {
			return script, nil
		}
		return abs, nil
	}
	if path, err := exec.LookPath(script); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("找不到像素分析脚本: %s", script)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
