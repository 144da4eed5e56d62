// Package pipeline 串联三层检测：窗口解析 → 无障碍树 → 并发 OCR/像素分析 → 融合 → 标注
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zoeyai/elementmap/internal/logger"
	"github.com/zoeyai/elementmap/pkg/annotate"
	"github.com/zoeyai/elementmap/pkg/element"
	"github.com/zoeyai/elementmap/pkg/fusion"
	"github.com/zoeyai/elementmap/pkg/imageutil"
	"github.com/zoeyai/elementmap/pkg/screen"
	"github.com/zoeyai/elementmap/pkg/uia"
)

// ErrDecodeScreenshot 截图无法读取或解码
var ErrDecodeScreenshot = errors.New("截图无法读取或解码")

// TextDetector 第二层检测（OCR）
type TextDetector interface {
	Available() bool
	DetectImage(img image.Image) []element.TextRegion
	Close() error
}

// VisualDetector 第三层检测（像素分析），输入截图文件
type VisualDetector interface {
	Available() bool
	DetectFile(ctx context.Context, path string) []element.VisualElement
}

// CaptureFunc 截取窗口所在区域，窗口边界为空时截全屏
type CaptureFunc func(window uia.Window) (*screen.Capture, error)

// Request 单次检测请求
type Request struct {
	// WindowTitle 窗口标题子串（不区分大小写）
	WindowTitle string
	// WindowHandle 窗口句柄，非 0 时优先于标题
	WindowHandle int
	// ScreenshotPath 截图文件路径，DetectBytes 忽略该字段
	ScreenshotPath string
	// CaptureScreen 未提供截图时自动截取
	CaptureScreen bool
	// AnnotatePath 标注图输出路径
	AnnotatePath string
	// Annotate 在结果中返回标注图 PNG
	Annotate bool
	// Frame 截图与屏幕坐标的对应关系，自动截图时由截图结果决定
	Frame element.Frame
}

// Options 流水线选项
type Options struct {
	Text     TextDetector
	Visual   VisualDetector
	Fusion   *fusion.Engine
	Renderer *annotate.Renderer
	Capture  CaptureFunc
}

// Option 配置函数
type Option func(*Options)

// WithTextDetector 设置 OCR 检测器
func WithTextDetector(d TextDetector) Option {
	return func(o *Options) {
		o.Text = d
	}
}

// WithVisualDetector 设置像素分析检测器
func WithVisualDetector(d VisualDetector) Option {
	return func(o *Options) {
		o.Visual = d
	}
}

// WithFusion 设置融合引擎
func WithFusion(e *fusion.Engine) Option {
	return func(o *Options) {
		if e != nil {
			o.Fusion = e
		}
	}
}

// WithRenderer 设置标注渲染器
func WithRenderer(r *annotate.Renderer) Option {
	return func(o *Options) {
		if r != nil {
			o.Renderer = r
		}
	}
}

// WithCapture 设置截图函数
func WithCapture(f CaptureFunc) Option {
	return func(o *Options) {
		if f != nil {
			o.Capture = f
		}
	}
}

// Pipeline 检测流水线，同一实例的调用需由调用方串行化
type Pipeline struct {
	acc  *uia.Detector
	opts Options
}

// New 创建流水线，OCR 和像素分析检测器可为空
func New(acc *uia.Detector, opts ...Option) *Pipeline {
	o := Options{
		Fusion:   fusion.New(),
		Renderer: annotate.New(),
		Capture:  captureWindow,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline{acc: acc, opts: o}
}

// Windows 列出可见窗口
func (p *Pipeline) Windows(ctx context.Context) ([]uia.Window, error) {
	return p.acc.Windows(ctx)
}

// DetectFile 使用截图文件检测；未提供截图路径时按 CaptureScreen 截图或仅使用无障碍树
func (p *Pipeline) DetectFile(ctx context.Context, req Request) (*element.DetectionResult, error) {
	var shot *screenshot
	if req.ScreenshotPath != "" {
		img, err := imageutil.Load(req.ScreenshotPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeScreenshot, err)
		}
		shot = &screenshot{img: img, path: req.ScreenshotPath, frame: req.Frame}
	}
	return p.run(ctx, req, shot), nil
}

// DetectBytes 使用内存中的截图检测，像素分析需要的临时文件在返回前删除
func (p *Pipeline) DetectBytes(ctx context.Context, req Request, data []byte) (*element.DetectionResult, error) {
	img, err := imageutil.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeScreenshot, err)
	}
	return p.run(ctx, req, &screenshot{img: img, data: data, frame: req.Frame}), nil
}

// FindElement 在已有结果中按 ID 查找元素
func (p *Pipeline) FindElement(result *element.DetectionResult, id int) (*element.DetectedElement, bool) {
	return result.Find(id)
}

// Close 释放无障碍后端和 OCR 引擎
func (p *Pipeline) Close() error {
	var errs []error
	if p.acc != nil {
		if err := p.acc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭无障碍后端失败: %w", err))
		}
	}
	if p.opts.Text != nil {
		if err := p.opts.Text.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 OCR 失败: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ==================== 内部函数 ====================

// screenshot 一次检测使用的截图
type screenshot struct {
	img image.Image
	// path 已有的截图文件
	path string
	// data 原始编码数据，写临时文件时直接使用
	data  []byte
	frame element.Frame
}

func (p *Pipeline) run(ctx context.Context, req Request, shot *screenshot) *element.DetectionResult {
	start := time.Now()
	result := &element.DetectionResult{Mode: element.ModeFull}

	window, ok := p.resolveWindow(ctx, req)
	if ok {
		result.WindowTitle = window.Title
		result.WindowHandle = window.Handle
		result.WindowProcess = window.ProcessName
	}

	if shot == nil && req.CaptureScreen {
		shot = p.capture(window)
	}

	// 第一层
	var tier1 []element.DetectedElement
	t := time.Now()
	if ok {
		tier1 = p.acc.Detect(ctx, window.Handle)
	}
	result.Timings.Accessibility = time.Since(t)

	// 第二、三层
	var regions []element.TextRegion
	var visuals []element.VisualElement
	if shot == nil {
		result.Mode = element.ModeAccessibilityOnly
		logger.Warn("未提供截图, 仅使用无障碍树检测")
	} else {
		regions, visuals = p.runImageTiers(ctx, shot, &result.Timings)
	}

	// 融合
	t = time.Now()
	fused, stats := p.opts.Fusion.Fuse(tier1, regions, visuals)
	result.Timings.Fusion = time.Since(t)
	result.Elements = fused
	result.Counts = element.Counts{
		Accessibility: len(tier1),
		Ocr:           len(regions),
		PixelAnalysis: len(visuals),
		Fused:         len(fused),
		Synthetic:     stats.SyntheticOut,
	}

	if shot != nil && (req.AnnotatePath != "" || req.Annotate) {
		t = time.Now()
		p.annotate(req, shot, result)
		result.Timings.Annotation = time.Since(t)
	}

	result.Elapsed = time.Since(start)
	logger.LogEvent("PIPE", true, result.Elapsed, fmt.Sprintf("%s: 无障碍 %d, OCR %d, 像素 %d → %d 个元素 (%d 个合成)",
		result.Mode, result.Counts.Accessibility, result.Counts.Ocr, result.Counts.PixelAnalysis,
		result.Counts.Fused, result.Counts.Synthetic))
	return result
}

// resolveWindow 解析目标窗口，句柄优先于标题
func (p *Pipeline) resolveWindow(ctx context.Context, req Request) (uia.Window, bool) {
	if p.acc == nil {
		return uia.Window{}, false
	}
	if req.WindowHandle != 0 {
		window := uia.Window{Handle: req.WindowHandle}
		// 标题和边界只用于展示和截图，取不到不影响检测
		if windows, err := p.acc.Windows(ctx); err == nil {
			for _, w := range windows {
				if w.Handle == req.WindowHandle {
					window = w
					break
				}
			}
		}
		return window, true
	}
	if req.WindowTitle == "" {
		logger.Warn("未指定窗口, 跳过无障碍树检测")
		return uia.Window{}, false
	}
	window, err := p.acc.FindWindow(ctx, req.WindowTitle)
	if err != nil {
		logger.Warn("查找窗口失败: %v", err)
		return uia.Window{}, false
	}
	return window, true
}

// capture 自动截图，失败时退化为仅无障碍树
func (p *Pipeline) capture(window uia.Window) *screenshot {
	c, err := p.opts.Capture(window)
	if err != nil {
		logger.Warn("自动截图失败: %v", err)
		return nil
	}
	return &screenshot{img: c.Image, frame: c.Frame}
}

// runImageTiers 并发运行 OCR 和像素分析，各自只写自己的结果
func (p *Pipeline) runImageTiers(ctx context.Context, shot *screenshot, timings *element.Timings) ([]element.TextRegion, []element.VisualElement) {
	var regions []element.TextRegion
	var visuals []element.VisualElement
	var ocrElapsed, pixElapsed time.Duration

	g, gctx := errgroup.WithContext(ctx)
	if text := p.opts.Text; text != nil && text.Available() {
		g.Go(func() error {
			t := time.Now()
			regions = text.DetectImage(shot.img)
			for i := range regions {
				regions[i].Bounds = shot.frame.ToScreen(regions[i].Bounds)
			}
			ocrElapsed = time.Since(t)
			return nil
		})
	}
	if visual := p.opts.Visual; visual != nil && visual.Available() {
		g.Go(func() error {
			t := time.Now()
			defer func() { pixElapsed = time.Since(t) }()

			path, cleanup, err := shot.file()
			if err != nil {
				logger.Warn("准备像素分析输入失败: %v", err)
				return nil
			}
			defer cleanup()

			visuals = visual.DetectFile(gctx, path)
			for i := range visuals {
				visuals[i].Bounds = shot.frame.ToScreen(visuals[i].Bounds)
			}
			return nil
		})
	}
	// 两层都只返回 nil
	_ = g.Wait()

	timings.Ocr = ocrElapsed
	timings.PixelAnalysis = pixElapsed
	return regions, visuals
}

// file 返回截图文件路径，内存截图写入临时文件
func (s *screenshot) file() (string, func(), error) {
	if s.path != "" {
		return s.path, func() {}, nil
	}

	f, err := os.CreateTemp("", "elementmap-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	data := s.data
	if data == nil {
		if data, err = imageutil.EncodePNG(s.img); err != nil {
			f.Close()
			cleanup()
			return "", nil, err
		}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("写入临时文件失败: %w", err)
	}
	return f.Name(), cleanup, nil
}

// annotate 生成标注图，失败只记录警告
func (p *Pipeline) annotate(req Request, shot *screenshot, result *element.DetectionResult) {
	data, err := p.opts.Renderer.RenderPNG(shot.img, result.Elements, shot.frame)
	if err != nil {
		logger.Warn("生成标注图失败: %v", err)
		return
	}
	if req.Annotate {
		result.AnnotatedPNG = data
	}
	if req.AnnotatePath != "" {
		if err := os.WriteFile(req.AnnotatePath, data, 0644); err != nil {
			logger.Warn("保存标注图失败: %v", err)
			return
		}
		result.AnnotatedPath = req.AnnotatePath
	}
}

// captureWindow 默认截图：窗口边界非空时只截窗口区域
func captureWindow(window uia.Window) (*screen.Capture, error) {
	if !window.Bounds.IsEmpty() {
		return screen.CaptureRegion(window.Bounds)
	}
	return screen.CaptureScreen()
}
