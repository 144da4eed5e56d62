// Package annotate 在截图上绘制带编号的元素框，并生成供推理模块使用的文字摘要
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strconv"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/zoeyai/elementmap/internal/logger"
	"github.com/zoeyai/elementmap/pkg/element"
	"github.com/zoeyai/elementmap/pkg/imageutil"
)

// DefaultPalette 默认调色板，按 (id-1) % len 循环使用
var DefaultPalette = []color.RGBA{
	{R: 230, G: 25, B: 75, A: 255},
	{R: 60, G: 180, B: 75, A: 255},
	{R: 0, G: 130, B: 200, A: 255},
	{R: 245, G: 130, B: 48, A: 255},
	{R: 145, G: 30, B: 180, A: 255},
	{R: 70, G: 200, B: 200, A: 255},
	{R: 240, G: 50, B: 230, A: 255},
	{R: 128, G: 128, B: 0, A: 255},
	{R: 0, G: 128, B: 128, A: 255},
	{R: 170, G: 110, B: 40, A: 255},
}

// 默认值
const (
	DefaultStrokeWidth = 2
	DefaultFontSize    = 14
	labelPadding       = 2
)

// Options 渲染选项
type Options struct {
	Palette     []color.RGBA
	StrokeWidth int
	// Face 标签字体，为空时使用 basicfont.Face7x13
	Face font.Face
}

// Option 配置函数
type Option func(*Options)

// WithPalette 设置调色板
func WithPalette(p []color.RGBA) Option {
	return func(o *Options) {
		if len(p) > 0 {
			o.Palette = p
		}
	}
}

// WithStrokeWidth 设置边框宽度
func WithStrokeWidth(w int) Option {
	return func(o *Options) {
		if w > 0 {
			o.StrokeWidth = w
		}
	}
}

// WithFontData 使用 TrueType 字体数据绘制标签，解析失败时保留默认字体
func WithFontData(data []byte, size float64) Option {
	return func(o *Options) {
		face, err := parseFace(data, size)
		if err != nil {
			logger.Warn("加载标签字体失败, 使用默认字体: %v", err)
			return
		}
		o.Face = face
	}
}

// WithFontFile 从文件加载 TrueType 字体，path 为空时不做任何事
func WithFontFile(path string, size float64) Option {
	return func(o *Options) {
		if path == "" {
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("读取字体文件失败, 使用默认字体: %v", err)
			return
		}
		WithFontData(data, size)(o)
	}
}

// Renderer 标注渲染器，可并发使用
type Renderer struct {
	opts Options
}

// New 创建渲染器
func New(opts ...Option) *Renderer {
	o := Options{
		Palette:     DefaultPalette,
		StrokeWidth: DefaultStrokeWidth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Face == nil {
		o.Face = basicfont.Face7x13
	}
	return &Renderer{opts: o}
}

// Color 元素编号对应的颜色
func (r *Renderer) Color(id int) color.RGBA {
	n := len(r.opts.Palette)
	idx := ((id-1)%n + n) % n
	return r.opts.Palette[idx]
}

// Render 在截图副本上绘制元素框；元素边界为屏幕坐标，通过 frame 换算为像素
func (r *Renderer) Render(img image.Image, elements []element.DetectedElement, frame element.Frame) *image.RGBA {
	dst := imageutil.CloneRGBA(img)
	for _, e := range elements {
		box := frame.ToImage(e.Bounds)
		if box.Intersect(dst.Bounds()).Empty() {
			continue
		}
		c := r.Color(e.ID)
		strokeRect(dst, box, r.opts.StrokeWidth, c)
		r.drawLabel(dst, box, strconv.Itoa(e.ID), c)
	}
	return dst
}

// RenderPNG 渲染并编码为 PNG
func (r *Renderer) RenderPNG(img image.Image, elements []element.DetectedElement, frame element.Frame) ([]byte, error) {
	data, err := imageutil.EncodePNG(r.Render(img, elements, frame))
	if err != nil {
		return nil, fmt.Errorf("生成标注图失败: %w", err)
	}
	return data, nil
}

// RenderFile 渲染并写入 PNG 文件
func (r *Renderer) RenderFile(img image.Image, elements []element.DetectedElement, frame element.Frame, path string) error {
	if err := imageutil.SavePNG(r.Render(img, elements, frame), path); err != nil {
		return fmt.Errorf("保存标注图失败: %w", err)
	}
	return nil
}

// ==================== 内部函数 ====================

// drawLabel 在框内左上角画实心标签和编号
func (r *Renderer) drawLabel(dst *image.RGBA, box image.Rectangle, label string, bg color.RGBA) {
	face := r.opts.Face
	metrics := face.Metrics()
	textW := font.MeasureString(face, label).Ceil()
	textH := (metrics.Ascent + metrics.Descent).Ceil()

	chip := image.Rect(0, 0, textW+2*labelPadding, textH+2*labelPadding).Add(box.Min)
	// 框的左上角在图外时把标签推回图内
	bounds := dst.Bounds()
	if chip.Min.X < bounds.Min.X {
		chip = chip.Add(image.Pt(bounds.Min.X-chip.Min.X, 0))
	}
	if chip.Min.Y < bounds.Min.Y {
		chip = chip.Add(image.Pt(0, bounds.Min.Y-chip.Min.Y))
	}
	draw.Draw(dst, chip.Intersect(bounds), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor(bg)),
		Face: face,
		Dot:  fixed.P(chip.Min.X+labelPadding, chip.Min.Y+labelPadding+metrics.Ascent.Ceil()),
	}
	d.DrawString(label)
}

// strokeRect 画矩形边框，超出图像的部分自动裁剪
func strokeRect(dst *image.RGBA, r image.Rectangle, w int, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w),
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y),
		image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, edge := range edges {
		draw.Draw(dst, edge.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// textColor 浅色背景用黑字，深色背景用白字
func textColor(bg color.RGBA) color.Color {
	lum := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if lum > 150 {
		return color.Black
	}
	return color.White
}

func parseFace(data []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %w", err)
	}
	if size <= 0 {
		size = DefaultFontSize
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
