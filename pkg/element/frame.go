package element

import (
	"image"
	"math"
)

// Frame 截图帧信息：截图像素与屏幕坐标之间的偏移和缩放
//
//	屏幕坐标 = 像素坐标 / Scale + Offset
//
// 零值表示截图即整块屏幕、1:1 像素。
type Frame struct {
	OffsetX int     `json:"offset_x" yaml:"offset_x"`
	OffsetY int     `json:"offset_y" yaml:"offset_y"`
	ScaleX  float64 `json:"scale_x,omitempty" yaml:"scale_x,omitempty"`
	ScaleY  float64 `json:"scale_y,omitempty" yaml:"scale_y,omitempty"`
}

// FrameFor 根据截图尺寸和它在屏幕上覆盖的区域构建帧信息
func FrameFor(img image.Rectangle, screen BoundingRect) Frame {
	f := Frame{OffsetX: screen.X, OffsetY: screen.Y, ScaleX: 1, ScaleY: 1}
	if screen.Width > 0 && img.Dx() > 0 {
		f.ScaleX = float64(img.Dx()) / float64(screen.Width)
	}
	if screen.Height > 0 && img.Dy() > 0 {
		f.ScaleY = float64(img.Dy()) / float64(screen.Height)
	}
	return f
}

// IsIdentity 是否无需转换
func (f Frame) IsIdentity() bool {
	return f.OffsetX == 0 && f.OffsetY == 0 && f.scaleX() == 1 && f.scaleY() == 1
}

// ToScreen 像素矩形 → 屏幕矩形
func (f Frame) ToScreen(r BoundingRect) BoundingRect {
	if f.IsIdentity() {
		return r
	}
	sx, sy := f.scaleX(), f.scaleY()
	x1 := int(math.Round(float64(r.X)/sx)) + f.OffsetX
	y1 := int(math.Round(float64(r.Y)/sy)) + f.OffsetY
	x2 := int(math.Round(float64(r.Right())/sx)) + f.OffsetX
	y2 := int(math.Round(float64(r.Bottom())/sy)) + f.OffsetY
	return RectFromCorners(x1, y1, x2, y2)
}

// ToImage 屏幕矩形 → 像素矩形（可能为负，由调用方裁剪）
func (f Frame) ToImage(r BoundingRect) image.Rectangle {
	if f.IsIdentity() {
		return r.ToImageRect()
	}
	sx, sy := f.scaleX(), f.scaleY()
	return image.Rect(
		int(math.Round(float64(r.X-f.OffsetX)*sx)),
		int(math.Round(float64(r.Y-f.OffsetY)*sy)),
		int(math.Round(float64(r.Right()-f.OffsetX)*sx)),
		int(math.Round(float64(r.Bottom()-f.OffsetY)*sy)),
	)
}

// 缩放为 0 视为 1
func (f Frame) scaleX() float64 {
	if f.ScaleX <= 0 {
		return 1
	}
	return f.ScaleX
}

func (f Frame) scaleY() float64 {
	if f.ScaleY <= 0 {
		return 1
	}
	return f.ScaleY
}
