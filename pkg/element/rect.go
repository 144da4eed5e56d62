// Package element 定义检测结果的共享数据模型：矩形、元素、文本区域和检测结果
package element

import (
	"image"
	"math"
)

// Point 表示二维坐标点
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// BoundingRect 屏幕坐标下的矩形区域（左上角 + 宽高）
type BoundingRect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// NewRect 创建矩形，负的宽高按 0 处理
func NewRect(x, y, width, height int) BoundingRect {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return BoundingRect{X: x, Y: y, Width: width, Height: height}
}

// RectFromCorners 由左上角和右下角坐标创建矩形，角点顺序颠倒时自动修正
func RectFromCorners(x1, y1, x2, y2 int) BoundingRect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return BoundingRect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// RectFromImage 由 image.Rectangle 创建矩形
func RectFromImage(r image.Rectangle) BoundingRect {
	r = r.Canon()
	return BoundingRect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Right 右边界（不含）
func (r BoundingRect) Right() int {
	return r.X + r.Width
}

// Bottom 下边界（不含）
func (r BoundingRect) Bottom() int {
	return r.Y + r.Height
}

// IsEmpty 宽或高为 0 时为空
func (r BoundingRect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center 返回矩形中心点
func (r BoundingRect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// center 返回浮点中心，距离计算使用
func (r BoundingRect) center() (float64, float64) {
	return float64(r.X) + float64(r.Width)/2, float64(r.Y) + float64(r.Height)/2
}

// Area 返回面积
func (r BoundingRect) Area() int {
	if r.IsEmpty() {
		return 0
	}
	return r.Width * r.Height
}

// Intersect 返回两个矩形的交集，无交集时返回空矩形
func (r BoundingRect) Intersect(other BoundingRect) BoundingRect {
	x1 := max(r.X, other.X)
	y1 := max(r.Y, other.Y)
	x2 := min(r.Right(), other.Right())
	y2 := min(r.Bottom(), other.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return BoundingRect{}
	}
	return BoundingRect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Union 返回同时包含两个矩形的最小矩形，空矩形不参与计算
func (r BoundingRect) Union(other BoundingRect) BoundingRect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	x1 := min(r.X, other.X)
	y1 := min(r.Y, other.Y)
	x2 := max(r.Right(), other.Right())
	y2 := max(r.Bottom(), other.Bottom())
	return BoundingRect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// IoU 交并比，范围 [0,1]；完全相同的矩形（包括零面积）为 1
func (r BoundingRect) IoU(other BoundingRect) float64 {
	if r == other {
		return 1
	}
	inter := r.Intersect(other).Area()
	if inter == 0 {
		return 0
	}
	union := r.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Contains 判断点是否在矩形内（含左上边界，不含右下边界）
func (r BoundingRect) Contains(px, py int) bool {
	return px >= r.X && px < r.Right() && py >= r.Y && py < r.Bottom()
}

// CenterDistance 两个矩形中心点的欧氏距离
func (r BoundingRect) CenterDistance(other BoundingRect) float64 {
	ax, ay := r.center()
	bx, by := other.center()
	return math.Hypot(ax-bx, ay-by)
}

// Expand 向四周扩展 dx/dy 像素，左上角不小于 0
func (r BoundingRect) Expand(dx, dy int) BoundingRect {
	x := r.X - dx
	y := r.Y - dy
	w := r.Width + 2*dx
	h := r.Height + 2*dy
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	return NewRect(x, y, w, h)
}

// ToImageRect 转换为 image.Rectangle
func (r BoundingRect) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}
