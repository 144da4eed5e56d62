package screen

import (
	"image"
	"math"

	"github.com/zoeyai/elementmap/pkg/element"
)

// frameFor 构建截图帧信息，接近 1 或明显异常的缩放比按 1 处理
func frameFor(img image.Rectangle, region element.BoundingRect) element.Frame {
	f := element.FrameFor(img, region)
	f.ScaleX = normalizeScale(f.ScaleX)
	f.ScaleY = normalizeScale(f.ScaleY)
	return f
}

func normalizeScale(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 1.0
	}
	if v < 0.5 || v > 4.0 {
		return 1.0
	}
	if math.Abs(v-1.0) < 0.05 {
		return 1.0
	}
	return v
}
