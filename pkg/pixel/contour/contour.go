// Package contour 基于 OpenCV 轮廓的进程内像素分析
//
// 灰度 → Canny 边缘 → 膨胀 → 外轮廓 → 外接矩形，按面积和宽高比过滤，
// 置信度取轮廓面积与外接矩形面积之比（越接近矩形越像控件）。
package contour

import (
	"context"
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/elementmap/internal/logger"
	"github.com/zoeyai/elementmap/pkg/element"
	"github.com/zoeyai/elementmap/pkg/pixel"
)

// Options 轮廓检测参数
type Options struct {
	CannyLow  float32
	CannyHigh float32
	// DilateSize 膨胀核大小（像素）
	DilateSize int
	// MinArea 最小外接矩形面积
	MinArea int
	// MaxAreaRatio 外接矩形相对整图的最大面积比例
	MaxAreaRatio float64
	// MaxAspect 宽高比上限（取宽/高与高/宽中的较大者）
	MaxAspect float64
	// ConfidenceThreshold 低于该值的结果被过滤
	ConfidenceThreshold float64
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		CannyLow:            50,
		CannyHigh:           150,
		DilateSize:          3,
		MinArea:             200,
		MaxAreaRatio:        0.25,
		MaxAspect:           15,
		ConfidenceThreshold: pixel.DefaultThreshold,
	}
}

// Detector 轮廓检测器
type Detector struct {
	opts Options
}

// New 创建轮廓检测器
func New(opts Options) *Detector {
	return &Detector{opts: opts}
}

// Available 进程内实现，始终可用
func (d *Detector) Available() bool {
	return true
}

// DetectFile 读取截图并检测
func (d *Detector) DetectFile(ctx context.Context, path string) []element.VisualElement {
	start := time.Now()
	if ctx.Err() != nil {
		return nil
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		logger.LogEvent("PIX", false, time.Since(start), fmt.Sprintf("无法读取图像: %s", path))
		return nil
	}

	out := d.DetectMat(img)
	logger.LogEvent("PIX", true, time.Since(start), fmt.Sprintf("轮廓检测到 %d 个元素", len(out)))
	return out
}

// DetectImage 检测已解码的图像
func (d *Detector) DetectImage(img image.Image) []element.VisualElement {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		logger.Warn("图像转换失败: %v", err)
		return nil
	}
	defer mat.Close()

	// ImageToMatRGB 输出 BGR 排列
	return d.DetectMat(mat)
}

// DetectMat 检测 BGR 或灰度 Mat
func (d *Detector) DetectMat(src gocv.Mat) []element.VisualElement {
	gray := gocv.NewMat()
	defer gray.Close()
	if src.Channels() == 1 {
		src.CopyTo(&gray)
	} else {
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, d.opts.CannyLow, d.opts.CannyHigh)

	size := max(1, d.opts.DilateSize)
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size))
	defer kernel.Close()
	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(edges, &dilated, kernel)

	contours := gocv.FindContours(dilated, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	imageArea := float64(src.Cols() * src.Rows())
	var out []element.VisualElement
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		rect := gocv.BoundingRect(c)
		bounds := element.RectFromImage(rect)
		if !d.accept(bounds, imageArea) {
			continue
		}
		conf := gocv.ContourArea(c) / float64(bounds.Area())
		if conf > 1 {
			conf = 1
		}
		if conf < d.opts.ConfidenceThreshold {
			continue
		}
		out = append(out, element.VisualElement{
			Type:       classify(bounds),
			Bounds:     bounds,
			Confidence: conf,
		})
	}
	return out
}

// accept 面积与宽高比过滤
func (d *Detector) accept(b element.BoundingRect, imageArea float64) bool {
	area := b.Area()
	if area < d.opts.MinArea {
		return false
	}
	if imageArea > 0 && float64(area)/imageArea > d.opts.MaxAreaRatio {
		return false
	}
	aspect := float64(b.Width) / float64(b.Height)
	if aspect < 1 {
		aspect = 1 / aspect
	}
	return aspect <= d.opts.MaxAspect
}

// classify 按尺寸粗分类型
func classify(b element.BoundingRect) string {
	aspect := float64(b.Width) / float64(b.Height)
	switch {
	case aspect >= 0.75 && aspect <= 1.33 && b.Width <= 64:
		return "icon"
	case aspect > 1.5 && b.Height >= 16 && b.Height <= 80:
		return "button"
	default:
		return "region"
	}
}
