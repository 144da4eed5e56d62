package pipeline

import (
	"time"

	"github.com/zoeyai/elementmap/pkg/annotate"
	"github.com/zoeyai/elementmap/pkg/config"
	"github.com/zoeyai/elementmap/pkg/ocr"
	"github.com/zoeyai/elementmap/pkg/pixel"
	"github.com/zoeyai/elementmap/pkg/pixel/contour"
	"github.com/zoeyai/elementmap/pkg/screen"
	"github.com/zoeyai/elementmap/pkg/uia"
)

// NewFromConfig 按配置创建流水线及各层检测器
func NewFromConfig(cfg *config.Config) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	uiaOpts := []uia.Option{uia.WithMaxDepth(cfg.Detection.MaxDepth)}
	if cfg.Detection.ScreenBounds {
		if displays := screen.Displays(); len(displays) > 0 {
			uiaOpts = append(uiaOpts, uia.WithScreenBounds(displays...))
		}
	}
	acc := uia.NewDetector(uia.NewBackend(), uiaOpts...)

	opts := []Option{
		WithTextDetector(ocr.NewDetector(OCRConfig(cfg.OCR))),
		WithRenderer(annotate.New(
			annotate.WithStrokeWidth(cfg.Annotate.StrokeWidth),
			annotate.WithFontFile(cfg.Annotate.FontFile, cfg.Annotate.FontSize),
		)),
	}
	if v := VisualDetectorFor(cfg.Pixel); v != nil {
		opts = append(opts, WithVisualDetector(v))
	}
	return New(acc, opts...)
}

// OCRConfig 配置文件中的 OCR 配置转换为引擎配置，未配置的路径使用默认查找规则
func OCRConfig(c config.OCRConfig) ocr.Config {
	out := ocr.DefaultConfig()
	if c.Engine != "" {
		out.Engine = c.Engine
	}
	if c.OnnxRuntimeLibPath != "" {
		out.OnnxRuntimeLibPath = c.OnnxRuntimeLibPath
	}
	if c.DetModelPath != "" {
		out.DetModelPath = c.DetModelPath
	}
	if c.RecModelPath != "" {
		out.RecModelPath = c.RecModelPath
	}
	if c.DictPath != "" {
		out.DictPath = c.DictPath
	}
	if len(c.Languages) > 0 {
		out.Languages = c.Languages
	}
	out.TessdataPrefix = c.TessdataPrefix
	return out
}

// VisualDetectorFor 按后端创建像素分析检测器，backend 为 none 时返回 nil
func VisualDetectorFor(c config.PixelConfig) VisualDetector {
	switch c.Backend {
	case config.PixelBackendContour:
		return contour.New(contour.Options{
			CannyLow:            float32(c.Contour.CannyLow),
			CannyHigh:           float32(c.Contour.CannyHigh),
			DilateSize:          contour.DefaultOptions().DilateSize,
			MinArea:             c.Contour.MinArea,
			MaxAreaRatio:        c.Contour.MaxAreaRatio,
			MaxAspect:           c.Contour.MaxAspect,
			ConfidenceThreshold: c.Threshold,
		})
	case config.PixelBackendNone:
		return nil
	default:
		return pixel.NewScriptDetector(c.Script,
			pixel.WithTimeout(time.Duration(c.TimeoutMs)*time.Millisecond),
			pixel.WithThreshold(c.Threshold),
			pixel.WithPython(c.Python),
		)
	}
}
