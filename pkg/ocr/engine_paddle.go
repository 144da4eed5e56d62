package ocr

import (
	"fmt"
	"image"

	goocr "github.com/getcharzp/go-ocr"

	"github.com/zoeyai/elementmap/pkg/element"
)

// paddleEngine 基于 go-ocr 的 PaddleOCR 引擎，只输出行级框
type paddleEngine struct {
	engine goocr.Engine
}

func newPaddleEngine(cfg Config) (Engine, error) {
	if !cfg.ModelsPresent() {
		return nil, fmt.Errorf("OCR 模型文件缺失: det=%s rec=%s dict=%s onnx=%s",
			cfg.DetModelPath, cfg.RecModelPath, cfg.DictPath, cfg.OnnxRuntimeLibPath)
	}

	engine, err := goocr.NewPaddleOcrEngine(goocr.Config{
		OnnxRuntimeLibPath: cfg.OnnxRuntimeLibPath,
		DetModelPath:       cfg.DetModelPath,
		RecModelPath:       cfg.RecModelPath,
		DictPath:           cfg.DictPath,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 OCR 引擎失败: %w", err)
	}
	return &paddleEngine{engine: engine}, nil
}

func (e *paddleEngine) Recognize(img image.Image) ([]Line, error) {
	results, err := e.engine.RunOCR(img)
	if err != nil {
		return nil, fmt.Errorf("OCR 识别失败: %w", err)
	}

	lines := make([]Line, 0, len(results))
	for _, r := range results {
		// go-ocr RecResult: Box [4]int{x1, y1, x2, y2}
		box := element.RectFromCorners(r.Box[0], r.Box[1], r.Box[2], r.Box[3])
		if line := splitLine(r.Text, box); len(line.Words) > 0 {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (e *paddleEngine) Close() error {
	if e.engine != nil {
		e.engine.Destroy()
		e.engine = nil
	}
	return nil
}
