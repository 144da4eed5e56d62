// Package ocr 对截图做文字识别（第二层检测），输出单词级和行级文本区域
//
// 引擎只报告按行分组的单词，置信度按粒度固定：单词 0.9，多词行 0.85。
// 所有失败都降级为空列表并记录警告。
package ocr

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/zoeyai/elementmap/internal/logger"
	"github.com/zoeyai/elementmap/pkg/element"
	"github.com/zoeyai/elementmap/pkg/imageutil"
)

// 各粒度的固定置信度
const (
	WordConfidence = 0.90
	LineConfidence = 0.85
)

// Detector 文本区域检测器
type Detector struct {
	mu     sync.Mutex
	engine Engine
	reason string
}

// NewDetector 按配置创建检测器，引擎不可用时返回不可用的检测器
func NewDetector(cfg Config) *Detector {
	engine, err := NewEngine(cfg)
	if err != nil {
		logger.Warn("OCR 不可用: %v", err)
		return &Detector{reason: err.Error()}
	}
	logger.Info("OCR 引擎初始化成功: %s", engineName(cfg))
	return &Detector{engine: engine}
}

// NewDetectorWithEngine 使用已有引擎创建检测器
func NewDetectorWithEngine(engine Engine) *Detector {
	return &Detector{engine: engine}
}

// Available 引擎是否可用
func (d *Detector) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine != nil
}

// Reason 不可用的原因
func (d *Detector) Reason() string {
	return d.reason
}

// DetectFile 识别图像文件
func (d *Detector) DetectFile(path string) []element.TextRegion {
	img, err := imageutil.Load(path)
	if err != nil {
		logger.LogEvent("OCR", false, 0, fmt.Sprintf("%s: %v", path, err))
		return nil
	}
	return d.DetectImage(img)
}

// DetectBytes 识别内存中的图像
func (d *Detector) DetectBytes(data []byte) []element.TextRegion {
	img, err := imageutil.Decode(data)
	if err != nil {
		logger.LogEvent("OCR", false, 0, err.Error())
		return nil
	}
	return d.DetectImage(img)
}

// DetectImage 识别已解码的图像，坐标为图像像素坐标
func (d *Detector) DetectImage(img image.Image) []element.TextRegion {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.engine == nil || img == nil {
		return nil
	}

	start := time.Now()
	lines, err := d.engine.Recognize(img)
	if err != nil {
		logger.LogEvent("OCR", false, time.Since(start), err.Error())
		return nil
	}

	regions := Regions(lines)
	logger.LogEvent("OCR", true, time.Since(start), fmt.Sprintf("识别到 %d 行, %d 个区域", len(lines), len(regions)))
	return regions
}

// Close 释放引擎
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.engine == nil {
		return nil
	}
	err := d.engine.Close()
	d.engine = nil
	return err
}

// Regions 将行转换为文本区域：先输出全部单词，再输出多于一个单词的行
func Regions(lines []Line) []element.TextRegion {
	var words, multi []element.TextRegion
	for _, line := range lines {
		n := 0
		for _, w := range line.Words {
			if w.Text == "" || w.Bounds.IsEmpty() {
				continue
			}
			words = append(words, element.TextRegion{
				Text:        w.Text,
				Bounds:      w.Bounds,
				Confidence:  WordConfidence,
				Granularity: element.GranularityWord,
			})
			n++
		}
		if n > 1 {
			multi = append(multi, element.TextRegion{
				Text:        line.Text(),
				Bounds:      line.Bounds(),
				Confidence:  LineConfidence,
				Granularity: element.GranularityLine,
			})
		}
	}
	return append(words, multi...)
}

func engineName(cfg Config) string {
	if cfg.Engine == "" {
		return EnginePaddle
	}
	return cfg.Engine
}
