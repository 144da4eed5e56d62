package ocr

import (
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/zoeyai/elementmap/pkg/element"
)

// Word 单词及其图像坐标
type Word struct {
	Text   string
	Bounds element.BoundingRect
}

// Line 一行文字，按从左到右的单词顺序
type Line struct {
	Words []Word
}

// Text 以空格连接的整行文字
func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Bounds 所有单词边界的并集
func (l Line) Bounds() element.BoundingRect {
	var r element.BoundingRect
	for _, w := range l.Words {
		r = r.Union(w.Bounds)
	}
	return r
}

// Engine OCR 引擎，返回按行分组的单词
type Engine interface {
	Recognize(img image.Image) ([]Line, error)
	Close() error
}

// NewEngine 按配置创建引擎
func NewEngine(cfg Config) (Engine, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", EnginePaddle:
		return newPaddleEngine(cfg)
	case EngineTesseract:
		return newTesseractEngine(cfg)
	default:
		return nil, fmt.Errorf("未知的 OCR 引擎: %s", cfg.Engine)
	}
}

// splitLine 将整行文字框按空白拆成单词框，宽度按字符数（含单词间空格）比例分配
func splitLine(text string, box element.BoundingRect) Line {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Line{}
	}
	if len(fields) == 1 {
		return Line{Words: []Word{{Text: fields[0], Bounds: box}}}
	}

	total := len(fields) - 1
	for _, f := range fields {
		total += utf8.RuneCountInString(f)
	}
	perRune := float64(box.Width) / float64(total)

	words := make([]Word, 0, len(fields))
	offset := 0
	for _, f := range fields {
		n := utf8.RuneCountInString(f)
		x1 := box.X + int(float64(offset)*perRune+0.5)
		x2 := box.X + int(float64(offset+n)*perRune+0.5)
		words = append(words, Word{
			Text:   f,
			Bounds: element.NewRect(x1, box.Y, x2-x1, box.Height),
		})
		offset += n + 1
	}
	return Line{Words: words}
}
