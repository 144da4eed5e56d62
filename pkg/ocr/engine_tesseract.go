//go:build tesseract

package ocr

import (
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"

	"github.com/zoeyai/elementmap/pkg/element"
	"github.com/zoeyai/elementmap/pkg/imageutil"
)

// tesseractEngine 基于 gosseract 的引擎，直接输出单词框
type tesseractEngine struct {
	client *gosseract.Client
}

func newTesseractEngine(cfg Config) (Engine, error) {
	client := gosseract.NewClient()
	if cfg.TessdataPrefix != "" {
		client.SetTessdataPrefix(cfg.TessdataPrefix)
	}
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("设置 tesseract 语言失败: %w", err)
	}
	return &tesseractEngine{client: client}, nil
}

func (e *tesseractEngine) Recognize(img image.Image) ([]Line, error) {
	data, err := imageutil.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("加载图像失败: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract 识别失败: %w", err)
	}

	origin := img.Bounds().Min
	type lineKey struct{ block, par, line int }
	index := map[lineKey]int{}
	var lines []Line
	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		key := lineKey{b.BlockNum, b.ParNum, b.LineNum}
		i, ok := index[key]
		if !ok {
			i = len(lines)
			index[key] = i
			lines = append(lines, Line{})
		}
		lines[i].Words = append(lines[i].Words, Word{
			Text:   b.Word,
			Bounds: element.RectFromImage(b.Box.Add(origin)),
		})
	}
	return lines, nil
}

func (e *tesseractEngine) Close() error {
	return e.client.Close()
}
