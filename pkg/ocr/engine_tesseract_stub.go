//go:build !tesseract

package ocr

import "fmt"

func newTesseractEngine(_ Config) (Engine, error) {
	return nil, fmt.Errorf("未启用 tesseract 引擎，请使用 -tags tesseract 构建")
}
