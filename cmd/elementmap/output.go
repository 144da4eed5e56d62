package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zoeyai/elementmap/pkg/annotate"
	"github.com/zoeyai/elementmap/pkg/element"
	"github.com/zoeyai/elementmap/pkg/uia"
)

// 输出格式
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("未知的输出格式: %s (可选 text/json/yaml)", format)
}

// writeResult 输出检测结果
func writeResult(w io.Writer, result *element.DetectionResult, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, result)
	case formatYAML:
		return writeYAML(w, result)
	}

	title := result.WindowTitle
	if title == "" {
		title = "(未指定窗口)"
	}
	fmt.Fprintf(w, "窗口: %s  模式: %s  耗时: %v\n", title, result.Mode, result.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "无障碍 %d / OCR %d / 像素 %d → %d 个元素 (%d 个合成)\n",
		result.Counts.Accessibility, result.Counts.Ocr, result.Counts.PixelAnalysis,
		result.Counts.Fused, result.Counts.Synthetic)
	if result.AnnotatedPath != "" {
		fmt.Fprintf(w, "标注图: %s\n", result.AnnotatedPath)
	}
	if summary := annotate.Summary(result.Elements); summary != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, summary)
	}
	return nil
}

// writeWindows 输出窗口列表
func writeWindows(w io.Writer, windows []uia.Window, format string) error {
	if windows == nil {
		windows = []uia.Window{}
	}
	switch format {
	case formatJSON:
		return writeJSON(w, windows)
	case formatYAML:
		return writeYAML(w, windows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HANDLE\tPID\tPROCESS\tBOUNDS\tTITLE")
	for _, win := range windows {
		b := win.Bounds
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d,%d %dx%d\t%s\n",
			win.Handle, win.PID, win.ProcessName, b.X, b.Y, b.Width, b.Height, strings.TrimSpace(win.Title))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("JSON 编码失败: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("YAML 编码失败: %w", err)
	}
	return enc.Close()
}
