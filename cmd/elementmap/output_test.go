package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zoeyai/elementmap/internal/logger"
	"github.com/zoeyai/elementmap/pkg/element"
	"github.com/zoeyai/elementmap/pkg/uia"
)

func sampleResult() *element.DetectionResult {
	return &element.DetectionResult{
		WindowTitle: "Save As",
		Mode:        element.ModeFull,
		Elements: []element.DetectedElement{
			{ID: 1, Type: "Button", Name: "OK", Bounds: element.NewRect(0, 0, 20, 10), IsEnabled: true, IsInteractable: true,
				Sources: element.SourceAccessibility | element.SourceOcr, Confidence: 1},
		},
		Counts:  element.Counts{Accessibility: 1, Ocr: 1, Fused: 1},
		Elapsed: 1234 * time.Millisecond,
	}
}

func TestWriteResultText(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResult(&buf, sampleResult(), formatText); err != nil {
		t.Fatalf("输出失败: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "窗口: Save As") {
		t.Errorf("缺少窗口信息:\n%s", out)
	}
	if !strings.Contains(out, `[1] Button "OK" at (10,5) (clickable)`) {
		t.Errorf("缺少元素摘要:\n%s", out)
	}
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResult(&buf, sampleResult(), formatJSON); err != nil {
		t.Fatalf("输出失败: %v", err)
	}
	var decoded struct {
		Mode     string `json:"mode"`
		Elements []struct {
			Sources string `json:"sources"`
		} `json:"elements"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON 无法解析: %v\n%s", err, buf.String())
	}
	if decoded.Mode != "full" || len(decoded.Elements) != 1 || decoded.Elements[0].Sources != "Accessibility|Ocr" {
		t.Errorf("JSON 内容错误: %+v", decoded)
	}
}

func TestWriteResultYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResult(&buf, sampleResult(), formatYAML); err != nil {
		t.Fatalf("输出失败: %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("YAML 无法解析: %v\n%s", err, buf.String())
	}
	if decoded["window_title"] != "Save As" {
		t.Errorf("YAML 内容错误:\n%s", buf.String())
	}
}

func TestWriteWindows(t *testing.T) {
	windows := []uia.Window{{Handle: 42, Title: "Notepad", PID: 7, ProcessName: "notepad", Bounds: element.NewRect(1, 2, 300, 200)}}

	var buf bytes.Buffer
	if err := writeWindows(&buf, windows, formatText); err != nil {
		t.Fatalf("输出失败: %v", err)
	}
	if !strings.Contains(buf.String(), "42") || !strings.Contains(buf.String(), "300x200") {
		t.Errorf("窗口列表错误:\n%s", buf.String())
	}

	buf.Reset()
	if err := writeWindows(&buf, nil, formatJSON); err != nil {
		t.Fatalf("输出失败: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("空列表应输出 []: %s", buf.String())
	}
}

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{formatText, formatJSON, formatYAML} {
		if err := checkFormat(f); err != nil {
			t.Errorf("%s 应合法: %v", f, err)
		}
	}
	if err := checkFormat("xml"); err == nil {
		t.Error("xml 应不合法")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	if !strings.Contains(buf.String(), Version) {
		t.Errorf("版本输出错误: %s", buf.String())
	}
}

func TestDetectRequiresTarget(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"detect"})
	if err := cmd.Execute(); err == nil {
		t.Error("未指定窗口和截图时应返回错误")
	}
}

func TestLogsGoToStderr(t *testing.T) {
	t.Cleanup(func() { logger.Default().SetOutput(os.Stdout) })
	logger.Default().SetLevel(logger.INFO)

	cmd := newRootCmd()
	cmd.AddCommand(&cobra.Command{
		Use: "emit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.LogEvent("PIPE", true, time.Millisecond, "检测完成")
			logger.Warn("截图缺失，降级为仅无障碍模式")
			return writeResult(cmd.OutOrStdout(), sampleResult(), formatJSON)
		},
	})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"emit"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("执行失败: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("标准输出应只有 JSON: %v\n%s", err, out.String())
	}
	if !strings.Contains(errOut.String(), "PIPE") || !strings.Contains(errOut.String(), "降级") {
		t.Errorf("日志应写到标准错误:\n%s", errOut.String())
	}
}
