package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		" WARN ":  WARN,
		"error":   ERROR,
		"unknown": INFO,
		"":        INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, 期望 %s", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(WARN)

	l.Info("不应输出 %d", 1)
	l.Warn("应输出 %d", 2)

	out := buf.String()
	if strings.Contains(out, "不应输出") {
		t.Errorf("INFO 日志不应在 WARN 级别输出: %s", out)
	}
	if !strings.Contains(out, "应输出 2") {
		t.Errorf("WARN 日志缺失: %s", out)
	}
}

func TestSetEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetEnabled(false)
	l.Error("静默")
	if buf.Len() != 0 {
		t.Errorf("禁用后不应有输出: %q", buf.String())
	}
}

func TestLogEvent(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)

	l.LogEvent("OCR", true, 12500*time.Microsecond, "识别到 3 个文本")
	l.LogEvent("PIX", false, time.Second, "脚本超时")

	out := buf.String()
	if !strings.Contains(out, "OCR  | OK |    12.5ms | 识别到 3 个文本") {
		t.Errorf("成功事件格式错误: %s", out)
	}
	if !strings.Contains(out, "PIX  | NG") || !strings.Contains(out, "WRN") {
		t.Errorf("失败事件应以 WARN 输出: %s", out)
	}
}

func TestSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detect.log")
	l := New()
	l.SetOutput(nil)

	if err := l.SetFile(true, path); err != nil {
		t.Fatalf("打开日志文件失败: %v", err)
	}
	l.Info("写入文件")
	if err := l.Close(); err != nil {
		t.Fatalf("关闭失败: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(data), "写入文件") {
		t.Errorf("日志文件内容缺失: %s", data)
	}
}
