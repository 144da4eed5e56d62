package pixel

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/zoeyai/elementmap/pkg/element"
)

// writeScript 在临时目录写一个可执行的 shell 脚本
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skipf("Windows 上跳过 shell 脚本测试")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skipf("缺少 /bin/sh: %v", err)
	}
	path := filepath.Join(t.TempDir(), "detect.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("写入脚本失败: %v", err)
	}
	return path
}

func TestScriptDetectorDefaultsAndThreshold(t *testing.T) {
	script := writeScript(t, `cat <<'EOF'
{"elements": [
  {"bbox": [10, 20, 110, 60]},
  {"bbox": [200, 200, 240, 240], "confidence": 0.2, "type": "icon"},
  {"bbox": [300, 300, 340, 330], "confidence": 0.95, "type": "toggle"}
]}
EOF
`)
	d := NewScriptDetector(script)
	if !d.Available() {
		t.Fatalf("脚本应可用: %s", d.Reason())
	}

	out := d.DetectFile(context.Background(), "/tmp/shot.png")
	if len(out) != 2 {
		t.Fatalf("结果数 = %d, 期望 2（置信度 0.2 被过滤）: %+v", len(out), out)
	}
	first := out[0]
	if first.Type != DefaultType || first.Confidence != DefaultConfidence {
		t.Errorf("默认值错误: %+v", first)
	}
	if first.Bounds != element.NewRect(10, 20, 100, 40) {
		t.Errorf("bbox 转换错误: %+v", first.Bounds)
	}
	if out[1].Type != "toggle" {
		t.Errorf("类型错误: %+v", out[1])
	}
}

func TestScriptDetectorReceivesScreenshotPath(t *testing.T) {
	script := writeScript(t, `printf '{"elements":[{"bbox":[0,0,10,10],"type":"%s"}]}' "$(basename "$1")"
`)
	out := NewScriptDetector(script).DetectFile(context.Background(), "/some/dir/capture.png")
	if len(out) != 1 || out[0].Type != "capture.png" {
		t.Errorf("脚本应收到截图路径作为第一个参数: %+v", out)
	}
}

func TestScriptDetectorFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"非零退出", "echo '{\"elements\":[]}'; exit 3\n"},
		{"空输出", "exit 0\n"},
		{"非法 JSON", "echo 'not json'\n"},
		{"缺少 elements", "echo '{\"items\":[]}'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewScriptDetector(writeScript(t, tt.body))
			if out := d.DetectFile(context.Background(), "x.png"); len(out) != 0 {
				t.Errorf("应返回空列表: %+v", out)
			}
		})
	}
}

func TestScriptDetectorTimeout(t *testing.T) {
	script := writeScript(t, "sleep 10\necho '{\"elements\":[{\"bbox\":[0,0,5,5]}]}'\n")
	d := NewScriptDetector(script, WithTimeout(300*time.Millisecond))

	start := time.Now()
	out := d.DetectFile(context.Background(), "x.png")
	if len(out) != 0 {
		t.Errorf("超时应返回空列表: %+v", out)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("超时未生效, 耗时 %v", elapsed)
	}
}

func TestScriptDetectorMissingScript(t *testing.T) {
	d := NewScriptDetector(filepath.Join(t.TempDir(), "no-such-script.py"))
	if d.Available() {
		t.Fatal("脚本不存在时不应可用")
	}
	if d.Reason() == "" {
		t.Error("应记录不可用原因")
	}
	if out := d.DetectFile(context.Background(), "x.png"); out != nil {
		t.Errorf("不可用时应返回 nil: %+v", out)
	}
	if NewScriptDetector("").Available() {
		t.Error("未配置脚本时不应可用")
	}
}

func TestParseOutput(t *testing.T) {
	out, err := ParseOutput([]byte(`loading model...
{"elements": [{"bbox": [5, 5, 1, 1], "confidence": 0.5}, {"bbox": [1, 2, 3]}, "bad", {"bbox": [0, 0, 0, 9]}]}`))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("应只保留一个合法元素: %+v", out)
	}
	// 角点顺序颠倒时自动修正
	if out[0].Bounds != element.NewRect(1, 1, 4, 4) {
		t.Errorf("边界错误: %+v", out[0].Bounds)
	}
}

func TestParseOutputEmptyElements(t *testing.T) {
	out, err := ParseOutput([]byte(`{"elements": []}`))
	if err != nil || len(out) != 0 {
		t.Errorf("空数组应返回空列表且无错误: %v, %v", out, err)
	}
}

func TestFilter(t *testing.T) {
	in := []element.VisualElement{
		{Confidence: 0.2},
		{Confidence: 0.3},
		{Confidence: 0.9},
	}
	if out := Filter(in, DefaultThreshold); len(out) != 2 {
		t.Errorf("过滤结果 = %d, 期望 2", len(out))
	}
}
