package uia

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

const sampleTree = `{
  "name": "Main", "control_type": "Window", "rect": {"x": 0, "y": 0, "width": 800, "height": 600},
  "is_enabled": true,
  "children": [
    {"name": "OK", "automation_id": "btnOk", "control_type": "Button",
     "rect": {"x": 10, "y": 10, "width": 80, "height": 30}, "is_enabled": true, "has_focus": true},
    {"error": "element not available"},
    {"name": "", "control_type": "TreeItem", "rect": {"x": 10, "y": 50, "width": 100, "height": 20},
     "is_enabled": true, "expand": 1, "selected": true},
    {"name": "Agree", "control_type": "CheckBox", "rect": {"x": 10, "y": 80, "width": 100, "height": 20},
     "is_enabled": false, "toggle": 2}
  ]
}`

func TestJSONNodeTree(t *testing.T) {
	var root jsonNode
	if err := json.Unmarshal([]byte(sampleTree), &root); err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	d := NewDetector(&fakeBackend{root: &root})
	out := d.Detect(context.Background(), 1)
	if len(out) != 3 {
		t.Fatalf("元素数 = %d, 期望 3: %+v", len(out), out)
	}
	if out[0].StableID != "btnOk" || out[0].State != "focused" {
		t.Errorf("OK 按钮字段错误: %+v", out[0])
	}
	if out[1].Type != "TreeItem" || out[1].State != "selected,expanded" {
		t.Errorf("树节点字段错误: %+v", out[1])
	}
	if out[2].IsEnabled || out[2].State != "indeterminate" {
		t.Errorf("复选框字段错误: %+v", out[2])
	}
}

func TestJSONNodeChildrenError(t *testing.T) {
	n := &jsonNode{KidsError: "拒绝访问"}
	if _, err := n.Children(); err == nil {
		t.Error("应返回子节点读取错误")
	}
}

// writeWorker 写一个遵守行协议的 shell 子进程
func writeWorker(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skipf("Windows 上跳过 shell 脚本测试")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skipf("缺少 /bin/sh: %v", err)
	}
	path := filepath.Join(t.TempDir(), "worker.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("写入脚本失败: %v", err)
	}
	return path
}

func TestBridgeTree(t *testing.T) {
	worker := writeWorker(t, `while read line; do
  echo '{"ok":true,"tree":{"name":"W","control_type":"Window","rect":{"x":0,"y":0,"width":100,"height":100},"children":[{"name":"Go","control_type":"Button","rect":{"x":1,"y":1,"width":20,"height":10},"is_enabled":true}]}}'
done
`)
	b := NewCommandBridge(worker)
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		root, err := b.Tree(ctx, 42, 5)
		if err != nil {
			t.Fatalf("第 %d 次请求失败: %v", i+1, err)
		}
		kids, _ := root.Children()
		if len(kids) != 1 {
			t.Fatalf("子节点数 = %d", len(kids))
		}
		p, err := kids[0].Properties()
		if err != nil || p.Name != "Go" {
			t.Errorf("子节点属性错误: %+v, %v", p, err)
		}
	}
}

func TestBridgeErrorResponse(t *testing.T) {
	worker := writeWorker(t, `while read line; do
  echo '{"ok":false,"error":"pywinauto missing"}'
done
`)
	b := NewCommandBridge(worker)
	defer b.Close()

	if err := b.Ping(context.Background()); err == nil {
		t.Error("子进程返回错误时 Ping 应失败")
	}
}

func TestBridgeTimeoutRestarts(t *testing.T) {
	// sleep 作为孙进程继续持有 stdout，杀掉 sh 不会让读取结束
	worker := writeWorker(t, `while read line; do
  sleep 30
done
`)
	b := NewCommandBridge(worker)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := b.Tree(ctx, 1, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("应返回超时错误: %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("超时后应立即返回, 耗时 %v", time.Since(start))
	}
	if b.cmd != nil || b.pipe != nil {
		t.Error("超时后子进程应被结束")
	}

	// 下一次调用重新启动子进程
	ctx2, cancel2 := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel2()
	start = time.Now()
	if _, err := b.Tree(ctx2, 1, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("重启后应再次超时: %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("重启后超时应立即返回, 耗时 %v", time.Since(start))
	}
}

func TestBridgeClosed(t *testing.T) {
	b := NewCommandBridge("")
	if err := b.Ping(context.Background()); !errors.Is(err, ErrBridgeUnavailable) {
		t.Errorf("缺少命令时应返回 ErrBridgeUnavailable: %v", err)
	}
	b.Close()
	if err := b.Ping(context.Background()); !errors.Is(err, ErrBridgeUnavailable) {
		t.Errorf("关闭后应返回 ErrBridgeUnavailable: %v", err)
	}
}
