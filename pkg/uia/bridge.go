package uia

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/zoeyai/elementmap/internal/logger"
	"github.com/zoeyai/elementmap/pkg/cmdutil"
	"github.com/zoeyai/elementmap/pkg/element"
)

//go:embed worker.py
var workerScript string

// ErrBridgeUnavailable 子进程无法启动或依赖缺失
var ErrBridgeUnavailable = errors.New("UI Automation 子进程不可用")

// bridgeRequest 发给子进程的一行 JSON
type bridgeRequest struct {
	Op       string `json:"op"`
	Handle   int    `json:"handle,omitempty"`
	MaxDepth int    `json:"max_depth,omitempty"`
}

// bridgeWindow 子进程返回的窗口
type bridgeWindow struct {
	Handle int      `json:"handle"`
	Title  string   `json:"title"`
	PID    int      `json:"pid"`
	Bounds rectJSON `json:"bounds"`
}

// bridgeResponse 子进程返回的一行 JSON
type bridgeResponse struct {
	OK      bool           `json:"ok"`
	Error   string         `json:"error,omitempty"`
	Tree    *jsonNode      `json:"tree,omitempty"`
	Windows []bridgeWindow `json:"windows,omitempty"`
}

// Bridge 常驻子进程，按行收发 JSON
//
// 内部互斥锁保证同一时间只有一个请求在管道上；上下文取消时杀掉子进程，
// 下次请求时重新启动。
type Bridge struct {
	name string
	args []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	pipe   io.ReadCloser
	stdout *bufio.Reader
	closed bool
}

// NewBridge 创建运行内置 pywinauto 脚本的子进程桥
func NewBridge(pythonPath string) *Bridge {
	return NewCommandBridge(pythonPath, "-u", "-c", workerScript)
}

// NewCommandBridge 使用任意命令作为子进程，命令需遵守同样的行协议
func NewCommandBridge(name string, args ...string) *Bridge {
	return &Bridge{name: name, args: args}
}

// Ping 检查子进程及其依赖是否可用
func (b *Bridge) Ping(ctx context.Context) error {
	_, err := b.call(ctx, bridgeRequest{Op: "ping"})
	return err
}

// Tree 读取窗口的整棵无障碍树
func (b *Bridge) Tree(ctx context.Context, handle, maxDepth int) (Node, error) {
	resp, err := b.call(ctx, bridgeRequest{Op: "tree", Handle: handle, MaxDepth: maxDepth})
	if err != nil {
		return nil, err
	}
	if resp.Tree == nil {
		return nil, fmt.Errorf("子进程未返回树: 窗口 %d", handle)
	}
	return resp.Tree, nil
}

// Windows 通过子进程枚举顶层窗口
func (b *Bridge) Windows(ctx context.Context) ([]Window, error) {
	resp, err := b.call(ctx, bridgeRequest{Op: "windows"})
	if err != nil {
		return nil, err
	}
	out := make([]Window, 0, len(resp.Windows))
	for _, w := range resp.Windows {
		out = append(out, Window{
			Handle: w.Handle,
			Title:  w.Title,
			PID:    w.PID,
			Bounds: elementRect(w.Bounds),
		})
	}
	return out, nil
}

// Close 关闭子进程
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return b.stopLocked()
}

// ==================== 内部函数 ====================

// call 发送一个请求并等待一行响应
func (b *Bridge) call(ctx context.Context, req bridgeRequest) (*bridgeResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("%w: 已关闭", ErrBridgeUnavailable)
	}
	if err := b.startLocked(); err != nil {
		return nil, err
	}

	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}
	line = append(line, '\n')

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	stdin, stdout := b.stdin, b.stdout
	go func() {
		if _, err := stdin.Write(line); err != nil {
			done <- result{err: fmt.Errorf("写入子进程失败: %w", err)}
			return
		}
		data, err := stdout.ReadBytes('\n')
		if err != nil {
			done <- result{err: fmt.Errorf("读取子进程输出失败: %w", err)}
			return
		}
		done <- result{data: data}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		// 读取结束后才能 Wait；子进程派生的进程可能仍持有管道，直接关闭读端
		_ = b.cmd.Process.Kill()
		b.pipe.Close()
		<-done
		b.stopLocked()
		return nil, fmt.Errorf("等待子进程响应超时: %w", ctx.Err())
	}
	if r.err != nil {
		b.stopLocked()
		return nil, r.err
	}

	var resp bridgeResponse
	if err := json.Unmarshal(r.data, &resp); err != nil {
		return nil, fmt.Errorf("解析子进程响应失败: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("子进程返回错误: %s", resp.Error)
	}
	return &resp, nil
}

// startLocked 子进程未运行时启动，调用方需持有锁
func (b *Bridge) startLocked() error {
	if b.cmd != nil {
		return nil
	}
	if b.name == "" {
		return fmt.Errorf("%w: 未找到 Python", ErrBridgeUnavailable)
	}

	cmd := exec.Command(b.name, b.args...)
	cmdutil.HideWindow(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeUnavailable, err)
	}

	b.cmd = cmd
	b.stdin = stdin
	b.pipe = stdout
	b.stdout = bufio.NewReader(stdout)
	logger.Debug("UI Automation 子进程已启动: pid=%d", cmd.Process.Pid)
	return nil
}

// stopLocked 结束子进程，调用方需持有锁
func (b *Bridge) stopLocked() error {
	if b.cmd == nil {
		return nil
	}
	b.stdin.Close()
	_ = b.cmd.Process.Kill()
	err := b.cmd.Wait()
	b.cmd = nil
	b.stdin = nil
	b.pipe = nil
	b.stdout = nil

	// 被主动杀掉时 Wait 返回的退出错误不需要上报
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func elementRect(r rectJSON) element.BoundingRect {
	return element.NewRect(r.X, r.Y, r.Width, r.Height)
}
