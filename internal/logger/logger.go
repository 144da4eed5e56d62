// Package logger 提供统一的日志工具
//
// 控制台输出使用 tint（终端下彩色），文件输出使用 slog 文本格式。
// 保留 printf 风格的 Debug/Info/Warn/Error 与分类事件日志 LogEvent。
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// slogLevel 转换为 slog 级别
func (l Level) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel 解析日志级别字符串，未知值回退为 INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger 日志记录器
type Logger struct {
	mu       sync.Mutex
	level    slog.LevelVar
	enabled  bool
	console  io.Writer
	fileOut  *os.File
	filePath string
	handler  *slog.Logger
}

// 全局默认 logger
var defaultLogger = New()

// New 创建输出到标准输出的 Logger
func New() *Logger {
	l := &Logger{
		enabled: true,
		console: os.Stdout,
	}
	l.level.Set(slog.LevelInfo)
	l.rebuild()
	return l
}

// Default 获取默认 logger
func Default() *Logger {
	return defaultLogger
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level.slogLevel())
}

// SetEnabled 设置是否启用日志
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// SetOutput 替换控制台输出目标，nil 表示关闭控制台输出
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = w
	l.rebuild()
}

// SetFile 设置是否同时输出到文件
func (l *Logger) SetFile(enabled bool, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileOut != nil {
		l.fileOut.Close()
		l.fileOut = nil
	}
	l.filePath = ""

	if enabled && path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			l.rebuild()
			return fmt.Errorf("无法打开日志文件: %w", err)
		}
		l.fileOut = f
		l.filePath = path
	}

	l.rebuild()
	return nil
}

// rebuild 根据当前输出目标重建 handler，调用方需持有锁
func (l *Logger) rebuild() {
	var handlers []slog.Handler

	if l.console != nil {
		handlers = append(handlers, tint.NewHandler(l.console, &tint.Options{
			Level:      &l.level,
			TimeFormat: "15:04:05",
			NoColor:    !isTerminal(l.console),
		}))
	}
	if l.fileOut != nil {
		handlers = append(handlers, slog.NewTextHandler(l.fileOut, &slog.HandlerOptions{
			Level: &l.level,
		}))
	}

	switch len(handlers) {
	case 0:
		l.handler = slog.New(slog.NewTextHandler(io.Discard, nil))
	case 1:
		l.handler = slog.New(handlers[0])
	default:
		l.handler = slog.New(fanout(handlers))
	}
}

// isTerminal 判断输出目标是否为终端
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// log 内部日志方法
func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	enabled := l.enabled
	h := l.handler
	l.mu.Unlock()

	if !enabled || !h.Enabled(context.Background(), level.slogLevel()) {
		return
	}
	h.Log(context.Background(), level.slogLevel(), fmt.Sprintf(format, args...))
}

// Debug 输出 DEBUG 级别日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info 输出 INFO 级别日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn 输出 WARN 级别日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error 输出 ERROR 级别日志
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// LogEvent 记录带分类的事件日志，失败事件以 WARN 输出（各层检测失败均可降级，不是致命错误）
func (l *Logger) LogEvent(category string, ok bool, elapsed time.Duration, detail string) {
	status := "OK"
	level := INFO
	if !ok {
		status = "NG"
		level = WARN
	}
	ms := float64(elapsed.Microseconds()) / 1000
	l.log(level, "%-4s | %s | %7.1fms | %s", category, status, ms, detail)
}

// Close 关闭 logger，释放文件句柄
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileOut == nil {
		return nil
	}
	err := l.fileOut.Close()
	l.fileOut = nil
	l.filePath = ""
	l.rebuild()
	return err
}

// fanout 将一条记录分发给多个 handler
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// 包级别便捷函数
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func LogEvent(category string, ok bool, elapsed time.Duration, detail string) {
	defaultLogger.LogEvent(category, ok, elapsed, detail)
}
