//go:build windows

package uia

import (
	"syscall"
	"unsafe"

	"github.com/zoeyai/elementmap/pkg/element"
)

var (
	user32                       = syscall.NewLazyDLL("user32.dll")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
)

const (
	gwlStyle   = ^uintptr(15) // -16
	gwlExStyle = ^uintptr(19) // -20

	wsVisible      uintptr = 0x10000000
	wsExToolWindow uintptr = 0x00000080
	wsExAppWindow  uintptr = 0x00040000

	// 过小的窗口通常是隐藏的辅助窗口
	minWindowSize = 50
)

// rect32 Windows RECT 结构
type rect32 struct {
	Left, Top, Right, Bottom int32
}

// enumWindows 使用 EnumWindows 枚举可见的顶层应用窗口，按 Z 序返回
func enumWindows() []Window {
	windows := make([]Window, 0, 64)

	callback := syscall.NewCallback(func(hwnd syscall.Handle, _ uintptr) uintptr {
		ret, _, _ := procIsWindowVisible.Call(uintptr(hwnd))
		if ret == 0 {
			return 1
		}

		style, _, _ := procGetWindowLongW.Call(uintptr(hwnd), gwlStyle)
		exStyle, _, _ := procGetWindowLongW.Call(uintptr(hwnd), gwlExStyle)
		if style&wsVisible == 0 {
			return 1
		}
		if exStyle&wsExToolWindow != 0 && exStyle&wsExAppWindow == 0 {
			return 1
		}

		length, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
		if length == 0 {
			return 1
		}
		buf := make([]uint16, length+1)
		procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(length+1))
		title := syscall.UTF16ToString(buf)
		if title == "" {
			return 1
		}

		var pid uint32
		procGetWindowThreadProcessId.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&pid)))

		var r rect32
		procGetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&r)))
		width := int(r.Right - r.Left)
		height := int(r.Bottom - r.Top)
		if width < minWindowSize || height < minWindowSize {
			return 1
		}

		windows = append(windows, Window{
			Handle: int(hwnd),
			Title:  title,
			PID:    int(pid),
			Bounds: element.NewRect(int(r.Left), int(r.Top), width, height),
		})
		return 1
	})

	procEnumWindows.Call(callback, 0)
	return windows
}
