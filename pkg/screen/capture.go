// Package screen 提供屏幕截图，并返回截图与屏幕坐标之间的帧信息
package screen

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/elementmap/pkg/element"
)

// ErrPermissionDenied 缺少屏幕录制权限
var ErrPermissionDenied = errors.New("缺少屏幕录制权限")

// Capture 截图结果
type Capture struct {
	Image image.Image
	Frame element.Frame
}

// CaptureScreen 截取全屏
func CaptureScreen() (*Capture, error) {
	if err := CheckPermission(); err != nil {
		return nil, err
	}
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("截屏失败: %w", err)
	}
	w, h := Size()
	return &Capture{
		Image: img,
		Frame: frameFor(img.Bounds(), element.NewRect(0, 0, w, h)),
	}, nil
}

// CaptureRegion 截取屏幕区域（屏幕坐标）
func CaptureRegion(region element.BoundingRect) (*Capture, error) {
	if region.IsEmpty() {
		return nil, fmt.Errorf("截取区域为空: %+v", region)
	}
	if err := CheckPermission(); err != nil {
		return nil, err
	}
	img, err := robotgo.CaptureImg(region.X, region.Y, region.Width, region.Height)
	if err != nil {
		return nil, fmt.Errorf("截取区域失败: %w", err)
	}
	return &Capture{
		Image: img,
		Frame: frameFor(img.Bounds(), region),
	}, nil
}

// Size 主屏尺寸
func Size() (width, height int) {
	return robotgo.GetScreenSize()
}

// Bounds 虚拟桌面范围，即所有显示器的外接矩形
func Bounds() element.BoundingRect {
	return virtualBounds(Displays())
}

// Displays 各显示器的屏幕坐标范围，获取失败时回退为主屏
func Displays() []element.BoundingRect {
	displays := displayRects(robotgo.DisplaysNum(), robotgo.GetDisplayBounds)
	if len(displays) == 0 {
		w, h := Size()
		if w > 0 && h > 0 {
			displays = append(displays, element.NewRect(0, 0, w, h))
		}
	}
	return displays
}
