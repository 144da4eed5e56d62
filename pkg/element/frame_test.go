package element

import (
	"image"
	"testing"
)

func TestFrameIdentity(t *testing.T) {
	var f Frame
	if !f.IsIdentity() {
		t.Error("零值应为恒等变换")
	}
	r := NewRect(10, 20, 30, 40)
	if f.ToScreen(r) != r {
		t.Errorf("恒等变换改变了矩形: %+v", f.ToScreen(r))
	}
	if f.ToImage(r) != image.Rect(10, 20, 40, 60) {
		t.Errorf("ToImage = %v", f.ToImage(r))
	}
}

func TestFrameForWindowCapture(t *testing.T) {
	// 200x100 点的窗口在 2x 屏幕上截出 400x200 像素
	f := FrameFor(image.Rect(0, 0, 400, 200), NewRect(100, 50, 200, 100))
	if f.ScaleX != 2 || f.ScaleY != 2 || f.OffsetX != 100 || f.OffsetY != 50 {
		t.Fatalf("帧信息错误: %+v", f)
	}

	screen := f.ToScreen(NewRect(40, 20, 60, 30))
	if screen != NewRect(120, 60, 30, 15) {
		t.Errorf("ToScreen = %+v", screen)
	}
	if back := f.ToImage(screen); back != image.Rect(40, 20, 100, 50) {
		t.Errorf("ToImage 未还原: %v", back)
	}
}

func TestFrameForEmptyScreenRect(t *testing.T) {
	f := FrameFor(image.Rect(0, 0, 100, 100), BoundingRect{})
	if !f.IsIdentity() {
		t.Errorf("未知屏幕区域应为恒等变换: %+v", f)
	}
}
