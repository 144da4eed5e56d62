package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zoeyai/elementmap/pkg/element"
	"github.com/zoeyai/elementmap/pkg/imageutil"
	"github.com/zoeyai/elementmap/pkg/screen"
	"github.com/zoeyai/elementmap/pkg/uia"
)

// ==================== 测试替身 ====================

type fakeNode struct {
	props uia.Properties
	kids  []uia.Node
}

func (n *fakeNode) Properties() (uia.Properties, error) { return n.props, nil }
func (n *fakeNode) Children() ([]uia.Node, error)      { return n.kids, nil }

type fakeBackend struct {
	windows    []uia.Window
	root       uia.Node
	rootHandle int
	closed     bool
}

func (b *fakeBackend) Windows(context.Context) ([]uia.Window, error) { return b.windows, nil }

func (b *fakeBackend) Root(_ context.Context, handle int, _ int) (uia.Node, error) {
	b.rootHandle = handle
	return b.root, nil
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

type fakeText struct {
	regions []element.TextRegion
	calls   int
	closed  bool
}

func (f *fakeText) Available() bool { return true }

func (f *fakeText) DetectImage(image.Image) []element.TextRegion {
	f.calls++
	// 返回副本，流水线会改写坐标
	return append([]element.TextRegion(nil), f.regions...)
}

func (f *fakeText) Close() error {
	f.closed = true
	return nil
}

type fakeVisual struct {
	mu        sync.Mutex
	available bool
	out       []element.VisualElement
	paths     []string
	existed   bool
}

func (f *fakeVisual) Available() bool { return f.available }

func (f *fakeVisual) DetectFile(_ context.Context, path string) []element.VisualElement {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	_, err := os.Stat(path)
	f.existed = err == nil
	return append([]element.VisualElement(nil), f.out...)
}

// dialog 一个带标签和 OK 按钮的对话框，根节点本身不输出
func dialog() *fakeBackend {
	return &fakeBackend{
		windows: []uia.Window{
			{Handle: 1, Title: "Untitled - Notepad", PID: 10, ProcessName: "notepad", Bounds: element.NewRect(0, 0, 400, 300)},
			{Handle: 2, Title: "Save As", PID: 10, ProcessName: "notepad", Bounds: element.NewRect(100, 100, 300, 200)},
		},
		root: &fakeNode{
			props: uia.Properties{Name: "Save As", ControlType: "Window", Bounds: element.NewRect(100, 100, 300, 200), IsEnabled: true},
			kids: []uia.Node{
				&fakeNode{props: uia.Properties{
					Name: "File name:", ControlType: "Text", Bounds: element.NewRect(110, 130, 60, 16), IsEnabled: true,
				}},
				&fakeNode{props: uia.Properties{
					Name: "OK", ControlType: "Button", Bounds: element.NewRect(110, 250, 60, 24), IsEnabled: true,
				}},
			},
		},
	}
}

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	data, err := imageutil.EncodePNG(img)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	return data
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, whitePNG(t, w, h), 0644); err != nil {
		t.Fatalf("写入截图失败: %v", err)
	}
	return path
}

// ==================== 测试 ====================

func TestAccessibilityOnlyMode(t *testing.T) {
	text := &fakeText{}
	p := New(uia.NewDetector(dialog()), WithTextDetector(text))

	result, err := p.DetectFile(context.Background(), Request{WindowTitle: "save"})
	if err != nil {
		t.Fatalf("检测失败: %v", err)
	}
	if result.Mode != element.ModeAccessibilityOnly {
		t.Errorf("Mode = %s", result.Mode)
	}
	if text.calls != 0 {
		t.Error("无截图时不应调用 OCR")
	}
	if result.WindowHandle != 2 || result.WindowTitle != "Save As" || result.WindowProcess != "notepad" {
		t.Errorf("窗口信息错误: %+v", result)
	}
	if result.Counts.Accessibility != 2 || len(result.Elements) != 2 {
		t.Errorf("元素数错误: %+v", result.Counts)
	}
	for i, e := range result.Elements {
		if e.ID != i+1 {
			t.Errorf("ID 不连续: %+v", result.Elements)
		}
	}
}

func TestFullPipeline(t *testing.T) {
	text := &fakeText{regions: []element.TextRegion{
		{Text: "OK", Bounds: element.NewRect(130, 254, 20, 16), Confidence: 0.9, Granularity: element.GranularityWord},
		{Text: "Cancel", Bounds: element.NewRect(200, 254, 60, 16), Confidence: 0.9, Granularity: element.GranularityWord},
	}}
	visual := &fakeVisual{available: true, out: []element.VisualElement{
		{Type: "icon", Bounds: element.NewRect(350, 110, 20, 20), Confidence: 0.9},
	}}
	p := New(uia.NewDetector(dialog()), WithTextDetector(text), WithVisualDetector(visual))

	path := writePNG(t, 400, 300)
	result, err := p.DetectFile(context.Background(), Request{WindowTitle: "Save As", ScreenshotPath: path})
	if err != nil {
		t.Fatalf("检测失败: %v", err)
	}
	if result.Mode != element.ModeFull {
		t.Errorf("Mode = %s", result.Mode)
	}
	want := element.Counts{Accessibility: 2, Ocr: 2, PixelAnalysis: 1, Fused: 4, Synthetic: 2}
	if result.Counts != want {
		t.Errorf("Counts = %+v, 期望 %+v", result.Counts, want)
	}
	if len(visual.paths) != 1 || visual.paths[0] != path {
		t.Errorf("像素分析应直接使用截图文件: %v", visual.paths)
	}

	var ok, cancel *element.DetectedElement
	for i := range result.Elements {
		switch result.Elements[i].Name {
		case "OK":
			ok = &result.Elements[i]
		case "Cancel":
			cancel = &result.Elements[i]
		}
	}
	if ok == nil || ok.Sources != element.SourceAccessibility|element.SourceOcr {
		t.Errorf("OK 应被 OCR 确认: %+v", ok)
	}
	if cancel == nil || cancel.Type != element.TypeButton || cancel.Sources != element.SourceOcr {
		t.Errorf("Cancel 应合成为按钮: %+v", cancel)
	}
}

func TestDetectBytesUsesTemporaryFile(t *testing.T) {
	visual := &fakeVisual{available: true}
	p := New(uia.NewDetector(dialog()), WithVisualDetector(visual))

	result, err := p.DetectBytes(context.Background(), Request{WindowHandle: 2}, whitePNG(t, 50, 50))
	if err != nil {
		t.Fatalf("检测失败: %v", err)
	}
	if result.Mode != element.ModeFull {
		t.Errorf("Mode = %s", result.Mode)
	}
	if len(visual.paths) != 1 || !visual.existed {
		t.Fatalf("像素分析应收到存在的临时文件: %v", visual.paths)
	}
	if _, err := os.Stat(visual.paths[0]); !os.IsNotExist(err) {
		t.Errorf("临时文件应在返回前删除: %v", err)
	}
}

func TestUnavailableVisualSkipped(t *testing.T) {
	visual := &fakeVisual{available: false}
	p := New(uia.NewDetector(dialog()), WithVisualDetector(visual))

	if _, err := p.DetectBytes(context.Background(), Request{WindowHandle: 2}, whitePNG(t, 20, 20)); err != nil {
		t.Fatalf("检测失败: %v", err)
	}
	if len(visual.paths) != 0 {
		t.Error("不可用的像素分析不应被调用")
	}
}

func TestDecodeErrors(t *testing.T) {
	p := New(uia.NewDetector(dialog()))

	if _, err := p.DetectBytes(context.Background(), Request{}, []byte("not an image")); !errors.Is(err, ErrDecodeScreenshot) {
		t.Errorf("损坏的截图应返回 ErrDecodeScreenshot: %v", err)
	}
	if _, err := p.DetectBytes(context.Background(), Request{}, nil); !errors.Is(err, ErrDecodeScreenshot) {
		t.Errorf("空数据应返回 ErrDecodeScreenshot: %v", err)
	}
	missing := filepath.Join(t.TempDir(), "missing.png")
	if _, err := p.DetectFile(context.Background(), Request{ScreenshotPath: missing}); !errors.Is(err, ErrDecodeScreenshot) {
		t.Errorf("不存在的截图应返回 ErrDecodeScreenshot: %v", err)
	}
}

func TestHandleWinsOverTitle(t *testing.T) {
	backend := dialog()
	p := New(uia.NewDetector(backend))

	result, err := p.DetectFile(context.Background(), Request{WindowHandle: 2, WindowTitle: "Notepad"})
	if err != nil {
		t.Fatalf("检测失败: %v", err)
	}
	if backend.rootHandle != 2 || result.WindowHandle != 2 {
		t.Errorf("应使用句柄 2, 实际 %d", backend.rootHandle)
	}
	if result.WindowTitle != "Save As" {
		t.Errorf("应从窗口列表补全标题: %q", result.WindowTitle)
	}
}

func TestWindowNotFound(t *testing.T) {
	text := &fakeText{regions: []element.TextRegion{
		{Text: "Play", Bounds: element.NewRect(10, 10, 40, 16), Confidence: 0.9, Granularity: element.GranularityWord},
	}}
	p := New(uia.NewDetector(dialog()), WithTextDetector(text))

	result, err := p.DetectBytes(context.Background(), Request{WindowTitle: "no such window"}, whitePNG(t, 100, 100))
	if err != nil {
		t.Fatalf("找不到窗口不应返回错误: %v", err)
	}
	if result.Counts.Accessibility != 0 || result.WindowHandle != 0 {
		t.Errorf("不应有无障碍元素: %+v", result.Counts)
	}
	// 无障碍树不可用时 OCR 仍能合成元素
	if len(result.Elements) != 1 || result.Elements[0].Name != "Play" {
		t.Errorf("应合成 OCR 元素: %+v", result.Elements)
	}
}

func TestFrameMapsImageTiers(t *testing.T) {
	text := &fakeText{regions: []element.TextRegion{
		{Text: "Go", Bounds: element.NewRect(40, 20, 40, 20), Confidence: 0.9, Granularity: element.GranularityWord},
	}}
	p := New(uia.NewDetector(dialog()), WithTextDetector(text))

	req := Request{Frame: element.Frame{OffsetX: 100, OffsetY: 100, ScaleX: 2, ScaleY: 2}}
	result, err := p.DetectBytes(context.Background(), req, whitePNG(t, 200, 200))
	if err != nil {
		t.Fatalf("检测失败: %v", err)
	}
	if len(result.Elements) != 1 {
		t.Fatalf("元素数 = %d", len(result.Elements))
	}
	// 像素 (40,20,40,20) → 屏幕 (120,110,20,10)，再加合成填充
	want := element.NewRect(120, 110, 20, 10).Expand(8, 4)
	if got := result.Elements[0].Bounds; got != want {
		t.Errorf("边界 = %+v, 期望 %+v", got, want)
	}
}

func TestAnnotationOutputs(t *testing.T) {
	p := New(uia.NewDetector(dialog()))
	out := filepath.Join(t.TempDir(), "annotated.png")

	data := whitePNG(t, 400, 400)
	result, err := p.DetectBytes(context.Background(), Request{WindowHandle: 2, AnnotatePath: out, Annotate: true}, data)
	if err != nil {
		t.Fatalf("检测失败: %v", err)
	}
	if result.AnnotatedPath != out {
		t.Errorf("AnnotatedPath = %q", result.AnnotatedPath)
	}
	if len(result.AnnotatedPNG) == 0 {
		t.Error("应返回标注图数据")
	}
	if _, err := imageutil.Load(out); err != nil {
		t.Errorf("标注图无法读取: %v", err)
	}
}

func TestCaptureScreen(t *testing.T) {
	var captured uia.Window
	capture := func(w uia.Window) (*screen.Capture, error) {
		captured = w
		img, _ := imageutil.Decode(whitePNG(t, 300, 200))
		return &screen.Capture{Image: img, Frame: element.FrameFor(img.Bounds(), w.Bounds)}, nil
	}
	text := &fakeText{}
	p := New(uia.NewDetector(dialog()), WithTextDetector(text), WithCapture(capture))

	result, err := p.DetectFile(context.Background(), Request{WindowTitle: "Save As", CaptureScreen: true})
	if err != nil {
		t.Fatalf("检测失败: %v", err)
	}
	if captured.Handle != 2 {
		t.Errorf("应截取目标窗口: %+v", captured)
	}
	if result.Mode != element.ModeFull || text.calls != 1 {
		t.Errorf("截图后应运行 OCR: mode=%s calls=%d", result.Mode, text.calls)
	}

	failing := New(uia.NewDetector(dialog()), WithCapture(func(uia.Window) (*screen.Capture, error) {
		return nil, errors.New("no display")
	}))
	result, err = failing.DetectFile(context.Background(), Request{WindowTitle: "Save As", CaptureScreen: true})
	if err != nil || result.Mode != element.ModeAccessibilityOnly {
		t.Errorf("截图失败应退化为仅无障碍树: %v, %+v", err, result)
	}
}

func TestFindElementAndClose(t *testing.T) {
	backend := dialog()
	text := &fakeText{}
	p := New(uia.NewDetector(backend), WithTextDetector(text))

	result, err := p.DetectFile(context.Background(), Request{WindowHandle: 2})
	if err != nil {
		t.Fatalf("检测失败: %v", err)
	}
	e, ok := p.FindElement(result, 2)
	if !ok || e.Name != "OK" {
		t.Errorf("FindElement(2) = %+v, %v", e, ok)
	}
	if _, ok := p.FindElement(result, 99); ok {
		t.Error("不存在的 ID 不应找到")
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}
	if !backend.closed || !text.closed {
		t.Error("Close 应释放无障碍后端和 OCR")
	}
}
