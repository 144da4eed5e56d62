package annotate

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/zoeyai/elementmap/pkg/element"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestColorCycles(t *testing.T) {
	r := New()
	n := len(DefaultPalette)
	if r.Color(1) != DefaultPalette[0] {
		t.Errorf("id 1 应使用第一个颜色")
	}
	if r.Color(n+2) != DefaultPalette[1] {
		t.Errorf("id %d 应循环回第二个颜色", n+2)
	}
	if r.Color(n) != DefaultPalette[n-1] {
		t.Errorf("id %d 应使用最后一个颜色", n)
	}
}

func TestRenderDrawsBoxAndChip(t *testing.T) {
	src := whiteImage(200, 100)
	elements := []element.DetectedElement{{ID: 1, Type: element.TypeButton, Bounds: element.NewRect(10, 10, 50, 30)}}

	out := New().Render(src, elements, element.Frame{})
	want := DefaultPalette[0]

	// 下边框
	if got := rgbaAt(out, 30, 39); got != want {
		t.Errorf("下边框颜色 = %v, 期望 %v", got, want)
	}
	// 标签右下角（basicfont 7x13，单个数字）
	if got := rgbaAt(out, 20, 26); got != want {
		t.Errorf("标签底色 = %v, 期望 %v", got, want)
	}
	// 框内其他区域保持原样
	if got := rgbaAt(out, 40, 30); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("框内颜色被修改: %v", got)
	}
	// 原图不变
	if src.RGBAAt(30, 39) != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Error("Render 不应修改原图")
	}
}

func TestRenderAppliesFrame(t *testing.T) {
	src := whiteImage(100, 100)
	elements := []element.DetectedElement{{ID: 2, Bounds: element.NewRect(5, 5, 20, 10)}}

	// 2x 截图：屏幕 (5,5,20,10) 对应像素 (10,10)-(50,30)
	out := New().Render(src, elements, element.Frame{ScaleX: 2, ScaleY: 2})
	want := DefaultPalette[1]
	if got := rgbaAt(out, 49, 20); got != want {
		t.Errorf("右边框颜色 = %v, 期望 %v", got, want)
	}
	if got := rgbaAt(out, 60, 20); got == want {
		t.Error("框外不应绘制")
	}
}

func TestRenderSkipsOutsideElements(t *testing.T) {
	src := whiteImage(50, 50)
	elements := []element.DetectedElement{{ID: 1, Bounds: element.NewRect(500, 500, 20, 20)}}
	out := New().Render(src, elements, element.Frame{})
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Error("图外元素不应改变图像")
	}
}

func TestRenderFileAndPNG(t *testing.T) {
	src := whiteImage(80, 60)
	elements := []element.DetectedElement{{ID: 1, Bounds: element.NewRect(0, 0, 30, 20)}}
	r := New(WithStrokeWidth(3), WithPalette([]color.RGBA{{R: 0, G: 0, B: 255, A: 255}}))

	data, err := r.RenderPNG(src, elements, element.Frame{})
	if err != nil {
		t.Fatalf("RenderPNG 失败: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("PNG 无法解码: %v", err)
	}
	if decoded.Bounds().Dx() != 80 {
		t.Errorf("尺寸错误: %v", decoded.Bounds())
	}

	path := filepath.Join(t.TempDir(), "annotated.png")
	if err := r.RenderFile(src, elements, element.Frame{}, path); err != nil {
		t.Fatalf("RenderFile 失败: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("标注文件未写入: %v", err)
	}
}

func TestFontOptions(t *testing.T) {
	if New().opts.Face != basicfont.Face7x13 {
		t.Error("默认应使用 basicfont")
	}
	if New(WithFontFile(filepath.Join(t.TempDir(), "none.ttf"), 14)).opts.Face != basicfont.Face7x13 {
		t.Error("字体文件不存在时应回退到 basicfont")
	}
	if New(WithFontData([]byte("not a font"), 14)).opts.Face != basicfont.Face7x13 {
		t.Error("字体解析失败时应回退到 basicfont")
	}

	r := New(WithFontData(goregular.TTF, 16))
	if r.opts.Face == basicfont.Face7x13 {
		t.Fatal("应使用 TrueType 字体")
	}
	out := r.Render(whiteImage(120, 80), []element.DetectedElement{{ID: 42, Bounds: element.NewRect(10, 10, 80, 40)}}, element.Frame{})
	if rgbaAt(out, 11, 11) != DefaultPalette[1] {
		t.Errorf("TrueType 标签底色错误: %v", rgbaAt(out, 11, 11))
	}
}

func TestSummaryLine(t *testing.T) {
	tests := []struct {
		name string
		in   element.DetectedElement
		want string
	}{
		{
			name: "完整",
			in: element.DetectedElement{
				ID: 3, Type: element.TypeCheckBox, Name: "Remember me",
				Bounds: element.NewRect(10, 20, 100, 20), IsInteractable: true, State: "checked,focused",
			},
			want: `[3] CheckBox "Remember me" at (60,30) (clickable) (disabled) [checked,focused]`,
		},
		{
			name: "无名称可用",
			in: element.DetectedElement{
				ID: 1, Type: element.TypeButton, Bounds: element.NewRect(0, 0, 10, 10),
				IsEnabled: true, IsInteractable: true,
			},
			want: `[1] Button at (5,5) (clickable)`,
		},
		{
			name: "静态文本",
			in: element.DetectedElement{
				ID: 7, Type: element.TypeText, Name: "欢迎", Bounds: element.NewRect(100, 100, 41, 21), IsEnabled: true,
			},
			want: `[7] Text "欢迎" at (120,110)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SummaryLine(tt.in); got != tt.want {
				t.Errorf("SummaryLine =\n  %s\n期望\n  %s", got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	elements := []element.DetectedElement{
		{ID: 1, Type: "Button", Name: "OK", Bounds: element.NewRect(0, 0, 20, 20), IsEnabled: true},
		{ID: 2, Type: "Text", Bounds: element.NewRect(0, 40, 20, 20), IsEnabled: true},
	}
	want := "[1] Button \"OK\" at (10,10)\n[2] Text at (10,50)"
	if got := Summary(elements); got != want {
		t.Errorf("Summary = %q", got)
	}
	if Summary(nil) != "" {
		t.Error("空列表应返回空字符串")
	}
}
