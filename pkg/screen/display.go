package screen

import "github.com/zoeyai/elementmap/pkg/element"

// displayRects 读取 n 个显示器的范围，跳过空矩形
func displayRects(n int, bounds func(i int) (x, y, w, h int)) []element.BoundingRect {
	var out []element.BoundingRect
	for i := 0; i < n; i++ {
		x, y, w, h := bounds(i)
		if r := element.NewRect(x, y, w, h); !r.IsEmpty() {
			out = append(out, r)
		}
	}
	return out
}

// virtualBounds 所有显示器的外接矩形
func virtualBounds(displays []element.BoundingRect) element.BoundingRect {
	var out element.BoundingRect
	for _, d := range displays {
		out = out.Union(d)
	}
	return out
}
