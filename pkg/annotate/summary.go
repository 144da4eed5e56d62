package annotate

import (
	"fmt"
	"strings"

	"github.com/zoeyai/elementmap/pkg/element"
)

// SummaryLine 单个元素的摘要：
//
//	[id] Type "name" at (cx,cy) (clickable) (disabled) [state]
//
// 空的部分省略。
func SummaryLine(e element.DetectedElement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", e.ID, e.Type)
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	c := e.Bounds.Center()
	fmt.Fprintf(&b, " at (%d,%d)", c.X, c.Y)
	if e.IsInteractable {
		b.WriteString(" (clickable)")
	}
	if !e.IsEnabled {
		b.WriteString(" (disabled)")
	}
	if e.State != "" {
		fmt.Fprintf(&b, " [%s]", e.State)
	}
	return b.String()
}

// Summary 所有元素的摘要，每行一个
func Summary(elements []element.DetectedElement) string {
	lines := make([]string, len(elements))
	for i, e := range elements {
		lines[i] = SummaryLine(e)
	}
	return strings.Join(lines, "\n")
}
