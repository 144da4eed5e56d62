package uia

import (
	"strings"

	"github.com/zoeyai/elementmap/pkg/element"
)

// 无名称时也输出的控件类型
var emitTypes = map[string]bool{
	"Button":       true,
	"CheckBox":     true,
	"RadioButton":  true,
	"Edit":         true,
	"ComboBox":     true,
	"MenuItem":     true,
	"ListItem":     true,
	"TreeItem":     true,
	"TabItem":      true,
	"Slider":       true,
	"ScrollBar":    true,
	"Hyperlink":    true,
	"SplitButton":  true,
	"ToggleButton": true,
	"Spinner":      true,
}

// 可交互的控件类型（滚动条除外）
var interactableTypes = map[string]bool{
	"Button":       true,
	"CheckBox":     true,
	"RadioButton":  true,
	"Edit":         true,
	"ComboBox":     true,
	"MenuItem":     true,
	"ListItem":     true,
	"TreeItem":     true,
	"TabItem":      true,
	"Slider":       true,
	"Hyperlink":    true,
	"SplitButton":  true,
	"ToggleButton": true,
	"Spinner":      true,
}

// shouldEmit 有名称或稳定 ID，或属于交互控件类型
func shouldEmit(p Properties) bool {
	if p.Name != "" || p.AutomationID != "" {
		return true
	}
	return emitTypes[p.ControlType]
}

// isInteractable 判断控件类型是否可交互
func isInteractable(controlType string) bool {
	return interactableTypes[controlType]
}

// reportedType 对外输出的类型名
func reportedType(controlType string) string {
	if controlType == "Edit" {
		return element.TypeTextBox
	}
	return controlType
}

// stateString 从各模式状态生成逗号分隔的状态串
func stateString(p Properties) string {
	var parts []string
	switch p.Toggle {
	case ToggleOn:
		parts = append(parts, "checked")
	case ToggleIndeterminate:
		parts = append(parts, "indeterminate")
	}
	if p.Selected {
		parts = append(parts, "selected")
	}
	switch p.Expand {
	case ExpandExpanded, ExpandPartial:
		parts = append(parts, "expanded")
	case ExpandCollapsed:
		parts = append(parts, "collapsed")
	}
	if p.HasKeyboardFocus {
		parts = append(parts, "focused")
	}
	return strings.Join(parts, ",")
}

// toElement 节点属性转换为检测元素
func toElement(p Properties) element.DetectedElement {
	return element.DetectedElement{
		Type:           reportedType(p.ControlType),
		Name:           p.Name,
		Bounds:         p.Bounds,
		StableID:       p.AutomationID,
		ClassName:      p.ClassName,
		IsEnabled:      p.IsEnabled,
		IsInteractable: isInteractable(p.ControlType),
		State:          stateString(p),
		Sources:        element.SourceAccessibility,
		Confidence:     1.0,
	}
}
