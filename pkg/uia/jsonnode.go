package uia

import (
	"errors"

	"github.com/zoeyai/elementmap/pkg/element"
)

// rectJSON 子进程输出的矩形
type rectJSON struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// jsonNode 子进程一次性输出的整棵树中的节点
//
// toggle: 0 关 1 开 2 不确定；expand: 0 折叠 1 展开 2 部分展开 3 叶子。
// 读取失败的节点只带 error 字段。
type jsonNode struct {
	Name         string      `json:"name"`
	AutomationID string      `json:"automation_id"`
	ClassName    string      `json:"class_name"`
	ControlType  string      `json:"control_type"`
	Rect         rectJSON    `json:"rect"`
	IsOffscreen  bool        `json:"is_offscreen"`
	IsEnabled    bool        `json:"is_enabled"`
	HasFocus     bool        `json:"has_focus"`
	Toggle       *int        `json:"toggle,omitempty"`
	Selected     *bool       `json:"selected,omitempty"`
	Expand       *int        `json:"expand,omitempty"`
	Error        string      `json:"error,omitempty"`
	KidsError    string      `json:"children_error,omitempty"`
	Kids         []*jsonNode `json:"children,omitempty"`
}

// Properties 实现 Node
func (n *jsonNode) Properties() (Properties, error) {
	if n.Error != "" {
		return Properties{}, errors.New(n.Error)
	}
	p := Properties{
		Name:             n.Name,
		AutomationID:     n.AutomationID,
		ClassName:        n.ClassName,
		ControlType:      n.ControlType,
		Bounds:           element.NewRect(n.Rect.X, n.Rect.Y, n.Rect.Width, n.Rect.Height),
		IsOffscreen:      n.IsOffscreen,
		IsEnabled:        n.IsEnabled,
		HasKeyboardFocus: n.HasFocus,
	}
	if n.Toggle != nil {
		switch *n.Toggle {
		case 0:
			p.Toggle = ToggleOff
		case 1:
			p.Toggle = ToggleOn
		case 2:
			p.Toggle = ToggleIndeterminate
		}
	}
	if n.Selected != nil {
		p.Selected = *n.Selected
	}
	if n.Expand != nil {
		switch *n.Expand {
		case 0:
			p.Expand = ExpandCollapsed
		case 1:
			p.Expand = ExpandExpanded
		case 2:
			p.Expand = ExpandPartial
		case 3:
			p.Expand = ExpandLeaf
		}
	}
	return p, nil
}

// Children 实现 Node
func (n *jsonNode) Children() ([]Node, error) {
	if n.KidsError != "" {
		return nil, errors.New(n.KidsError)
	}
	out := make([]Node, 0, len(n.Kids))
	for _, k := range n.Kids {
		if k != nil {
			out = append(out, k)
		}
	}
	return out, nil
}
