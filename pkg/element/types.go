package element

import (
	"strings"
	"time"
)

// Source 元素来源位集合
type Source uint8

const (
	// SourceAccessibility 无障碍树（第一层）
	SourceAccessibility Source = 1 << iota
	// SourceOcr 文字识别（第二层）
	SourceOcr
	// SourcePixelAnalysis 像素分析（第三层）
	SourcePixelAnalysis
)

// Has 判断是否包含指定来源
func (s Source) Has(other Source) bool {
	return s&other == other && other != 0
}

// String 返回 "Accessibility|Ocr" 形式的名称
func (s Source) String() string {
	if s == 0 {
		return "None"
	}
	var parts []string
	if s.Has(SourceAccessibility) {
		parts = append(parts, "Accessibility")
	}
	if s.Has(SourceOcr) {
		parts = append(parts, "Ocr")
	}
	if s.Has(SourcePixelAnalysis) {
		parts = append(parts, "PixelAnalysis")
	}
	return strings.Join(parts, "|")
}

// MarshalText 序列化为可读名称
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 从 "Accessibility|Ocr" 形式解析
func (s *Source) UnmarshalText(text []byte) error {
	var out Source
	for _, part := range strings.Split(string(text), "|") {
		switch strings.TrimSpace(part) {
		case "Accessibility":
			out |= SourceAccessibility
		case "Ocr":
			out |= SourceOcr
		case "PixelAnalysis":
			out |= SourcePixelAnalysis
		}
	}
	*s = out
	return nil
}

// 常用元素类型
const (
	TypeButton   = "Button"
	TypeCheckBox = "CheckBox"
	TypeTextBox  = "TextBox"
	TypeMenuItem = "MenuItem"
	TypeText     = "Text"
)

// DetectedElement 融合后的界面元素
type DetectedElement struct {
	// ID 融合后分配，1..N 连续
	ID   int    `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Bounds 屏幕坐标
	Bounds BoundingRect `json:"bounds" yaml:"bounds"`
	// StableID 无障碍 AutomationId，可能为空
	StableID       string `json:"stable_id,omitempty" yaml:"stable_id,omitempty"`
	ClassName      string `json:"class_name,omitempty" yaml:"class_name,omitempty"`
	IsEnabled      bool   `json:"is_enabled" yaml:"is_enabled"`
	IsInteractable bool   `json:"is_interactable" yaml:"is_interactable"`
	// State 逗号分隔的状态：checked/selected/expanded/focused 等
	State      string  `json:"state,omitempty" yaml:"state,omitempty"`
	Sources    Source  `json:"sources" yaml:"sources"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// IsSynthetic 非无障碍树产生的元素
func (e DetectedElement) IsSynthetic() bool {
	return !e.Sources.Has(SourceAccessibility)
}

// Granularity OCR 区域粒度
type Granularity string

const (
	GranularityWord Granularity = "word"
	GranularityLine Granularity = "line"
)

// TextRegion OCR 识别出的文本区域
type TextRegion struct {
	Text        string       `json:"text" yaml:"text"`
	Bounds      BoundingRect `json:"bounds" yaml:"bounds"`
	Confidence  float64      `json:"confidence" yaml:"confidence"`
	Granularity Granularity  `json:"granularity" yaml:"granularity"`
}

// VisualElement 像素分析检测出的元素
type VisualElement struct {
	Type       string       `json:"type" yaml:"type"`
	Bounds     BoundingRect `json:"bounds" yaml:"bounds"`
	Confidence float64      `json:"confidence" yaml:"confidence"`
}

// Mode 检测模式
type Mode string

const (
	// ModeFull 三层检测
	ModeFull Mode = "full"
	// ModeAccessibilityOnly 无截图时仅使用无障碍树
	ModeAccessibilityOnly Mode = "uia-only"
)

// Counts 各层检测数量
type Counts struct {
	Accessibility int `json:"accessibility" yaml:"accessibility"`
	Ocr           int `json:"ocr" yaml:"ocr"`
	PixelAnalysis int `json:"pixel_analysis" yaml:"pixel_analysis"`
	Fused         int `json:"fused" yaml:"fused"`
	Synthetic     int `json:"synthetic" yaml:"synthetic"`
}

// Timings 各阶段耗时
type Timings struct {
	Accessibility time.Duration `json:"accessibility" yaml:"accessibility"`
	Ocr           time.Duration `json:"ocr" yaml:"ocr"`
	PixelAnalysis time.Duration `json:"pixel_analysis" yaml:"pixel_analysis"`
	Fusion        time.Duration `json:"fusion" yaml:"fusion"`
	Annotation    time.Duration `json:"annotation" yaml:"annotation"`
}

// DetectionResult 一次检测调用的结果，不做持久化
type DetectionResult struct {
	WindowTitle   string            `json:"window_title,omitempty" yaml:"window_title,omitempty"`
	WindowHandle  int               `json:"window_handle,omitempty" yaml:"window_handle,omitempty"`
	WindowProcess string            `json:"window_process,omitempty" yaml:"window_process,omitempty"`
	Mode          Mode              `json:"mode" yaml:"mode"`
	Elements      []DetectedElement `json:"elements" yaml:"elements"`
	Counts        Counts            `json:"counts" yaml:"counts"`
	Timings       Timings           `json:"timings" yaml:"timings"`
	Elapsed       time.Duration     `json:"elapsed" yaml:"elapsed"`
	AnnotatedPath string            `json:"annotated_path,omitempty" yaml:"annotated_path,omitempty"`
	// AnnotatedPNG 内存接口返回的标注图，不参与序列化
	AnnotatedPNG []byte `json:"-" yaml:"-"`
}

// Find 按 ID 查找元素
func (r *DetectionResult) Find(id int) (*DetectedElement, bool) {
	if r == nil || id < 1 {
		return nil, false
	}
	// ID 连续时可直接索引
	if id <= len(r.Elements) && r.Elements[id-1].ID == id {
		return &r.Elements[id-1], true
	}
	for i := range r.Elements {
		if r.Elements[i].ID == id {
			return &r.Elements[i], true
		}
	}
	return nil, false
}
