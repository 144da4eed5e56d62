package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// 像素分析后端
const (
	PixelBackendScript  = "script"
	PixelBackendContour = "contour"
	PixelBackendNone    = "none"
)

// Config 检测配置
type Config struct {
	Detection DetectionConfig `json:"detection" yaml:"detection"`
	OCR       OCRConfig       `json:"ocr" yaml:"ocr"`
	Pixel     PixelConfig     `json:"pixel" yaml:"pixel"`
	Annotate  AnnotateConfig  `json:"annotate" yaml:"annotate"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// DetectionConfig 无障碍树遍历配置
type DetectionConfig struct {
	MaxDepth int `json:"max_depth" yaml:"max_depth"`
	// ScreenBounds 按主屏范围过滤屏幕外元素
	ScreenBounds bool `json:"screen_bounds" yaml:"screen_bounds"`
}

// OCRConfig OCR 配置，路径为空时使用默认查找规则
type OCRConfig struct {
	Engine             string   `json:"engine" yaml:"engine"`
	OnnxRuntimeLibPath string   `json:"onnxruntime_lib_path,omitempty" yaml:"onnxruntime_lib_path,omitempty"`
	DetModelPath       string   `json:"det_model_path,omitempty" yaml:"det_model_path,omitempty"`
	RecModelPath       string   `json:"rec_model_path,omitempty" yaml:"rec_model_path,omitempty"`
	DictPath           string   `json:"dict_path,omitempty" yaml:"dict_path,omitempty"`
	Languages          []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	TessdataPrefix     string   `json:"tessdata_prefix,omitempty" yaml:"tessdata_prefix,omitempty"`
}

// PixelConfig 像素分析配置
type PixelConfig struct {
	Backend   string  `json:"backend" yaml:"backend"`
	Script    string  `json:"script,omitempty" yaml:"script,omitempty"`
	Python    string  `json:"python,omitempty" yaml:"python,omitempty"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// TimeoutMs 脚本超时（毫秒）
	TimeoutMs int           `json:"timeout_ms" yaml:"timeout_ms"`
	Contour   ContourConfig `json:"contour" yaml:"contour"`
}

// ContourConfig 轮廓后端参数
type ContourConfig struct {
	CannyLow     float64 `json:"canny_low" yaml:"canny_low"`
	CannyHigh    float64 `json:"canny_high" yaml:"canny_high"`
	MinArea      int     `json:"min_area" yaml:"min_area"`
	MaxAreaRatio float64 `json:"max_area_ratio" yaml:"max_area_ratio"`
	MaxAspect    float64 `json:"max_aspect" yaml:"max_aspect"`
}

// AnnotateConfig 标注图配置
type AnnotateConfig struct {
	FontFile    string  `json:"font_file,omitempty" yaml:"font_file,omitempty"`
	FontSize    float64 `json:"font_size" yaml:"font_size"`
	StrokeWidth int     `json:"stroke_width" yaml:"stroke_width"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Detection: DetectionConfig{
			MaxDepth:     15,
			ScreenBounds: true,
		},
		OCR: OCRConfig{
			Engine: "paddle",
		},
		Pixel: PixelConfig{
			Backend:   PixelBackendScript,
			Threshold: 0.3,
			TimeoutMs: 30000,
			Contour: ContourConfig{
				CannyLow:     50,
				CannyHigh:    150,
				MinArea:      200,
				MaxAreaRatio: 0.25,
				MaxAspect:    15,
			},
		},
		Annotate: AnnotateConfig{
			FontSize:    14,
			StrokeWidth: 2,
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}

// Validate 修正越界的数值，未知的引擎或后端返回错误
func (c *Config) Validate() error {
	def := DefaultConfig()

	if c.Detection.MaxDepth <= 0 {
		c.Detection.MaxDepth = def.Detection.MaxDepth
	}
	if c.Detection.MaxDepth > 64 {
		c.Detection.MaxDepth = 64
	}

	switch strings.ToLower(c.OCR.Engine) {
	case "":
		c.OCR.Engine = def.OCR.Engine
	case "paddle", "tesseract":
		c.OCR.Engine = strings.ToLower(c.OCR.Engine)
	default:
		return fmt.Errorf("未知的 OCR 引擎: %s", c.OCR.Engine)
	}

	switch strings.ToLower(c.Pixel.Backend) {
	case "":
		c.Pixel.Backend = def.Pixel.Backend
	case PixelBackendScript, PixelBackendContour, PixelBackendNone:
		c.Pixel.Backend = strings.ToLower(c.Pixel.Backend)
	default:
		return fmt.Errorf("未知的像素分析后端: %s", c.Pixel.Backend)
	}
	if c.Pixel.Threshold < 0 || c.Pixel.Threshold > 1 {
		c.Pixel.Threshold = def.Pixel.Threshold
	}
	if c.Pixel.TimeoutMs <= 0 {
		c.Pixel.TimeoutMs = def.Pixel.TimeoutMs
	}

	ct := &c.Pixel.Contour
	if ct.CannyLow <= 0 || ct.CannyHigh <= ct.CannyLow {
		ct.CannyLow, ct.CannyHigh = def.Pixel.Contour.CannyLow, def.Pixel.Contour.CannyHigh
	}
	if ct.MinArea <= 0 {
		ct.MinArea = def.Pixel.Contour.MinArea
	}
	if ct.MaxAreaRatio <= 0 || ct.MaxAreaRatio > 1 {
		ct.MaxAreaRatio = def.Pixel.Contour.MaxAreaRatio
	}
	if ct.MaxAspect < 1 {
		ct.MaxAspect = def.Pixel.Contour.MaxAspect
	}

	if c.Annotate.FontSize <= 0 {
		c.Annotate.FontSize = def.Annotate.FontSize
	}
	if c.Annotate.StrokeWidth <= 0 {
		c.Annotate.StrokeWidth = def.Annotate.StrokeWidth
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	return nil
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器，配置文件为 ~/.elementmap/config.json
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewManagerWithDir(filepath.Join(homeDir, ".elementmap"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// NewManagerWithFile 使用指定文件创建配置管理器，.yaml/.yml 按 YAML 读写
func NewManagerWithFile(path string) *Manager {
	return &Manager{
		configDir:  filepath.Dir(path),
		configFile: path,
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置，文件不存在时返回默认配置
func (m *Manager) Load() (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 在默认值上解析，缺失字段保留默认
	config := DefaultConfig()
	if m.isYAML() {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("配置无效: %w", err)
	}
	return config, nil
}

// Save 保存配置
func (m *Manager) Save(config *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	var data []byte
	var err error
	if m.isYAML() {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

func (m *Manager) isYAML() bool {
	switch strings.ToLower(filepath.Ext(m.configFile)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*Config, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(config *Config) error {
	return defaultManager.Save(config)
}
