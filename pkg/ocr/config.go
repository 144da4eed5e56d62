package ocr

import (
	"os"
	"path/filepath"
	"runtime"
)

// 引擎名称
const (
	EnginePaddle    = "paddle"
	EngineTesseract = "tesseract"
)

// Config OCR 配置
type Config struct {
	// Engine 引擎 paddle 或 tesseract
	Engine string
	// OnnxRuntimeLibPath ONNX Runtime 动态库路径
	OnnxRuntimeLibPath string
	// DetModelPath 检测模型路径
	DetModelPath string
	// RecModelPath 识别模型路径
	RecModelPath string
	// DictPath 字典文件路径
	DictPath string
	// Languages tesseract 语言，如 eng、chi_sim
	Languages []string
	// TessdataPrefix tesseract 语言数据目录，为空时使用系统默认
	TessdataPrefix string
}

// DefaultConfig 默认配置，模型文件按打包目录、可执行文件目录、工作目录依次查找
func DefaultConfig() Config {
	return Config{
		Engine:             EnginePaddle,
		OnnxRuntimeLibPath: defaultOnnxRuntimePath(),
		DetModelPath:       defaultModelPath("det.onnx"),
		RecModelPath:       defaultModelPath("rec.onnx"),
		DictPath:           defaultModelPath("dict.txt"),
		Languages:          []string{"eng"},
	}
}

// ModelsPresent 检查 paddle 所需文件是否都存在
func (c Config) ModelsPresent() bool {
	return fileExists(c.OnnxRuntimeLibPath) &&
		fileExists(c.DetModelPath) &&
		fileExists(c.RecModelPath) &&
		fileExists(c.DictPath)
}

// ==================== 内部函数 ====================

// executableDir 获取可执行文件所在目录
func executableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "."
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return "."
	}
	return filepath.Dir(execPath)
}

// resourcesDir 获取资源目录，macOS .app bundle 下为 Contents/Resources
func resourcesDir() string {
	execDir := executableDir()
	if runtime.GOOS == "darwin" {
		dir := filepath.Join(execDir, "..", "Resources")
		if fileExists(dir) {
			return dir
		}
	}
	return execDir
}

// defaultOnnxRuntimePath 按平台查找 ONNX Runtime 动态库
func defaultOnnxRuntimePath() string {
	execDir := executableDir()
	resDir := resourcesDir()

	var paths []string
	switch runtime.GOOS {
	case "darwin":
		frameworksDir := filepath.Join(execDir, "..", "Frameworks")
		paths = []string{
			filepath.Join(frameworksDir, "libonnxruntime.dylib"),
			filepath.Join(execDir, "libonnxruntime.dylib"),
			filepath.Join(resDir, "lib", "onnxruntime_arm64.dylib"),
			filepath.Join(resDir, "lib", "onnxruntime_amd64.dylib"),
			"models/lib/onnxruntime_arm64.dylib",
			"models/lib/onnxruntime_amd64.dylib",
		}
	case "windows":
		paths = []string{
			filepath.Join(execDir, "onnxruntime.dll"),
			filepath.Join(resDir, "onnxruntime.dll"),
			"models/lib/onnxruntime.dll",
			"onnxruntime.dll",
		}
	default:
		paths = []string{
			filepath.Join(execDir, "libonnxruntime.so"),
			filepath.Join(resDir, "lib", "onnxruntime_"+runtime.GOARCH+".so"),
			"models/lib/onnxruntime_" + runtime.GOARCH + ".so",
			"./lib/onnxruntime.so",
		}
	}

	for _, p := range paths {
		if fileExists(p) {
			return p
		}
	}
	return paths[len(paths)-1]
}

// defaultModelPath 查找模型文件
func defaultModelPath(filename string) string {
	execDir := executableDir()
	resDir := resourcesDir()

	paths := []string{
		filepath.Join(resDir, "models", "paddle_weights", filename),
		filepath.Join(execDir, "models", "paddle_weights", filename),
		filepath.Join("models", "paddle_weights", filename),
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".elementmap", "models", "paddle_weights", filename))
	}

	for _, p := range paths {
		if fileExists(p) {
			return p
		}
	}
	return paths[0]
}

// fileExists 检查文件是否存在
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
