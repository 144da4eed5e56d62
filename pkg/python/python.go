// Package python 提供 Python 环境检测功能
package python

import (
	"os/exec"
	"strings"
	"sync"

	"github.com/zoeyai/elementmap/pkg/cmdutil"
)

// PythonInfo Python 环境信息
type PythonInfo struct {
	Available bool   // Python 是否可用
	Version   string // 版本号，如 "3.11.5"
	Path      string // 可执行文件路径
}

var (
	detectOnce sync.Once
	detected   *PythonInfo
)

// Detect 返回缓存的检测结果，首次调用时检测
func Detect() *PythonInfo {
	detectOnce.Do(func() {
		detected = DetectPython()
	})
	return detected
}

// DetectPython 检测 Python 3 环境，python3 优先
func DetectPython() *PythonInfo {
	return detectFrom([]string{"python3", "python", "py"})
}

// detectFrom 按顺序尝试候选可执行文件，跳过 Python 2
func detectFrom(candidates []string) *PythonInfo {
	info := &PythonInfo{}

	for _, name := range candidates {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}

		version, err := getPythonVersion(path)
		if err != nil {
			continue
		}

		if strings.HasPrefix(version, "2.") {
			continue
		}

		info.Available = true
		info.Version = version
		info.Path = path
		return info
	}

	return info
}

// getPythonVersion 执行 python --version 获取版本号
func getPythonVersion(pythonPath string) (string, error) {
	cmd := exec.Command(pythonPath, "--version")
	cmdutil.HideWindow(cmd)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}

	line := strings.TrimSpace(string(output))
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 2 {
		return parts[1], nil
	}

	return line, nil
}
