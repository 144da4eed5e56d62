// elementmap 定位桌面窗口中的可交互元素：无障碍树 + OCR + 像素分析融合
package main

import (
	"os"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
