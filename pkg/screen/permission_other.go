//go:build !darwin

package screen

// CheckPermission 非 macOS 平台无需授权
func CheckPermission() error {
	return nil
}

// OpenPermissionSettings 非 macOS 平台无操作
func OpenPermissionSettings() {}
