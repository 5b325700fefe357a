//go:build !darwin

package alias

import (
	"fmt"
	"os"
)

// Only symlinks count as shortcuts off macOS.
func isPlatformAlias(string, os.FileInfo) bool {
	return false
}

func resolvePlatformAlias(path string) (string, error) {
	return "", fmt.Errorf("resolve alias %s: platform aliases not supported on this OS", path)
}
