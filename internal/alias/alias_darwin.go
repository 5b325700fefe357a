//go:build darwin

package alias

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Finder alias files begin with a bookmark data header.
var bookmarkMagic = []byte("book\x00\x00\x00\x00mark\x88\x00\x00\x00")

// isPlatformAlias reports whether path is a Finder alias file. Only regular
// files large enough to hold the bookmark header are probed.
func isPlatformAlias(path string, info os.FileInfo) bool {
	if !info.Mode().IsRegular() || info.Size() < int64(len(bookmarkMagic)) {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	// A short read (truncated file) is not an alias, not an error.
	header := make([]byte, len(bookmarkMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.Equal(header, bookmarkMagic)
}

// resolvePlatformAlias asks Finder for the alias's original item.
func resolvePlatformAlias(path string) (string, error) {
	script := fmt.Sprintf(
		`tell application "Finder" to get POSIX path of ((original item of (POSIX file %q as alias)) as alias)`,
		path,
	)
	out, err := exec.Command("osascript", "-e", script).Output()
	if err != nil {
		return "", fmt.Errorf("resolve alias %s: %w", path, err)
	}

	target := strings.TrimRight(string(out), "\n")
	target = strings.TrimSuffix(target, "/")
	if target == "" {
		return "", fmt.Errorf("resolve alias %s: empty original item", path)
	}

	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return "", fmt.Errorf("resolve alias %s -> %s: %w", path, target, err)
	}
	return resolved, nil
}
