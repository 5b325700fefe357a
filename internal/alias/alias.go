// Package alias classifies directory entries and resolves shortcut objects
// (symlinks, and Finder alias files on macOS) to their original targets.
package alias

import (
	"fmt"
	"os"
	"path/filepath"
)

// Kind classifies a directory entry.
type Kind int

const (
	File Kind = iota
	Directory
	Shortcut
	Other // sockets, devices, pipes — never copied
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "directory"
	case Shortcut:
		return "shortcut"
	default:
		return "other"
	}
}

// Classify probes path without following links. Symlinks always classify as
// Shortcut; on macOS, Finder alias files do too.
func Classify(path string) (Kind, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Other, fmt.Errorf("lstat %s: %w", path, err)
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return Shortcut, nil
	case mode.IsDir():
		return Directory, nil
	case mode.IsRegular():
		if isPlatformAlias(path, info) {
			return Shortcut, nil
		}
		return File, nil
	default:
		return Other, nil
	}
}

// Resolver resolves a shortcut to the absolute path of its original target.
// Implementations must verify the target exists; a dangling shortcut is an
// error, never an empty path.
type Resolver interface {
	ResolveOriginal(shortcutPath string) (string, error)
}

// OSResolver resolves shortcuts using the operating system: symlinks via
// readlink, plus the platform's own alias mechanism where one exists.
type OSResolver struct{}

// NewOSResolver returns the default platform resolver.
func NewOSResolver() *OSResolver {
	return &OSResolver{}
}

// ResolveOriginal returns the canonical absolute path of the shortcut's
// target, following chained shortcuts to the end.
func (r *OSResolver) ResolveOriginal(shortcutPath string) (string, error) {
	info, err := os.Lstat(shortcutPath)
	if err != nil {
		return "", fmt.Errorf("lstat %s: %w", shortcutPath, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return resolveSymlink(shortcutPath)
	}
	if isPlatformAlias(shortcutPath, info) {
		return resolvePlatformAlias(shortcutPath)
	}
	return "", fmt.Errorf("%s is not a shortcut", shortcutPath)
}

func resolveSymlink(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", fmt.Errorf("readlink %s: %w", path, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}

	// Canonicalize and follow chains; fails if the target is dangling.
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return "", fmt.Errorf("resolve %s -> %s: %w", path, target, err)
	}
	return resolved, nil
}
