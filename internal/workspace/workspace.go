// Package workspace owns the temporary directory the resolver writes into.
// Workspaces are tracked in a registry so an interrupted run can still
// remove whatever it left on disk.
package workspace

import (
	"fmt"
	"os"
	"sync"
)

var registry = &workspaceRegistry{}

type workspaceRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func (r *workspaceRegistry) add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[string]struct{})
	}
	r.paths[path] = struct{}{}
}

func (r *workspaceRegistry) remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

func (r *workspaceRegistry) drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	r.paths = nil
	return paths
}

// Create makes a fresh workspace directory under the system temp root and
// registers it for cleanup.
func Create() (string, error) {
	path, err := os.MkdirTemp("", "flatzip-*")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	registry.add(path)
	return path, nil
}

// Remove deletes the workspace tree and deregisters it. Removing a
// workspace twice is harmless.
func Remove(path string) error {
	registry.remove(path)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove workspace %s: %w", path, err)
	}
	return nil
}

// CleanupAll removes every workspace still registered. Called on signal
// paths where the normal deferred Remove never runs.
func CleanupAll() {
	for _, p := range registry.drain() {
		_ = os.RemoveAll(p)
	}
}
