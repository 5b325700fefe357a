// Package resolver materializes a fully-dereferenced copy of a directory
// tree: every shortcut entry is replaced by a copy of its original target.
package resolver

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flatzip/flatzip/internal/alias"
	"github.com/flatzip/flatzip/internal/event"
	"github.com/flatzip/flatzip/internal/platform"
	"github.com/flatzip/flatzip/internal/stats"
)

// Options configures a Resolver.
type Options struct {
	// Aliases resolves shortcut entries. Defaults to the OS resolver.
	Aliases alias.Resolver
	// SkipBroken downgrades unresolvable shortcuts from a fatal
	// ResolutionError to a logged, counted skip.
	SkipBroken bool
	// Events receives progress events; may be nil.
	Events chan<- event.Event
	// Stats receives counters; may be nil.
	Stats stats.Writer
	// Logger for diagnostics; defaults to slog.Default().
	Logger *slog.Logger
}

// Resolver performs one synchronous, depth-first resolution run. Not safe
// for concurrent use; create one per run.
type Resolver struct {
	opts    Options
	dstRoot string
	// Canonical paths of source directories on the active recursion path,
	// checked before every descent so cyclic shortcut graphs fail with a
	// CycleError instead of exhausting the stack.
	active map[string]struct{}
	// Destination-relative path -> origin absolute path for every
	// materialized file, in the order they were written.
	manifest map[string]string
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	if opts.Aliases == nil {
		opts.Aliases = alias.NewOSResolver()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Resolver{
		opts:     opts,
		active:   make(map[string]struct{}),
		manifest: make(map[string]string),
	}
}

// Resolve materializes srcDir into dstDir. On return dstDir exists and
// holds, for every entry of srcDir: ordinary files copied byte-for-byte,
// ordinary directories resolved recursively, shortcuts replaced by copies
// of their targets (files and directories alike). The first error aborts
// the run; no retries.
func (r *Resolver) Resolve(srcDir, dstDir string) error {
	r.dstRoot = dstDir

	event.Emit(r.opts.Events, event.Event{Type: event.ResolveStarted, Path: srcDir})

	err := r.resolveDir(srcDir, dstDir)

	event.Emit(r.opts.Events, event.Event{Type: event.ResolveComplete, Error: err})
	return err
}

// Manifest returns destination-relative paths of all materialized files
// mapped to the absolute origin path their bytes came from.
func (r *Resolver) Manifest() map[string]string {
	return r.manifest
}

func (r *Resolver) resolveDir(srcDir, dstDir string) error {
	canon, err := filepath.EvalSymlinks(srcDir)
	if err != nil {
		return &AccessError{Path: srcDir, Err: err}
	}
	if _, ok := r.active[canon]; ok {
		return &CycleError{Path: srcDir, Target: canon}
	}
	r.active[canon] = struct{}{}
	defer delete(r.active, canon)

	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return &WriteError{Path: dstDir, Err: err}
	}
	if dstDir != r.dstRoot {
		r.addDirsCreated(1)
		event.Emit(r.opts.Events, event.Event{Type: event.DirCreated, Path: r.rel(dstDir)})
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return &AccessError{Path: srcDir, Err: err}
	}

	for _, entry := range entries {
		srcPath := filepath.Join(srcDir, entry.Name())
		dstPath := filepath.Join(dstDir, entry.Name())

		kind, err := alias.Classify(srcPath)
		if err != nil {
			return &AccessError{Path: srcPath, Err: err}
		}

		switch kind {
		case alias.Directory:
			if err := r.resolveDir(srcPath, dstPath); err != nil {
				return err
			}

		case alias.Shortcut:
			if err := r.resolveShortcut(srcPath, dstPath); err != nil {
				return err
			}

		case alias.File:
			if err := r.copyFile(srcPath, dstPath); err != nil {
				return err
			}

		default:
			// Sockets, devices, pipes have no meaningful copy.
			r.opts.Logger.Debug("entry ignored", "path", srcPath, "kind", kind.String())
		}
	}

	return nil
}

func (r *Resolver) resolveShortcut(srcPath, dstPath string) error {
	target, err := r.opts.Aliases.ResolveOriginal(srcPath)
	if err != nil {
		return r.brokenShortcut(srcPath, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return r.brokenShortcut(srcPath, fmt.Errorf("target %s: %w", target, err))
	}

	switch {
	case info.IsDir():
		canon, cerr := filepath.EvalSymlinks(target)
		if cerr != nil {
			return r.brokenShortcut(srcPath, cerr)
		}
		if _, ok := r.active[canon]; ok {
			return &CycleError{Path: srcPath, Target: canon}
		}
		r.addAliasesResolved(1)
		event.Emit(r.opts.Events, event.Event{
			Type:   event.AliasResolved,
			Path:   r.rel(dstPath),
			Target: target,
		})
		// The target becomes the new source root for this subtree.
		return r.resolveDir(target, dstPath)

	case info.Mode().IsRegular():
		r.addAliasesResolved(1)
		event.Emit(r.opts.Events, event.Event{
			Type:   event.AliasResolved,
			Path:   r.rel(dstPath),
			Target: target,
		})
		return r.copyFile(target, dstPath)

	default:
		return r.brokenShortcut(srcPath, fmt.Errorf("target %s: unsupported type %s", target, info.Mode().Type()))
	}
}

// brokenShortcut applies the unresolvable-shortcut policy: fail the run
// unless SkipBroken was requested explicitly.
func (r *Resolver) brokenShortcut(srcPath string, cause error) error {
	if !r.opts.SkipBroken {
		return &ResolutionError{Path: srcPath, Err: cause}
	}

	r.opts.Logger.Warn("skipping broken shortcut", "path", srcPath, "error", cause)
	r.addAliasesSkipped(1)
	event.Emit(r.opts.Events, event.Event{
		Type:  event.AliasSkipped,
		Path:  srcPath,
		Error: cause,
	})
	return nil
}

func (r *Resolver) copyFile(src, dst string) error {
	result, err := platform.CopyFile(src, dst)
	if err != nil {
		// Distinguish unreadable source from unwritable destination.
		f, oerr := os.Open(src)
		if oerr != nil {
			return &AccessError{Path: src, Err: oerr}
		}
		f.Close()
		return &WriteError{Path: dst, Err: err}
	}

	rel := r.rel(dst)
	r.manifest[rel] = src

	r.addFilesCopied(1)
	r.addBytesCopied(result.BytesWritten)
	event.Emit(r.opts.Events, event.Event{
		Type: event.FileCopied,
		Path: rel,
		Size: result.BytesWritten,
	})
	return nil
}

func (r *Resolver) rel(path string) string {
	rel, err := filepath.Rel(r.dstRoot, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (r *Resolver) addFilesCopied(n int64) {
	if r.opts.Stats != nil {
		r.opts.Stats.AddFilesCopied(n)
	}
}

func (r *Resolver) addBytesCopied(n int64) {
	if r.opts.Stats != nil {
		r.opts.Stats.AddBytesCopied(n)
	}
}

func (r *Resolver) addDirsCreated(n int64) {
	if r.opts.Stats != nil {
		r.opts.Stats.AddDirsCreated(n)
	}
}

func (r *Resolver) addAliasesResolved(n int64) {
	if r.opts.Stats != nil {
		r.opts.Stats.AddAliasesResolved(n)
	}
}

func (r *Resolver) addAliasesSkipped(n int64) {
	if r.opts.Stats != nil {
		r.opts.Stats.AddAliasesSkipped(n)
	}
}
