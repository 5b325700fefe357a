// Package app wires one flatzip run together: temp workspace, tree
// resolution, optional verification, archiving, cleanup.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/flatzip/flatzip/internal/alias"
	"github.com/flatzip/flatzip/internal/archive"
	"github.com/flatzip/flatzip/internal/event"
	"github.com/flatzip/flatzip/internal/filter"
	"github.com/flatzip/flatzip/internal/resolver"
	"github.com/flatzip/flatzip/internal/stats"
	"github.com/flatzip/flatzip/internal/workspace"
)

// Config describes one run. All paths are explicit; nothing is read from
// ambient process state.
type Config struct {
	// SourceDir is the folder to resolve and package.
	SourceDir string
	// ArchivePath is where the ZIP is written.
	ArchivePath string
	// Excludes are user glob patterns, applied on top of the built-in
	// metadata excludes.
	Excludes []string
	// SkipBroken skips unresolvable shortcuts instead of failing.
	SkipBroken bool
	// Verify re-hashes every materialized file against its origin before
	// archiving.
	Verify bool
	// KeepWorkspace leaves the temp workspace on disk for inspection.
	KeepWorkspace bool
	// Aliases overrides the shortcut resolver; nil means the OS resolver.
	Aliases alias.Resolver
	// Events receives progress events; may be nil.
	Events chan<- event.Event
	// Stats collects counters; nil means a private collector.
	Stats *stats.Collector
	// Logger for diagnostics; defaults to slog.Default().
	Logger *slog.Logger
}

// Result is the outcome of a run.
type Result struct {
	ArchivePath string
	Workspace   string // set only with KeepWorkspace
	Stats       stats.Snapshot
	Verify      resolver.VerifyResult
	Err         error
}

// Run executes a full resolve-and-archive run, blocking until complete.
func Run(cfg Config) Result {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}

	info, err := os.Stat(cfg.SourceDir)
	if err != nil {
		return Result{Err: fmt.Errorf("source: %w", err)}
	}
	if !info.IsDir() {
		return Result{Err: fmt.Errorf("source %s is not a directory", cfg.SourceDir)}
	}

	excludes := filter.NewMetadataChain()
	for _, pattern := range cfg.Excludes {
		if err := excludes.Add(pattern); err != nil {
			return Result{Err: err}
		}
	}

	ws, err := workspace.Create()
	if err != nil {
		return Result{Err: err}
	}
	// The workspace is removed even when resolution or archiving fails;
	// only an explicit KeepWorkspace leaves it behind.
	defer func() {
		if cfg.KeepWorkspace {
			cfg.Logger.Info("workspace kept", "path", ws)
			return
		}
		if rmErr := workspace.Remove(ws); rmErr != nil {
			cfg.Logger.Warn("workspace cleanup failed", "path", ws, "error", rmErr)
		}
	}()

	res := resolver.New(resolver.Options{
		Aliases:    cfg.Aliases,
		SkipBroken: cfg.SkipBroken,
		Events:     cfg.Events,
		Stats:      cfg.Stats,
		Logger:     cfg.Logger,
	})
	if err := res.Resolve(cfg.SourceDir, ws); err != nil {
		return Result{Err: err, Stats: cfg.Stats.Snapshot()}
	}

	result := Result{ArchivePath: cfg.ArchivePath}
	if cfg.KeepWorkspace {
		result.Workspace = ws
	}

	if cfg.Verify {
		result.Verify = res.Verify()
		if !result.Verify.OK() {
			result.Err = fmt.Errorf("verification failed: %d file(s) did not match their origin", result.Verify.Failed)
			result.Stats = cfg.Stats.Snapshot()
			return result
		}
	}

	if err := archive.CreateZipFile(cfg.ArchivePath, archive.Config{
		SourceDir: ws,
		Excludes:  excludes,
		Events:    cfg.Events,
		Stats:     cfg.Stats,
		Logger:    cfg.Logger,
	}); err != nil {
		result.Err = err
		result.Stats = cfg.Stats.Snapshot()
		return result
	}

	result.Stats = cfg.Stats.Snapshot()
	return result
}
