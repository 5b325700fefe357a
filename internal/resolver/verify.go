package resolver

import (
	"path/filepath"
	"sort"

	"github.com/flatzip/flatzip/internal/event"
)

// VerifyResult holds the outcome of a verification pass.
type VerifyResult struct {
	Verified int64
	Failed   int64
	Errors   []VerifyError
}

// VerifyError records a single checksum mismatch.
type VerifyError struct {
	Path       string
	OriginHash string
	CopyHash   string
}

// OK reports whether every materialized file matched its origin.
func (r VerifyResult) OK() bool {
	return r.Failed == 0
}

// Verify compares the BLAKE3 checksum of every materialized file against its
// recorded origin. It uses the manifest rather than re-walking the source, so
// files that arrived through a shortcut are compared against the shortcut's
// target. Call after Resolve returns nil.
func (r *Resolver) Verify() VerifyResult {
	event.Emit(r.opts.Events, event.Event{Type: event.VerifyStarted})

	// Deterministic order for output and tests.
	paths := make([]string, 0, len(r.manifest))
	for rel := range r.manifest {
		paths = append(paths, rel)
	}
	sort.Strings(paths)

	var result VerifyResult
	for _, rel := range paths {
		origin := r.manifest[rel]
		copyPath := filepath.Join(r.dstRoot, filepath.FromSlash(rel))

		originHash, err := HashFile(origin)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, VerifyError{Path: rel, OriginHash: "error", CopyHash: "n/a"})
			r.addFilesVerifyFailed(1)
			event.Emit(r.opts.Events, event.Event{Type: event.VerifyFailed, Path: rel, Error: err})
			continue
		}

		copyHash, err := HashFile(copyPath)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, VerifyError{Path: rel, OriginHash: originHash, CopyHash: "error"})
			r.addFilesVerifyFailed(1)
			event.Emit(r.opts.Events, event.Event{Type: event.VerifyFailed, Path: rel, Error: err})
			continue
		}

		if originHash != copyHash {
			result.Failed++
			result.Errors = append(result.Errors, VerifyError{Path: rel, OriginHash: originHash, CopyHash: copyHash})
			r.addFilesVerifyFailed(1)
			event.Emit(r.opts.Events, event.Event{Type: event.VerifyFailed, Path: rel})
			continue
		}

		result.Verified++
		r.addFilesVerified(1)
		event.Emit(r.opts.Events, event.Event{Type: event.VerifyOK, Path: rel})
	}

	return result
}

func (r *Resolver) addFilesVerified(n int64) {
	if r.opts.Stats != nil {
		r.opts.Stats.AddFilesVerified(n)
	}
}

func (r *Resolver) addFilesVerifyFailed(n int64) {
	if r.opts.Stats != nil {
		r.opts.Stats.AddFilesVerifyFailed(n)
	}
}
