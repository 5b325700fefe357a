package resolver

import "fmt"

// AccessError means a source directory could not be listed or a source file
// could not be read. Always fatal for the run.
type AccessError struct {
	Path string
	Err  error
}

func (e *AccessError) Error() string { return fmt.Sprintf("access %s: %v", e.Path, e.Err) }
func (e *AccessError) Unwrap() error { return e.Err }

// WriteError means a destination directory or file could not be written.
// Always fatal; partial workspace content is left for the owner to clean up.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// ResolutionError means a shortcut could not be resolved to an existing
// target (dangling, corrupt, or the platform query failed). Fatal unless
// the run opted into skipping broken shortcuts.
type ResolutionError struct {
	Path string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve shortcut %s: %v", e.Path, e.Err)
}
func (e *ResolutionError) Unwrap() error { return e.Err }

// CycleError means a shortcut's directory target is already on the active
// recursion path; following it would recurse forever.
type CycleError struct {
	Path   string // the entry being descended into
	Target string // its canonical target, already being resolved
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("shortcut cycle: %s points back into %s", e.Path, e.Target)
}
