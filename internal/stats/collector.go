package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks resolver and archiver counters using atomic values so the
// presenter goroutine can read them while the run is in flight.
type Collector struct {
	filesCopied       atomic.Int64
	bytesCopied       atomic.Int64
	dirsCreated       atomic.Int64
	aliasesResolved   atomic.Int64
	aliasesSkipped    atomic.Int64
	filesVerified     atomic.Int64
	filesVerifyFailed atomic.Int64
	entriesArchived   atomic.Int64
	startTime         time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) AddFilesCopied(n int64)       { c.filesCopied.Add(n) }
func (c *Collector) AddBytesCopied(n int64)       { c.bytesCopied.Add(n) }
func (c *Collector) AddDirsCreated(n int64)       { c.dirsCreated.Add(n) }
func (c *Collector) AddAliasesResolved(n int64)   { c.aliasesResolved.Add(n) }
func (c *Collector) AddAliasesSkipped(n int64)    { c.aliasesSkipped.Add(n) }
func (c *Collector) AddFilesVerified(n int64)     { c.filesVerified.Add(n) }
func (c *Collector) AddFilesVerifyFailed(n int64) { c.filesVerifyFailed.Add(n) }
func (c *Collector) AddEntriesArchived(n int64)   { c.entriesArchived.Add(n) }

// Writer is the mutation surface handed to the resolver and archiver.
type Writer interface {
	AddFilesCopied(n int64)
	AddBytesCopied(n int64)
	AddDirsCreated(n int64)
	AddAliasesResolved(n int64)
	AddAliasesSkipped(n int64)
	AddFilesVerified(n int64)
	AddFilesVerifyFailed(n int64)
	AddEntriesArchived(n int64)
}

// Reader is the read-only surface handed to presenters.
type Reader interface {
	Snapshot() Snapshot
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesCopied       int64
	BytesCopied       int64
	DirsCreated       int64
	AliasesResolved   int64
	AliasesSkipped    int64
	FilesVerified     int64
	FilesVerifyFailed int64
	EntriesArchived   int64
	Elapsed           time.Duration
}

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesCopied:       c.filesCopied.Load(),
		BytesCopied:       c.bytesCopied.Load(),
		DirsCreated:       c.dirsCreated.Load(),
		AliasesResolved:   c.aliasesResolved.Load(),
		AliasesSkipped:    c.aliasesSkipped.Load(),
		FilesVerified:     c.filesVerified.Load(),
		FilesVerifyFailed: c.filesVerifyFailed.Load(),
		EntriesArchived:   c.entriesArchived.Load(),
		Elapsed:           c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"copied=%d bytes=%d dirs=%d aliases=%d skipped=%d archived=%d",
		s.FilesCopied, s.BytesCopied, s.DirsCreated,
		s.AliasesResolved, s.AliasesSkipped, s.EntriesArchived,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
