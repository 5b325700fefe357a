package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ResolveStarted Type = iota + 1
	ResolveComplete
	FileCopied
	DirCreated
	AliasResolved
	AliasSkipped
	VerifyStarted
	VerifyOK
	VerifyFailed
	ArchiveStarted
	ArchiveEntry
	ArchiveComplete
)

var typeNames = [...]string{
	ResolveStarted:  "ResolveStarted",
	ResolveComplete: "ResolveComplete",
	FileCopied:      "FileCopied",
	DirCreated:      "DirCreated",
	AliasResolved:   "AliasResolved",
	AliasSkipped:    "AliasSkipped",
	VerifyStarted:   "VerifyStarted",
	VerifyOK:        "VerifyOK",
	VerifyFailed:    "VerifyFailed",
	ArchiveStarted:  "ArchiveStarted",
	ArchiveEntry:    "ArchiveEntry",
	ArchiveComplete: "ArchiveComplete",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the resolver or archiver.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // relative path within the workspace
	Target    string // resolved origin path (alias events)
	Size      int64  // bytes copied (FileCopied) or archived (ArchiveEntry)
	Error     error
}

// Emit sends ev on ch if ch is non-nil, dropping the event when the
// channel is full so a slow consumer never stalls the resolver.
func Emit(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case ch <- ev:
	default:
	}
}
