package ui

import "github.com/flatzip/flatzip/internal/event"

// Re-export event types for convenience.
const (
	ResolveStarted  = event.ResolveStarted
	ResolveComplete = event.ResolveComplete
	FileCopied      = event.FileCopied
	DirCreated      = event.DirCreated
	AliasResolved   = event.AliasResolved
	AliasSkipped    = event.AliasSkipped
	VerifyStarted   = event.VerifyStarted
	VerifyOK        = event.VerifyOK
	VerifyFailed    = event.VerifyFailed
	ArchiveStarted  = event.ArchiveStarted
	ArchiveEntry    = event.ArchiveEntry
	ArchiveComplete = event.ArchiveComplete
)

// Event aliases the engine event type so presenters read naturally.
type Event = event.Event
