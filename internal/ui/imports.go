package ui

import "github.com/jottr/shift/internal/event"

// Re-export event types for convenience.
const (
	TransferStarted = event.TransferStarted
	CountComplete   = event.CountComplete
	FileStarted     = event.FileStarted
	FileCompleted   = event.FileCompleted
	FileFailed      = event.FileFailed
	FileSkipped     = event.FileSkipped
	DirCreated      = event.DirCreated
	HardlinkCreated = event.HardlinkCreated
	CopyRetried     = event.CopyRetried
	MoveFellBack    = event.MoveFellBack
	SourceRemoved   = event.SourceRemoved
)

// Event aliases the engine's event type.
type Event = event.Event
