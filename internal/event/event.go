package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	TransferStarted Type = iota + 1
	CountComplete
	FileStarted
	FileCompleted
	FileFailed
	FileSkipped
	DirCreated
	HardlinkCreated
	CopyRetried
	MoveFellBack
	SourceRemoved
)

var typeNames = [...]string{
	TransferStarted: "TransferStarted",
	CountComplete:   "CountComplete",
	FileStarted:     "FileStarted",
	FileCompleted:   "FileCompleted",
	FileFailed:      "FileFailed",
	FileSkipped:     "FileSkipped",
	DirCreated:      "DirCreated",
	HardlinkCreated: "HardlinkCreated",
	CopyRetried:     "CopyRetried",
	MoveFellBack:    "MoveFellBack",
	SourceRemoved:   "SourceRemoved",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the transfer engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string
	Size      int64
	Total     int64  // total files (CountComplete)
	TotalSize int64  // total bytes (CountComplete)
	Achieved  string // strategy that completed the file (FileCompleted)
	Attempt   int    // retry ordinal (CopyRetried)
	Error     error
}
