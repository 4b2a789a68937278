package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	FileStarted Type = iota + 1
	FileProgress
	FileCompleted
	FileFailed
	FileCancelled
	BackupCreated
	BackupRestored
	BackupDiscarded
	RollbackFailed
	SparseWarning
	VerifyStarted
	VerifyProgress
	VerifyOK
	VerifyFailed
)

var typeNames = [...]string{
	FileStarted:     "FileStarted",
	FileProgress:    "FileProgress",
	FileCompleted:   "FileCompleted",
	FileFailed:      "FileFailed",
	FileCancelled:   "FileCancelled",
	BackupCreated:   "BackupCreated",
	BackupRestored:  "BackupRestored",
	BackupDiscarded: "BackupDiscarded",
	RollbackFailed:  "RollbackFailed",
	SparseWarning:   "SparseWarning",
	VerifyStarted:   "VerifyStarted",
	VerifyProgress:  "VerifyProgress",
	VerifyOK:        "VerifyOK",
	VerifyFailed:    "VerifyFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a lifecycle notification from the engine. Delivery is best
// effort: the engine drops events when the channel is full.
type Event struct {
	Timestamp time.Time
	Error     error
	Path      string // destination, or backup path for backup events
	Detail    string // strategy or verification method
	Size      int64  // file size or bytes so far
	Total     int64  // file size, on progress events
	Type      Type
}
