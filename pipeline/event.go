package pipeline

import "time"

// Stage names a step of a run.
type Stage string

const (
	StageDownload  Stage = "download"
	StageVideoInfo Stage = "video info"
	StageLoad      Stage = "load"
	StageProcess   Stage = "process"
	StageWrite     Stage = "write"
	StageDelete    Stage = "delete"
)

// EventKind tells what an Event reports.
type EventKind int

const (
	// EventStart marks the beginning of a stage.
	EventStart EventKind = iota
	// EventFinish marks the successful end of a stage.
	EventFinish
	// EventProgress carries one line of downloader output.
	EventProgress
	// EventWarning reports a problem the run recovered from.
	EventWarning
	// EventCommentError reports a comment left out of a transcript.
	EventCommentError
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventFinish:
		return "finish"
	case EventProgress:
		return "progress"
	case EventWarning:
		return "warning"
	case EventCommentError:
		return "comment error"
	default:
		return "unknown"
	}
}

// Event is a progress message sent while a run executes.
type Event struct {
	Kind  EventKind
	Stage Stage

	// Message is a downloader output line, a warning or a failed comment.
	Message string

	// Path is the file a stage read, wrote or deleted.
	Path string

	// Stderr is set for downloader lines read from standard error.
	Stderr bool

	// Lost is the number of comments left out, for EventCommentError.
	Lost int

	// Elapsed is the duration of the stage, for EventFinish.
	Elapsed time.Duration

	Err error
}
