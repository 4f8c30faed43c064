package pipeline

// EventType identifies a pipeline event.
type EventType int

const (
	EventModStarted EventType = iota
	EventFileSelected
	EventDownloadStarted
	EventDownloadFinished
	EventDownloadFailed
	EventWarning
	EventModFailed
	EventModDone
)

func (t EventType) String() string {
	switch t {
	case EventModStarted:
		return "mod_started"
	case EventFileSelected:
		return "file_selected"
	case EventDownloadStarted:
		return "download_started"
	case EventDownloadFinished:
		return "download_finished"
	case EventDownloadFailed:
		return "download_failed"
	case EventWarning:
		return "warning"
	case EventModFailed:
		return "mod_failed"
	case EventModDone:
		return "mod_done"
	default:
		return "unknown"
	}
}

// Event is emitted at every step so a UI can follow the run.
type Event struct {
	Type         EventType
	Slug         string
	Name         string
	FileName     string
	DependencyOf string
	Message      string
	Err          error
}
