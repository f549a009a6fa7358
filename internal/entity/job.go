package entity

// Status is the lifecycle stage of a download job.
// A job moves starting -> downloading (zero or more updates) -> finished or
// error. Terminal states are never left. StatusNotFound is not a real stage,
// it is the registry's answer for an id that was never created.
type Status string

const (
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusFinished    Status = "finished"
	StatusError       Status = "error"
	StatusNotFound    Status = "not_found"
)

func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusError
}

// Job represents one tracked download request.
type Job struct {
	ID       string `json:"id,omitempty"`
	Status   Status `json:"status"`
	Progress string `json:"progress,omitempty"`
	Speed    string `json:"speed,omitempty"`
	Filename string `json:"filename,omitempty"`
	Filepath string `json:"filepath,omitempty"`
	Error    string `json:"error,omitempty"`
}

type EventKind int

const (
	EventOther EventKind = iota
	EventDownloading
	EventFinished
)

// ProgressEvent is one raw callback from the extraction client. Only the
// downloading and finished variants carry payload, everything else is
// EventOther and ignored by the reporter.
type ProgressEvent struct {
	Kind     EventKind
	Percent  string
	Speed    string
	Filename string
}

// DownloadOptions describes one yt-dlp invocation.
type DownloadOptions struct {
	Format         string
	OutputTemplate string
	ExtractAudio   bool
	AudioCodec     string
	AudioQuality   string
}
