package session

// Phase is the lifecycle state of the current processing cycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseProcessing Phase = "processing"
	PhaseDone       Phase = "done"
	PhaseError      Phase = "error"
)

// Status texts set alongside phase transitions.
const (
	DefaultLoadingMessage    = "Loading..."
	DefaultProcessingMessage = "Processing..."
	CompleteMessage          = "Complete!"
	ErrorStatusMessage       = "Error"
)

// DownloadProgress is the byte-level progress of a model download.
// Total is 0 while the size is unknown.
type DownloadProgress struct {
	Downloaded int64 `json:"downloaded"`
	Total      int64 `json:"total"`
}
