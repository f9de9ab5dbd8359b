package session

import (
	"sync"

	"cutoutd/internal/codec"
	"cutoutd/internal/history"
)

// Session is the process-wide state container for the current image.
type Session struct {
	mu       sync.RWMutex
	phase    Phase
	status   string
	errMsg   *string
	progress int
	original *string
	result   *string
	hist     *history.History
	download DownloadProgress
	selected string
	// cycle increases whenever in-flight work is superseded.
	cycle uint64

	codec codec.Codec
	pub   EventPublisher

	subs    map[int]chan Snapshot
	nextSub int
}

// EnterIdle returns to idle, clearing status, error and progress.
// Images and history are kept.
func (s *Session) EnterIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle++
	s.enterIdleLocked()
	s.notifyLocked("idle", nil)
}

func (s *Session) enterIdleLocked() {
	s.phase = PhaseIdle
	s.status = ""
	s.errMsg = nil
	s.progress = 0
}

// EnterLoading moves to loading. An empty message selects
// DefaultLoadingMessage. Images and progress are untouched.
func (s *Session) EnterLoading(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle++
	s.enterLoadingLocked(message)
	s.notifyLocked("loading", map[string]any{"status": s.status})
}

func (s *Session) enterLoadingLocked(message string) {
	if message == "" {
		message = DefaultLoadingMessage
	}
	s.phase = PhaseLoading
	s.status = message
	s.errMsg = nil
}

// EnterProcessing moves to processing. An empty message selects
// DefaultProcessingMessage.
func (s *Session) EnterProcessing(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle++
	s.enterProcessingLocked(message)
	s.notifyLocked("processing", map[string]any{"status": s.status})
}

func (s *Session) enterProcessingLocked(message string) {
	if message == "" {
		message = DefaultProcessingMessage
	}
	s.phase = PhaseProcessing
	s.status = message
	s.errMsg = nil
}

// Complete moves to done with progress 100. When both images are present
// the pair is recorded at the front of the history; otherwise history is
// left alone.
func (s *Session) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completeLocked()
}

func (s *Session) completeLocked() {
	s.phase = PhaseDone
	s.status = CompleteMessage
	s.progress = 100
	fields := map[string]any{}
	// Empty payloads count as absent.
	if s.original != nil && *s.original != "" && s.result != nil && *s.result != "" {
		it := s.hist.Add(*s.original, *s.result)
		fields["history_id"] = it.ID
		fields["history_len"] = s.hist.Len()
	}
	s.notifyLocked("done", fields)
}

// Fail moves to error with the given message. Images are kept so the user
// can retry.
func (s *Session) Fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLocked(message)
}

func (s *Session) failLocked(message string) {
	s.phase = PhaseError
	msg := message
	s.errMsg = &msg
	s.status = ErrorStatusMessage
	s.progress = 0
	s.notifyLocked("error", map[string]any{"error": message})
}

// SetOriginalImage stores the submitted payload.
func (s *Session) SetOriginalImage(payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = &payload
	s.notifyLocked("original_image", map[string]any{"size": len(payload)})
}

// SetResultImage stores the processed payload. Call before Complete so the
// pair reaches the history.
func (s *Session) SetResultImage(payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = &payload
	s.notifyLocked("result_image", map[string]any{"size": len(payload)})
}

// SetStatusMessage replaces the status text without changing phase.
func (s *Session) SetStatusMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = text
	s.notifyLocked("status", map[string]any{"status": text})
}

// SetProgress stores percent as given. Values outside 0..100 are accepted
// unchanged; callers validate.
func (s *Session) SetProgress(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = percent
	s.notifyLocked("progress", map[string]any{"progress": percent})
}

// Reset discards the current cycle: idle, no images. History is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle++
	s.resetLocked()
	s.notifyLocked("reset", nil)
}

func (s *Session) resetLocked() {
	s.enterIdleLocked()
	s.original = nil
	s.result = nil
}

// RemoveFromHistory drops the history item with the given id. Unknown ids
// are a no-op.
func (s *Session) RemoveFromHistory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hist.Remove(id) {
		return
	}
	s.notifyLocked("history_remove", map[string]any{"history_id": id, "history_len": s.hist.Len()})
}

// SetDownloadProgress replaces the download progress wholesale.
func (s *Session) SetDownloadProgress(downloaded, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setDownloadLocked(downloaded, total)
}

func (s *Session) setDownloadLocked(downloaded, total int64) {
	s.download = DownloadProgress{Downloaded: downloaded, Total: total}
	s.notifyLocked("download_progress", map[string]any{"downloaded": downloaded, "total": total})
}

// SetSelectedModel replaces the model selection. The id is not checked
// against any catalog.
func (s *Session) SetSelectedModel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
	s.notifyLocked("model_selected", map[string]any{"model": id})
}
