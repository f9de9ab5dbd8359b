package session

// Cycle is a driver's handle on one processing attempt. Every method
// applies only while the cycle is still current and reports false once it
// has been superseded by Begin, Reset, EnterIdle, EnterLoading or
// EnterProcessing. This lets a slow inference finish harmlessly after the
// user has moved on.
type Cycle struct {
	s  *Session
	id uint64
}

// Begin starts a new cycle for the given original payload: previous
// cycles are superseded, images, status, error and progress are cleared
// and the original is stored. History is untouched.
func (s *Session) Begin(original string) *Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle++
	s.resetLocked()
	s.original = &original
	s.notifyLocked("begin", map[string]any{"size": len(original)})
	return &Cycle{s: s, id: s.cycle}
}

// ID returns the cycle id.
func (c *Cycle) ID() uint64 { return c.id }

// Current reports whether the cycle has not been superseded.
func (c *Cycle) Current() bool {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return c.s.cycle == c.id
}

// apply runs fn under the session lock if the cycle is still current.
func (c *Cycle) apply(fn func()) bool {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.cycle != c.id {
		return false
	}
	fn()
	return true
}

// Loading is EnterLoading scoped to this cycle.
func (c *Cycle) Loading(message string) bool {
	return c.apply(func() {
		c.s.enterLoadingLocked(message)
		c.s.notifyLocked("loading", map[string]any{"status": c.s.status})
	})
}

// Processing is EnterProcessing scoped to this cycle.
func (c *Cycle) Processing(message string) bool {
	return c.apply(func() {
		c.s.enterProcessingLocked(message)
		c.s.notifyLocked("processing", map[string]any{"status": c.s.status})
	})
}

// Status is SetStatusMessage scoped to this cycle.
func (c *Cycle) Status(text string) bool {
	return c.apply(func() {
		c.s.status = text
		c.s.notifyLocked("status", map[string]any{"status": text})
	})
}

// Progress is SetProgress scoped to this cycle.
func (c *Cycle) Progress(percent int) bool {
	return c.apply(func() {
		c.s.progress = percent
		c.s.notifyLocked("progress", map[string]any{"progress": percent})
	})
}

// DownloadProgress is SetDownloadProgress scoped to this cycle.
func (c *Cycle) DownloadProgress(downloaded, total int64) bool {
	return c.apply(func() { c.s.setDownloadLocked(downloaded, total) })
}

// Result is SetResultImage scoped to this cycle.
func (c *Cycle) Result(payload string) bool {
	return c.apply(func() {
		c.s.result = &payload
		c.s.notifyLocked("result_image", map[string]any{"size": len(payload)})
	})
}

// Complete is Complete scoped to this cycle.
func (c *Cycle) Complete() bool {
	return c.apply(c.s.completeLocked)
}

// Fail is Fail scoped to this cycle.
func (c *Cycle) Fail(message string) bool {
	return c.apply(func() { c.s.failLocked(message) })
}
