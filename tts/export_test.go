package tts

// PendingRestart returns the parameter restart bound to the live session, as
// the debouncer runs it once the quiet window elapses.
func (c *Controller) PendingRestart() func() {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	return func() { c.applyPending(s) }
}
