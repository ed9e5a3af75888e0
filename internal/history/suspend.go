package history

// RunSuspended executes fn with recording suspended on the engine. Pushes made
// while any suspension is active are dropped. Suspension nests: recording
// resumes only when the outermost call returns. The depth is released even
// when fn panics, and it never goes below zero.
func RunSuspended[T any](e *Engine, fn func() (T, error)) (T, error) {
	e.beginSuspend()
	defer e.endSuspend()
	return fn()
}

// Suspended reports whether any suspension scope is currently active.
func (e *Engine) Suspended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.suspendDepth > 0
}

// beginSuspend increments the re-entrant suspension depth.
func (e *Engine) beginSuspend() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.suspendDepth++
}

// endSuspend decrements the suspension depth, clamping at zero.
func (e *Engine) endSuspend() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.suspendDepth > 0 {
		e.suspendDepth--
	}
}
