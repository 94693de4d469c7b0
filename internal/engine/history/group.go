package history

// batch collects saves so a run of edits becomes one history entry.
type batch struct {
	name    string
	pending Snapshot
	dirty   bool
}

// BeginBatch starts a batch. Saves made until EndBatch still reach the save
// callback, but only the last snapshot is recorded, once, at EndBatch.
// Nested calls are ignored.
func (m *Manager) BeginBatch(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.batch != nil {
		return
	}
	m.batch = &batch{name: name}
}

// EndBatch closes the batch and records its last snapshot, if any.
func (m *Manager) EndBatch() {
	m.mu.Lock()
	b := m.batch
	m.batch = nil
	if b == nil || !b.dirty {
		m.mu.Unlock()
		return
	}
	m.log.Push(b.pending)
	m.mu.Unlock()

	m.logger.Debug("batch recorded", "name", b.name, "index", m.log.Index())
	m.notifyChange()
}

// CancelBatch closes the batch without recording anything.
// Note: the surface keeps whatever edits were made.
func (m *Manager) CancelBatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batch = nil
}

// InBatch returns true if a batch is open.
func (m *Manager) InBatch() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batch != nil
}

// BatchScope provides a convenient way to batch saves using defer.
// Usage:
//
//	func alignAll(m *Manager) {
//	    defer m.BatchScope("Align").End()
//	    // ... multiple edits ...
//	}
type BatchScope struct {
	manager *Manager
	active  bool
}

// BatchScope starts a new batch scope.
func (m *Manager) BatchScope(name string) *BatchScope {
	m.BeginBatch(name)
	return &BatchScope{
		manager: m,
		active:  true,
	}
}

// End ends the batch scope.
// Safe to call multiple times; only the first call has effect.
func (s *BatchScope) End() {
	if s.active {
		s.manager.EndBatch()
		s.active = false
	}
}

// Cancel cancels the batch scope without recording.
func (s *BatchScope) Cancel() {
	if s.active {
		s.manager.CancelBatch()
		s.active = false
	}
}

// Batch runs fn inside a batch. If fn returns an error the batch is
// cancelled and the error returned.
func (m *Manager) Batch(name string, fn func() error) error {
	m.BeginBatch(name)

	if err := fn(); err != nil {
		m.CancelBatch()
		return err
	}

	m.EndBatch()
	return nil
}
