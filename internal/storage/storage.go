// Package storage wraps durable key-value backends behind an adapter that
// never surfaces faults to the caller: a failed write degrades to a logged
// warning, never to an interrupted edit.
package storage

import (
	"io"

	charmLog "github.com/charmbracelet/log"
)

// Backend is the raw key-value contract durable implementations provide.
type Backend interface {
	GetItem(name string) (value string, ok bool, err error)
	SetItem(name, value string) error
	RemoveItem(name string) error
}

// Adapter shields callers from backend faults. All three methods are total.
type Adapter struct {
	backend Backend
	logger  *charmLog.Logger
}

// NewAdapter wraps a backend. A nil logger discards fault warnings.
func NewAdapter(backend Backend, logger *charmLog.Logger) *Adapter {
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}
	return &Adapter{backend: backend, logger: logger}
}

// GetItem reads one value. Missing keys and backend faults both report false.
func (a *Adapter) GetItem(name string) (string, bool) {
	if a == nil || a.backend == nil {
		return "", false
	}
	value, ok, err := a.backend.GetItem(name)
	if err != nil {
		a.logger.Warn("storage read failed", "name", name, "err", err)
		return "", false
	}
	return value, ok
}

// SetItem writes one value, swallowing backend faults.
func (a *Adapter) SetItem(name, value string) {
	if a == nil || a.backend == nil {
		return
	}
	if err := a.backend.SetItem(name, value); err != nil {
		a.logger.Warn("storage write failed", "name", name, "err", err)
	}
}

// RemoveItem deletes one value, swallowing backend faults.
func (a *Adapter) RemoveItem(name string) {
	if a == nil || a.backend == nil {
		return
	}
	if err := a.backend.RemoveItem(name); err != nil {
		a.logger.Warn("storage remove failed", "name", name, "err", err)
	}
}
