// Package history implements a per-workflow, per-user log of reversible edit
// operations: bounded undo/redo double stacks with move coalescing, recording
// suspension, LRU key eviction, validity pruning against live document
// snapshots, and best-effort persistence through a key-value store.
//
// The engine never touches the live document. Callers compute both an
// operation and its exact inverse before pushing, and apply the entry
// returned by Undo/Redo themselves.
package history

import (
	"io"
	"sort"
	"sync"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/hylla/rewind/internal/domain"
)

// DefaultCapacity bounds each stack side when no capacity is configured.
const DefaultCapacity = 20

// DefaultMaxStacks bounds how many (workflow, user) keys stay resident before
// the least-recently-updated one is evicted.
const DefaultMaxStacks = 5

// Store is the persistence contract the engine mirrors its state through.
// Implementations are total: faults degrade to misses and dropped writes.
type Store interface {
	GetItem(name string) (string, bool)
	SetItem(name, value string)
	RemoveItem(name string)
}

// IDGenerator returns unique identifiers for entries recorded without one.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// stack holds one key's undo/redo history.
type stack struct {
	Undo        []domain.OperationEntry `json:"undo"`
	Redo        []domain.OperationEntry `json:"redo"`
	LastUpdated time.Time               `json:"last_updated"`
}

// Engine is one explicit, injectable undo/redo engine instance. All methods
// are total: missing keys, empty stacks, and storage faults surface as nil
// results and zero sizes, never as errors. Safe for concurrent use.
type Engine struct {
	mu           sync.Mutex
	stacks       map[string]stack
	capacity     int
	maxStacks    int
	suspendDepth int

	store  Store
	idGen  IDGenerator
	clock  Clock
	logger *charmLog.Logger
}

// Option configures an engine at construction time.
type Option func(*Engine)

// WithCapacity sets the per-side stack bound.
func WithCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.capacity = n
		}
	}
}

// WithMaxStacks overrides the resident key bound.
func WithMaxStacks(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxStacks = n
		}
	}
}

// WithIDGenerator sets the generator used to stamp entries recorded without ids.
func WithIDGenerator(idGen IDGenerator) Option {
	return func(e *Engine) {
		if idGen != nil {
			e.idGen = idGen
		}
	}
}

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *charmLog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New constructs an engine and rehydrates any state persisted under the
// engine's storage key. A nil store disables persistence for the session.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		stacks:    map[string]stack{},
		capacity:  DefaultCapacity,
		maxStacks: DefaultMaxStacks,
		store:     store,
		clock:     time.Now,
		idGen:     func() string { return "" },
		logger:    charmLog.New(io.Discard),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.rehydrate()
	return e
}

// Push records one entry on the key's undo stack. It is dropped silently when
// recording is suspended, when the move is a no-op, or when the coalescer
// absorbs it into the current top entry. A genuinely new entry clears the
// key's redo stack.
func (e *Engine) Push(workflowID, userID string, entry domain.OperationEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.suspendDepth > 0 {
		return
	}
	if err := entry.Validate(); err != nil {
		e.logger.Warn("dropping malformed history entry", "err", err)
		return
	}
	if isNoopMove(entry.Operation) {
		return
	}

	key := domain.StackKey(workflowID, userID)
	now := e.clock().UTC()
	st, resident := e.stacks[key]
	if !resident {
		e.evictOldestLocked()
	}

	if entry.ID == "" {
		entry.ID = e.idGen()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	if n := len(st.Undo); n > 0 {
		merged, action := coalesce(st.Undo[n-1], entry)
		switch action {
		case coalesceAbsorb:
			return
		case coalesceReplaceTop:
			st.Undo[n-1] = merged
			st.LastUpdated = now
			e.stacks[key] = st
			e.persistLocked()
			return
		case coalesceDropTop:
			st.Undo = st.Undo[:n-1]
			st.LastUpdated = now
			e.stacks[key] = st
			e.persistLocked()
			return
		}
	}

	st.Undo = append(st.Undo, entry)
	st.Undo = truncateFront(st.Undo, e.capacity)
	st.Redo = nil
	st.LastUpdated = now
	e.stacks[key] = st
	e.persistLocked()
}

// Undo pops the key's most recent undo entry, moves it to the redo stack, and
// returns it. The caller is responsible for applying the entry's inverse to
// the live document. Returns nil when there is nothing to undo.
func (e *Engine) Undo(workflowID, userID string) *domain.OperationEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := domain.StackKey(workflowID, userID)
	st, ok := e.stacks[key]
	if !ok || len(st.Undo) == 0 {
		return nil
	}
	entry := st.Undo[len(st.Undo)-1]
	st.Undo = st.Undo[:len(st.Undo)-1]
	st.Redo = truncateFront(append(st.Redo, entry), e.capacity)
	st.LastUpdated = e.clock().UTC()
	e.stacks[key] = st
	e.persistLocked()
	return &entry
}

// Redo pops the key's most recent redo entry, moves it back to the undo
// stack, and returns it. The caller applies the entry's forward operation.
// Returns nil when there is nothing to redo.
func (e *Engine) Redo(workflowID, userID string) *domain.OperationEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := domain.StackKey(workflowID, userID)
	st, ok := e.stacks[key]
	if !ok || len(st.Redo) == 0 {
		return nil
	}
	entry := st.Redo[len(st.Redo)-1]
	st.Redo = st.Redo[:len(st.Redo)-1]
	st.Undo = truncateFront(append(st.Undo, entry), e.capacity)
	st.LastUpdated = e.clock().UTC()
	e.stacks[key] = st
	e.persistLocked()
	return &entry
}

// Clear removes the key's stack entirely.
func (e *Engine) Clear(workflowID, userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := domain.StackKey(workflowID, userID)
	if _, ok := e.stacks[key]; !ok {
		return
	}
	delete(e.stacks, key)
	e.persistLocked()
}

// ClearRedo empties only the key's redo side, leaving undo untouched.
func (e *Engine) ClearRedo(workflowID, userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := domain.StackKey(workflowID, userID)
	st, ok := e.stacks[key]
	if !ok || len(st.Redo) == 0 {
		return
	}
	st.Redo = nil
	st.LastUpdated = e.clock().UTC()
	e.stacks[key] = st
	e.persistLocked()
}

// StackSizes returns the key's undo and redo depths; zero for absent keys.
func (e *Engine) StackSizes(workflowID, userID string) (undoSize, redoSize int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.stacks[domain.StackKey(workflowID, userID)]
	return len(st.Undo), len(st.Redo)
}

// Entries returns copies of the key's undo and redo entries, oldest first.
func (e *Engine) Entries(workflowID, userID string) (undo, redo []domain.OperationEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.stacks[domain.StackKey(workflowID, userID)]
	return append([]domain.OperationEntry(nil), st.Undo...),
		append([]domain.OperationEntry(nil), st.Redo...)
}

// Keys returns the resident stack keys, most recently updated first.
func (e *Engine) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := make([]string, 0, len(e.stacks))
	for key := range e.stacks {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a := e.stacks[keys[i]].LastUpdated
		b := e.stacks[keys[j]].LastUpdated
		if a.Equal(b) {
			return keys[i] < keys[j]
		}
		return a.After(b)
	})
	return keys
}

// Capacity returns the current per-side stack bound.
func (e *Engine) Capacity() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capacity
}

// SetCapacity updates the global capacity and immediately truncates every
// resident stack to its most recent n entries. Values below one are ignored.
func (e *Engine) SetCapacity(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n < 1 {
		e.logger.Warn("ignoring invalid history capacity", "capacity", n)
		return
	}
	e.capacity = n
	for key, st := range e.stacks {
		st.Undo = truncateFront(st.Undo, n)
		st.Redo = truncateFront(st.Redo, n)
		e.stacks[key] = st
	}
	e.persistLocked()
}

// PruneInvalidEntries removes entries that can no longer be soundly replayed
// against the supplied document snapshot: undo entries whose inverse is no
// longer applicable and redo entries whose forward operation is not. Callers
// invoke this after out-of-band structural changes to the document.
func (e *Engine) PruneInvalidEntries(workflowID, userID string, snap domain.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := domain.StackKey(workflowID, userID)
	st, ok := e.stacks[key]
	if !ok {
		return
	}

	undo := st.Undo[:0:0]
	for _, entry := range st.Undo {
		if Applicable(entry.Inverse, snap) {
			undo = append(undo, entry)
		}
	}
	redo := st.Redo[:0:0]
	for _, entry := range st.Redo {
		if Applicable(entry.Operation, snap) {
			redo = append(redo, entry)
		}
	}

	removedUndo := len(st.Undo) - len(undo)
	removedRedo := len(st.Redo) - len(redo)
	if removedUndo == 0 && removedRedo == 0 {
		return
	}

	e.logger.Info("pruned invalid history entries",
		"key", key, "undo_removed", removedUndo, "redo_removed", removedRedo)
	st.Undo = undo
	st.Redo = redo
	st.LastUpdated = e.clock().UTC()
	e.stacks[key] = st
	e.persistLocked()
}

// evictOldestLocked drops the least-recently-updated key when the resident
// bound is reached. Called before inserting a new key.
func (e *Engine) evictOldestLocked() {
	if len(e.stacks) < e.maxStacks {
		return
	}
	oldestKey := ""
	var oldestAt time.Time
	for key, st := range e.stacks {
		if oldestKey == "" || st.LastUpdated.Before(oldestAt) {
			oldestKey = key
			oldestAt = st.LastUpdated
		}
	}
	if oldestKey != "" {
		e.logger.Debug("evicting least-recently-updated history stack", "key", oldestKey)
		delete(e.stacks, oldestKey)
	}
}

// truncateFront keeps the most recent n entries of a stack side.
func truncateFront(entries []domain.OperationEntry, n int) []domain.OperationEntry {
	if n < 1 || len(entries) <= n {
		return entries
	}
	return append([]domain.OperationEntry(nil), entries[len(entries)-n:]...)
}
