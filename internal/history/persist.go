package history

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/hylla/rewind/internal/domain"
)

// StateKey is the single well-known storage key the engine persists under.
const StateKey = "rewind:history"

// stateVersion is the current persisted schema. Version 1 was the per-block
// schema with camelCase fields and epoch-millisecond timestamps; it is
// translated on load and written back in the current shape.
const stateVersion = 2

// persistedState is the full engine state mirrored to storage on every
// mutation.
type persistedState struct {
	Version  int              `json:"version"`
	Capacity int              `json:"capacity"`
	Stacks   map[string]stack `json:"stacks"`
}

// persistLocked serializes the current state and writes it through the store.
// Storage faults are swallowed by the adapter; an edit never waits on or
// fails because of persistence.
func (e *Engine) persistLocked() {
	if e.store == nil {
		return
	}
	data, err := json.Marshal(persistedState{
		Version:  stateVersion,
		Capacity: e.capacity,
		Stacks:   e.stacks,
	})
	if err != nil {
		e.logger.Warn("failed to encode history state", "err", err)
		return
	}
	e.store.SetItem(StateKey, string(data))
}

// rehydrate seeds engine state from storage. Absent or malformed state leaves
// the engine at its configured defaults.
func (e *Engine) rehydrate() {
	if e.store == nil {
		return
	}
	raw, ok := e.store.GetItem(StateKey)
	if !ok || raw == "" {
		return
	}
	state, err := decodeState([]byte(raw))
	if err != nil {
		e.logger.Warn("discarding unreadable history state", "err", err)
		return
	}
	if state.Capacity > 0 {
		e.capacity = state.Capacity
	}
	e.stacks = state.Stacks
	e.enforceBoundsLocked()
}

// ExportState returns the persisted JSON form of the current engine state.
func (e *Engine) ExportState() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return json.MarshalIndent(persistedState{
		Version:  stateVersion,
		Capacity: e.capacity,
		Stacks:   e.stacks,
	}, "", "  ")
}

// ImportState replaces the engine state with a previously exported document,
// migrating legacy schemas, and persists the result.
func (e *Engine) ImportState(data []byte) error {
	state, err := decodeState(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if state.Capacity > 0 {
		e.capacity = state.Capacity
	}
	e.stacks = state.Stacks
	e.enforceBoundsLocked()
	e.persistLocked()
	return nil
}

// enforceBoundsLocked re-applies capacity and resident-key bounds after state
// has been loaded from outside the engine's own mutations.
func (e *Engine) enforceBoundsLocked() {
	if e.stacks == nil {
		e.stacks = map[string]stack{}
	}
	for key, st := range e.stacks {
		st.Undo = truncateFront(st.Undo, e.capacity)
		st.Redo = truncateFront(st.Redo, e.capacity)
		e.stacks[key] = st
	}
	if len(e.stacks) <= e.maxStacks {
		return
	}
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
		return a.Before(b)
	})
	for _, key := range keys[:len(e.stacks)-e.maxStacks] {
		delete(e.stacks, key)
	}
}

// decodeState parses a persisted document, translating legacy schemas.
func decodeState(data []byte) (persistedState, error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return persistedState{}, err
	}
	if probe.Version >= stateVersion {
		var state persistedState
		if err := json.Unmarshal(data, &state); err != nil {
			return persistedState{}, err
		}
		if state.Stacks == nil {
			state.Stacks = map[string]stack{}
		}
		return state, nil
	}
	return decodeLegacyState(data)
}

// Legacy (version 1) schema: camelCase keys, epoch-millisecond timestamps,
// and singular per-block payloads. Translation happens only here, at the
// persistence boundary; the engine itself knows nothing about this shape.

type legacyState struct {
	Capacity int                    `json:"capacity"`
	Stacks   map[string]legacyStack `json:"stacks"`
}

type legacyStack struct {
	Undo        []legacyEntry `json:"undo"`
	Redo        []legacyEntry `json:"redo"`
	LastUpdated int64         `json:"lastUpdated"`
}

type legacyEntry struct {
	ID        string          `json:"id"`
	CreatedAt int64           `json:"createdAt"`
	Operation legacyOperation `json:"operation"`
	Inverse   legacyOperation `json:"inverse"`
}

type legacyOperation struct {
	ID         string               `json:"id"`
	Type       domain.OperationType `json:"type"`
	Timestamp  int64                `json:"timestamp"`
	WorkflowID string               `json:"workflowId"`
	UserID     string               `json:"userId"`
	Data       legacyOperationData  `json:"data"`
}

type legacyOperationData struct {
	Block       *legacyBlock      `json:"block,omitempty"`
	BlockID     string            `json:"blockId,omitempty"`
	Before      *legacyPlacement  `json:"before,omitempty"`
	After       *legacyPlacement  `json:"after,omitempty"`
	Edge        *legacyEdge       `json:"edge,omitempty"`
	OldParentID string            `json:"oldParentId,omitempty"`
	NewParentID string            `json:"newParentId,omitempty"`
	OldPosition *legacyPlacement  `json:"oldPosition,omitempty"`
	NewPosition *legacyPlacement  `json:"newPosition,omitempty"`
	BeforeState *legacyGraphState `json:"beforeState,omitempty"`
	AfterState  *legacyGraphState `json:"afterState,omitempty"`
}

type legacyBlock struct {
	ID       string           `json:"id"`
	Kind     string           `json:"type"`
	Name     string           `json:"name"`
	Position *legacyPlacement `json:"position,omitempty"`
}

type legacyEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

type legacyPlacement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ParentID string  `json:"parentId,omitempty"`
}

type legacyGraphState struct {
	Blocks []legacyBlock `json:"blocks"`
	Edges  []legacyEdge  `json:"edges"`
}

// decodeLegacyState translates a version 1 document into the current schema.
func decodeLegacyState(data []byte) (persistedState, error) {
	var legacy legacyState
	if err := json.Unmarshal(data, &legacy); err != nil {
		return persistedState{}, err
	}
	if legacy.Stacks == nil && legacy.Capacity == 0 {
		return persistedState{}, errors.New("unrecognized history state document")
	}

	state := persistedState{
		Version:  stateVersion,
		Capacity: legacy.Capacity,
		Stacks:   make(map[string]stack, len(legacy.Stacks)),
	}
	for key, ls := range legacy.Stacks {
		st := stack{
			Undo:        make([]domain.OperationEntry, 0, len(ls.Undo)),
			Redo:        make([]domain.OperationEntry, 0, len(ls.Redo)),
			LastUpdated: fromEpochMillis(ls.LastUpdated),
		}
		for _, le := range ls.Undo {
			st.Undo = append(st.Undo, le.toEntry())
		}
		for _, le := range ls.Redo {
			st.Redo = append(st.Redo, le.toEntry())
		}
		state.Stacks[key] = st
	}
	return state, nil
}

// toEntry converts one legacy entry into the batch-first schema.
func (le legacyEntry) toEntry() domain.OperationEntry {
	return domain.OperationEntry{
		ID:        le.ID,
		CreatedAt: fromEpochMillis(le.CreatedAt),
		Operation: le.Operation.toOperation(),
		Inverse:   le.Inverse.toOperation(),
	}
}

// toOperation wraps singular legacy payloads into batch payloads.
func (lo legacyOperation) toOperation() domain.Operation {
	op := domain.Operation{
		ID:         lo.ID,
		Type:       lo.Type,
		Timestamp:  fromEpochMillis(lo.Timestamp),
		WorkflowID: lo.WorkflowID,
		UserID:     lo.UserID,
	}
	switch lo.Type {
	case domain.OpAddBlock, domain.OpRemoveBlock:
		if lo.Data.Block != nil {
			op.Data.Blocks = []domain.BlockState{lo.Data.Block.toBlock()}
		}
	case domain.OpMoveBlock:
		if lo.Data.BlockID != "" {
			op.Data.Moves = []domain.BlockMove{{
				BlockID: lo.Data.BlockID,
				Before:  lo.Data.Before.toPlacement(),
				After:   lo.Data.After.toPlacement(),
			}}
		}
	case domain.OpUpdateParent:
		if lo.Data.BlockID != "" {
			op.Data.Reparents = []domain.ParentChange{{
				BlockID:     lo.Data.BlockID,
				OldParentID: lo.Data.OldParentID,
				NewParentID: lo.Data.NewParentID,
				OldPosition: lo.Data.OldPosition.toPlacement(),
				NewPosition: lo.Data.NewPosition.toPlacement(),
			}}
		}
	case domain.OpAddEdge, domain.OpRemoveEdge:
		if lo.Data.Edge != nil {
			op.Data.Edges = []domain.EdgeState{lo.Data.Edge.toEdge()}
		}
	default:
		if lo.Data.BeforeState != nil {
			op.Data.Before = lo.Data.BeforeState.toGraph()
		}
		if lo.Data.AfterState != nil {
			op.Data.After = lo.Data.AfterState.toGraph()
		}
	}
	return op
}

func (lb *legacyBlock) toBlock() domain.BlockState {
	if lb == nil {
		return domain.BlockState{}
	}
	return domain.BlockState{
		ID:        lb.ID,
		Kind:      lb.Kind,
		Name:      lb.Name,
		Placement: lb.Position.toPlacement(),
	}
}

func (le *legacyEdge) toEdge() domain.EdgeState {
	if le == nil {
		return domain.EdgeState{}
	}
	return domain.EdgeState{
		ID:           le.ID,
		Source:       le.Source,
		Target:       le.Target,
		SourceHandle: le.SourceHandle,
		TargetHandle: le.TargetHandle,
	}
}

func (lp *legacyPlacement) toPlacement() domain.Placement {
	if lp == nil {
		return domain.Placement{}
	}
	return domain.Placement{X: lp.X, Y: lp.Y, ParentID: lp.ParentID}
}

func (lg *legacyGraphState) toGraph() *domain.GraphState {
	if lg == nil {
		return nil
	}
	out := &domain.GraphState{
		Blocks: make([]domain.BlockState, 0, len(lg.Blocks)),
		Edges:  make([]domain.EdgeState, 0, len(lg.Edges)),
	}
	for _, lb := range lg.Blocks {
		out.Blocks = append(out.Blocks, lb.toBlock())
	}
	for _, le := range lg.Edges {
		out.Edges = append(out.Edges, le.toEdge())
	}
	return out
}

// fromEpochMillis converts a legacy millisecond timestamp, tolerating zero.
func fromEpochMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
