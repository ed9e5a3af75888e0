package history

import (
	"encoding/json"
	"slices"

	"github.com/hylla/rewind/internal/domain"
)

// coalesceAction describes what a push should do with the incoming entry
// relative to the current top of the undo stack.
type coalesceAction int

const (
	// coalesceAppend appends the incoming entry normally.
	coalesceAppend coalesceAction = iota
	// coalesceAbsorb drops the incoming entry without touching the stack.
	coalesceAbsorb
	// coalesceReplaceTop replaces the top entry with the merged result.
	coalesceReplaceTop
	// coalesceDropTop removes the top entry; the merged moves cancel out.
	coalesceDropTop
)

// coalesce decides how the incoming entry combines with the stack top.
// The merged entry is meaningful only for coalesceReplaceTop.
func coalesce(top, incoming domain.OperationEntry) (domain.OperationEntry, coalesceAction) {
	if incoming.Operation.Type.IsMove() && top.Operation.Type.IsMove() {
		if !sameMoveTargets(top.Operation, incoming.Operation) {
			return domain.OperationEntry{}, coalesceAppend
		}
		merged, cancels := mergeMoves(top, incoming)
		if cancels {
			return domain.OperationEntry{}, coalesceDropTop
		}
		return merged, coalesceReplaceTop
	}
	if incoming.Operation.Type.IsDiff() && duplicateDiff(top.Operation, incoming.Operation) {
		return domain.OperationEntry{}, coalesceAbsorb
	}
	return domain.OperationEntry{}, coalesceAppend
}

// isNoopMove reports whether a move operation leaves every target where it
// started. Such pushes are discarded before they ever reach a stack.
func isNoopMove(op domain.Operation) bool {
	if !op.Type.IsMove() {
		return false
	}
	for _, mv := range op.Data.Moves {
		if !mv.Before.Equal(mv.After) {
			return false
		}
	}
	return true
}

// sameMoveTargets reports whether two moves address the exact same block set.
func sameMoveTargets(a, b domain.Operation) bool {
	return slices.Equal(a.MoveTargets(), b.MoveTargets())
}

// mergeMoves combines two consecutive same-target moves into one entry using,
// per block, the earliest recorded before and the latest after. The merged
// inverse is the combined operation with before and after swapped. cancels is
// true when every block rounds back to its origin.
func mergeMoves(top, incoming domain.OperationEntry) (domain.OperationEntry, bool) {
	earliestBefore := make(map[string]domain.Placement, len(top.Operation.Data.Moves))
	for _, mv := range top.Operation.Data.Moves {
		if _, seen := earliestBefore[mv.BlockID]; !seen {
			earliestBefore[mv.BlockID] = mv.Before
		}
	}

	moves := make([]domain.BlockMove, 0, len(incoming.Operation.Data.Moves))
	cancels := true
	for _, mv := range incoming.Operation.Data.Moves {
		before, ok := earliestBefore[mv.BlockID]
		if !ok {
			before = mv.Before
		}
		merged := domain.BlockMove{BlockID: mv.BlockID, Before: before, After: mv.After}
		if !merged.Before.Equal(merged.After) {
			cancels = false
		}
		moves = append(moves, merged)
	}
	if cancels {
		return domain.OperationEntry{}, true
	}

	operation := incoming.Operation
	operation.Data = domain.OperationData{Moves: moves}

	inverse := incoming.Inverse
	inverse.Type = domain.OpMoveBlock
	inverseMoves := make([]domain.BlockMove, 0, len(moves))
	for _, mv := range moves {
		inverseMoves = append(inverseMoves, domain.BlockMove{BlockID: mv.BlockID, Before: mv.After, After: mv.Before})
	}
	inverse.Data = domain.OperationData{Moves: inverseMoves}

	// The merged entry keeps the top entry's identity: it is still the same
	// logical undo step, extended by the newer movement.
	merged := top
	merged.Operation = operation
	merged.Inverse = inverse
	return merged, false
}

// duplicateDiff reports whether two diff operations carry identical payloads.
// Payloads are compared by their JSON encoding; only the stack top is ever
// compared, once per push, so the full deep-compare stays cheap enough.
func duplicateDiff(top, incoming domain.Operation) bool {
	if top.Type != incoming.Type {
		return false
	}
	topData, err := json.Marshal(top.Data)
	if err != nil {
		return false
	}
	incomingData, err := json.Marshal(incoming.Data)
	if err != nil {
		return false
	}
	return string(topData) == string(incomingData)
}
