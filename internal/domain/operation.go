package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// OperationType discriminates the reversible edit variants.
type OperationType string

// OperationType values recorded by the history engine. Structural operations
// carry batch payloads; the diff operations carry opaque before/after graphs.
const (
	OpAddBlock     OperationType = "add-block"
	OpRemoveBlock  OperationType = "remove-block"
	OpMoveBlock    OperationType = "move-block"
	OpUpdateParent OperationType = "update-parent"
	OpAddEdge      OperationType = "add-edge"
	OpRemoveEdge   OperationType = "remove-edge"
	OpApplyDiff    OperationType = "apply-diff"
	OpAcceptDiff   OperationType = "accept-diff"
	OpRejectDiff   OperationType = "reject-diff"
)

// IsMove reports whether the type is a block move.
func (t OperationType) IsMove() bool {
	return t == OpMoveBlock
}

// IsDiff reports whether the type is one of the opaque diff variants.
func (t OperationType) IsDiff() bool {
	switch t {
	case OpApplyDiff, OpAcceptDiff, OpRejectDiff:
		return true
	default:
		return false
	}
}

// IsKnownOperationType reports whether the type is one the engine understands
// structurally. Unknown types are still accepted and treated as opaque.
func IsKnownOperationType(t OperationType) bool {
	switch t {
	case OpAddBlock, OpRemoveBlock, OpMoveBlock, OpUpdateParent,
		OpAddEdge, OpRemoveEdge, OpApplyDiff, OpAcceptDiff, OpRejectDiff:
		return true
	default:
		return false
	}
}

// Placement locates a block on the canvas, optionally inside a parent block.
type Placement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ParentID string  `json:"parent_id,omitempty"`
}

// Equal reports whether two placements are identical.
func (p Placement) Equal(other Placement) bool {
	return p.X == other.X && p.Y == other.Y && p.ParentID == other.ParentID
}

// BlockState captures one workflow block as it existed at operation time.
type BlockState struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name,omitempty"`
	Placement Placement `json:"placement"`
}

// EdgeState captures one workflow edge as it existed at operation time.
type EdgeState struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
}

// BlockMove records one block's placement before and after a move.
type BlockMove struct {
	BlockID string    `json:"block_id"`
	Before  Placement `json:"before"`
	After   Placement `json:"after"`
}

// ParentChange records one block's reparenting with its placements.
type ParentChange struct {
	BlockID     string    `json:"block_id"`
	OldParentID string    `json:"old_parent_id,omitempty"`
	NewParentID string    `json:"new_parent_id,omitempty"`
	OldPosition Placement `json:"old_position"`
	NewPosition Placement `json:"new_position"`
}

// GraphState is a full block/edge snapshot carried by the opaque diff
// operations. The engine never interprets it beyond duplicate suppression.
type GraphState struct {
	Blocks []BlockState `json:"blocks"`
	Edges  []EdgeState  `json:"edges"`
}

// OperationData is the variant payload. Exactly the fields relevant to the
// operation type are populated; everything else stays empty.
type OperationData struct {
	Blocks    []BlockState   `json:"blocks,omitempty"`
	Moves     []BlockMove    `json:"moves,omitempty"`
	Reparents []ParentChange `json:"reparents,omitempty"`
	Edges     []EdgeState    `json:"edges,omitempty"`
	Before    *GraphState    `json:"before,omitempty"`
	After     *GraphState    `json:"after,omitempty"`
}

// Operation is one tagged, reversible description of a workflow graph edit.
type Operation struct {
	ID         string        `json:"id"`
	Type       OperationType `json:"type"`
	Timestamp  time.Time     `json:"timestamp"`
	WorkflowID string        `json:"workflow_id"`
	UserID     string        `json:"user_id"`
	Data       OperationData `json:"data"`
}

// BlockIDs returns the block ids the operation references, in payload order.
func (o Operation) BlockIDs() []string {
	switch o.Type {
	case OpAddBlock, OpRemoveBlock:
		out := make([]string, 0, len(o.Data.Blocks))
		for _, b := range o.Data.Blocks {
			out = append(out, b.ID)
		}
		return out
	case OpMoveBlock:
		out := make([]string, 0, len(o.Data.Moves))
		for _, mv := range o.Data.Moves {
			out = append(out, mv.BlockID)
		}
		return out
	case OpUpdateParent:
		out := make([]string, 0, len(o.Data.Reparents))
		for _, rp := range o.Data.Reparents {
			out = append(out, rp.BlockID)
		}
		return out
	default:
		return nil
	}
}

// EdgeIDs returns the edge ids the operation references, in payload order.
func (o Operation) EdgeIDs() []string {
	switch o.Type {
	case OpAddEdge, OpRemoveEdge:
		out := make([]string, 0, len(o.Data.Edges))
		for _, e := range o.Data.Edges {
			out = append(out, e.ID)
		}
		return out
	default:
		return nil
	}
}

// MoveTargets returns the sorted, deduplicated set of moved block ids.
// Two move operations coalesce only when these sets match exactly.
func (o Operation) MoveTargets() []string {
	if !o.Type.IsMove() {
		return nil
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(o.Data.Moves))
	for _, mv := range o.Data.Moves {
		if _, dup := seen[mv.BlockID]; dup {
			continue
		}
		seen[mv.BlockID] = struct{}{}
		out = append(out, mv.BlockID)
	}
	sort.Strings(out)
	return out
}

// Summary renders a short human-readable description for logs and UI rows.
func (o Operation) Summary() string {
	switch o.Type {
	case OpAddBlock:
		return fmt.Sprintf("add %s", countNoun(len(o.Data.Blocks), "block"))
	case OpRemoveBlock:
		return fmt.Sprintf("remove %s", countNoun(len(o.Data.Blocks), "block"))
	case OpMoveBlock:
		return fmt.Sprintf("move %s", countNoun(len(o.Data.Moves), "block"))
	case OpUpdateParent:
		return fmt.Sprintf("reparent %s", countNoun(len(o.Data.Reparents), "block"))
	case OpAddEdge:
		return fmt.Sprintf("add %s", countNoun(len(o.Data.Edges), "edge"))
	case OpRemoveEdge:
		return fmt.Sprintf("remove %s", countNoun(len(o.Data.Edges), "edge"))
	case OpApplyDiff:
		return "apply diff"
	case OpAcceptDiff:
		return "accept diff"
	case OpRejectDiff:
		return "reject diff"
	default:
		return string(o.Type)
	}
}

// Validate checks the minimum shape required before an operation enters a stack.
func (o Operation) Validate() error {
	if strings.TrimSpace(string(o.Type)) == "" {
		return ErrInvalidOperationType
	}
	if strings.TrimSpace(o.WorkflowID) == "" {
		return ErrMissingWorkflowID
	}
	if strings.TrimSpace(o.UserID) == "" {
		return ErrMissingUserID
	}
	return nil
}

// OperationEntry pairs one operation with the inverse that exactly undoes it.
// The engine never derives inverses; callers supply both sides.
type OperationEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Operation Operation `json:"operation"`
	Inverse   Operation `json:"inverse"`
}

// Validate checks both halves of the entry.
func (e OperationEntry) Validate() error {
	if err := e.Operation.Validate(); err != nil {
		return fmt.Errorf("operation: %w", err)
	}
	if err := e.Inverse.Validate(); err != nil {
		return fmt.Errorf("inverse: %w", err)
	}
	return nil
}

// StackKey derives the identity of one independent undo/redo history.
func StackKey(workflowID, userID string) string {
	return strings.TrimSpace(workflowID) + ":" + strings.TrimSpace(userID)
}

// SplitStackKey recovers the workflow and user ids from a stack key.
func SplitStackKey(key string) (workflowID, userID string) {
	workflowID, userID, _ = strings.Cut(key, ":")
	return workflowID, userID
}

// countNoun formats "N noun(s)" with naive pluralization.
func countNoun(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
