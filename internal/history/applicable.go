package history

import "github.com/hylla/rewind/internal/domain"

// Applicable reports whether an operation could be legally re-applied to the
// document captured by snap. Used only by pruning; push/undo/redo never
// consult it.
//
// Unknown and diff operation types always report true: opaque payloads are
// assumed replayable, not verified here.
func Applicable(op domain.Operation, snap domain.Snapshot) bool {
	switch op.Type {
	case domain.OpRemoveBlock, domain.OpMoveBlock, domain.OpUpdateParent:
		// Removing, moving, or reparenting requires every block to still exist.
		for _, id := range op.BlockIDs() {
			if !snap.HasBlock(id) {
				return false
			}
		}
		return true
	case domain.OpAddBlock:
		// Re-adding collides with any block that already exists.
		for _, id := range op.BlockIDs() {
			if snap.HasBlock(id) {
				return false
			}
		}
		return true
	case domain.OpRemoveEdge:
		for _, id := range op.EdgeIDs() {
			if !snap.HasEdge(id) {
				return false
			}
		}
		return true
	case domain.OpAddEdge:
		for _, id := range op.EdgeIDs() {
			if snap.HasEdge(id) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
