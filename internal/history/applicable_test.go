package history

import (
	"testing"

	"github.com/hylla/rewind/internal/domain"
)

// snapshotWith builds a snapshot containing the given block and edge ids.
func snapshotWith(blockIDs, edgeIDs []string) domain.Snapshot {
	graph := domain.GraphState{}
	for _, id := range blockIDs {
		graph.Blocks = append(graph.Blocks, domain.BlockState{ID: id})
	}
	for _, id := range edgeIDs {
		graph.Edges = append(graph.Edges, domain.EdgeState{ID: id})
	}
	return domain.SnapshotFromGraph(graph)
}

func blockOp(t domain.OperationType, ids ...string) domain.Operation {
	op := domain.Operation{Type: t}
	for _, id := range ids {
		op.Data.Blocks = append(op.Data.Blocks, domain.BlockState{ID: id})
	}
	return op
}

func edgeOp(t domain.OperationType, ids ...string) domain.Operation {
	op := domain.Operation{Type: t}
	for _, id := range ids {
		op.Data.Edges = append(op.Data.Edges, domain.EdgeState{ID: id})
	}
	return op
}

// TestApplicable verifies the existence rules per operation type.
func TestApplicable(t *testing.T) {
	snap := snapshotWith([]string{"b1", "b2"}, []string{"e1"})

	cases := []struct {
		name string
		op   domain.Operation
		want bool
	}{
		{"remove existing blocks", blockOp(domain.OpRemoveBlock, "b1", "b2"), true},
		{"remove with one missing block", blockOp(domain.OpRemoveBlock, "b1", "b9"), false},
		{"add colliding block", blockOp(domain.OpAddBlock, "b1"), false},
		{"add fresh blocks", blockOp(domain.OpAddBlock, "b8", "b9"), true},
		{"move existing block", domain.Operation{
			Type: domain.OpMoveBlock,
			Data: domain.OperationData{Moves: []domain.BlockMove{{BlockID: "b1"}}},
		}, true},
		{"move deleted block", domain.Operation{
			Type: domain.OpMoveBlock,
			Data: domain.OperationData{Moves: []domain.BlockMove{{BlockID: "b9"}}},
		}, false},
		{"reparent existing block", domain.Operation{
			Type: domain.OpUpdateParent,
			Data: domain.OperationData{Reparents: []domain.ParentChange{{BlockID: "b2"}}},
		}, true},
		{"reparent deleted block", domain.Operation{
			Type: domain.OpUpdateParent,
			Data: domain.OperationData{Reparents: []domain.ParentChange{{BlockID: "b9"}}},
		}, false},
		{"remove existing edge", edgeOp(domain.OpRemoveEdge, "e1"), true},
		{"remove missing edge", edgeOp(domain.OpRemoveEdge, "e9"), false},
		{"add colliding edge", edgeOp(domain.OpAddEdge, "e1"), false},
		{"add fresh edge", edgeOp(domain.OpAddEdge, "e9"), true},
		{"opaque diff always applies", domain.Operation{Type: domain.OpApplyDiff}, true},
		{"unknown type always applies", domain.Operation{Type: domain.OperationType("mystery")}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Applicable(tc.op, snap); got != tc.want {
				t.Fatalf("Applicable() = %t, want %t", got, tc.want)
			}
		})
	}
}

// TestApplicableOnEmptySnapshot verifies behavior against an empty document.
func TestApplicableOnEmptySnapshot(t *testing.T) {
	empty := domain.Snapshot{}
	if Applicable(blockOp(domain.OpRemoveBlock, "b1"), empty) {
		t.Fatal("Applicable() = true for removing from empty document")
	}
	if !Applicable(blockOp(domain.OpAddBlock, "b1"), empty) {
		t.Fatal("Applicable() = false for adding to empty document")
	}
}
