package domain

// Snapshot indexes the live document state an operation is checked against.
// Callers build it from the current workflow graph before pruning.
type Snapshot struct {
	BlocksByID map[string]BlockState `json:"blocks_by_id"`
	EdgesByID  map[string]EdgeState  `json:"edges_by_id"`
}

// SnapshotFromGraph indexes a full graph state by id.
func SnapshotFromGraph(g GraphState) Snapshot {
	snap := Snapshot{
		BlocksByID: make(map[string]BlockState, len(g.Blocks)),
		EdgesByID:  make(map[string]EdgeState, len(g.Edges)),
	}
	for _, b := range g.Blocks {
		snap.BlocksByID[b.ID] = b
	}
	for _, e := range g.Edges {
		snap.EdgesByID[e.ID] = e
	}
	return snap
}

// HasBlock reports whether a block currently exists in the snapshot.
func (s Snapshot) HasBlock(id string) bool {
	_, ok := s.BlocksByID[id]
	return ok
}

// HasEdge reports whether an edge currently exists in the snapshot.
func (s Snapshot) HasEdge(id string) bool {
	_, ok := s.EdgesByID[id]
	return ok
}
