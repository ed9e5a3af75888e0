package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/hylla/rewind/internal/domain"
	"github.com/hylla/rewind/internal/history"
)

// seededEngine builds an engine with one add-block entry per workflow id.
func seededEngine(t *testing.T, workflowIDs ...string) *history.Engine {
	t.Helper()
	eng := history.New(nil)
	for _, workflowID := range workflowIDs {
		block := domain.BlockState{ID: "b-" + workflowID, Kind: "agent"}
		eng.Push(workflowID, "user-1", domain.OperationEntry{
			ID: "entry-" + workflowID,
			Operation: domain.Operation{
				Type:       domain.OpAddBlock,
				WorkflowID: workflowID,
				UserID:     "user-1",
				Data:       domain.OperationData{Blocks: []domain.BlockState{block}},
			},
			Inverse: domain.Operation{
				Type:       domain.OpRemoveBlock,
				WorkflowID: workflowID,
				UserID:     "user-1",
				Data:       domain.OperationData{Blocks: []domain.BlockState{block}},
			},
		})
	}
	return eng
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		msg := currentCmd()
		updated, nextCmd := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		currentCmd = nextCmd
	}
	return out
}

// readyModel builds one model sized for rendering.
func readyModel(t *testing.T, eng *history.Engine, opts ...Option) Model {
	t.Helper()
	m := NewModel(eng, opts...)
	return applyMsg(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func TestViewListsResidentStacks(t *testing.T) {
	eng := seededEngine(t, "wf-1", "wf-2")
	m := readyModel(t, eng)

	rendered := fmt.Sprint(m.View().Content)
	if !strings.Contains(rendered, "wf-1:user-1") || !strings.Contains(rendered, "wf-2:user-1") {
		t.Fatalf("view missing stack keys:\n%s", rendered)
	}
	if !strings.Contains(rendered, "undo 1") {
		t.Fatalf("view missing stack depths:\n%s", rendered)
	}
}

func TestUndoKeyMovesEntryToRedo(t *testing.T) {
	eng := seededEngine(t, "wf-1")
	m := readyModel(t, eng)

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'u', Text: "u"})
	if undoSize, redoSize := eng.StackSizes("wf-1", "user-1"); undoSize != 0 || redoSize != 1 {
		t.Fatalf("sizes after undo key = %d, %d, want 0, 1", undoSize, redoSize)
	}
	if !strings.Contains(m.status, "undid") {
		t.Fatalf("status = %q, want undo confirmation", m.status)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'u', Text: "u"})
	if m.status != "nothing to undo" {
		t.Fatalf("status = %q, want nothing to undo", m.status)
	}
}

func TestRedoKeyRestoresEntry(t *testing.T) {
	eng := seededEngine(t, "wf-1")
	m := readyModel(t, eng)

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'u', Text: "u"})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'r', Text: "r"})
	if undoSize, redoSize := eng.StackSizes("wf-1", "user-1"); undoSize != 1 || redoSize != 0 {
		t.Fatalf("sizes after redo key = %d, %d, want 1, 0", undoSize, redoSize)
	}
	if !strings.Contains(m.status, "redid") {
		t.Fatalf("status = %q, want redo confirmation", m.status)
	}
}

func TestClearRedoKey(t *testing.T) {
	eng := seededEngine(t, "wf-1")
	m := readyModel(t, eng)

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'u', Text: "u"})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'x', Text: "x"})
	if _, redoSize := eng.StackSizes("wf-1", "user-1"); redoSize != 0 {
		t.Fatalf("redo size after clear = %d, want 0", redoSize)
	}
}

func TestStackNavigation(t *testing.T) {
	eng := seededEngine(t, "wf-1", "wf-2", "wf-3")
	m := readyModel(t, eng)

	if m.selectedKey != 0 {
		t.Fatalf("initial selection = %d, want 0", m.selectedKey)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	if m.selectedKey != 2 {
		t.Fatalf("selection after two downs = %d, want 2", m.selectedKey)
	}
	// Moving past the end stays clamped.
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	if m.selectedKey != 2 {
		t.Fatalf("selection after clamped down = %d, want 2", m.selectedKey)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyUp})
	if m.selectedKey != 1 {
		t.Fatalf("selection after up = %d, want 1", m.selectedKey)
	}
}

func TestClearKeyDropsStack(t *testing.T) {
	eng := seededEngine(t, "wf-1", "wf-2")
	m := readyModel(t, eng)

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'X', Text: "X"})
	if len(eng.Keys()) != 1 {
		t.Fatalf("resident keys after clear = %v, want one", eng.Keys())
	}
	if len(m.stackKeys) != 1 {
		t.Fatalf("model keys after clear = %v, want one", m.stackKeys)
	}
}

func TestQuitKeyReturnsQuitCmd(t *testing.T) {
	eng := seededEngine(t, "wf-1")
	m := readyModel(t, eng)

	updated, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	if _, ok := updated.(Model); !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestKeyOverridesRebind(t *testing.T) {
	eng := seededEngine(t, "wf-1")
	m := readyModel(t, eng, WithKeyOverrides(KeyOverrides{Undo: "z"}))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'z', Text: "z"})
	if undoSize, _ := eng.StackSizes("wf-1", "user-1"); undoSize != 0 {
		t.Fatalf("undo size after rebound key = %d, want 0", undoSize)
	}
	if !strings.Contains(m.status, "undid") {
		t.Fatalf("status = %q, want undo confirmation", m.status)
	}
}
