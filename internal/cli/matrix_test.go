package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valter-silva-au/eisenhower/internal/core"
	"github.com/valter-silva-au/eisenhower/pkg/models"
)

// mockClassifier classifies every candidate into a fixed quadrant.
type mockClassifier struct {
	quadrant models.Quadrant
	err      error
	list     []models.Task
}

func (m *mockClassifier) Classify(_ context.Context, candidates []models.Task) ([]models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Task, len(candidates))
	for i, c := range candidates {
		c.Urgency, c.Importance, c.Quadrant = 2, 4, m.quadrant
		out[i] = c
	}
	return out, nil
}

func (m *mockClassifier) ListTasks(context.Context) ([]models.Task, error) { return m.list, m.err }
func (m *mockClassifier) DeleteTask(context.Context, string) error        { return nil }

func newTestMatrix(client *mockClassifier) matrixModel {
	engine := core.NewEngine(core.EngineConfig{Client: client})
	return newMatrixModel(context.Background(), engine, false)
}

func typeText(m matrixModel, text string) matrixModel {
	for _, r := range text {
		var msg tea.KeyMsg
		if r == ' ' {
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		}
		updated, _ := m.Update(msg)
		m = updated.(matrixModel)
	}
	return m
}

func press(m matrixModel, msg tea.KeyMsg) (matrixModel, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(matrixModel), cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestMatrixModel_Init(t *testing.T) {
	m := newTestMatrix(&mockClassifier{})

	if m.focus != focusInput {
		t.Errorf("expected focus = input, got %d", m.focus)
	}
	if cmd := m.Init(); cmd != nil {
		t.Error("expected no initial command without load on start")
	}

	m.loadOnStart = true
	if cmd := m.Init(); cmd == nil {
		t.Error("expected a load command with load on start")
	}
}

func TestMatrixModel_SubmitShowsDraftThenClassifies(t *testing.T) {
	m := newTestMatrix(&mockClassifier{quadrant: models.QuadrantSchedule})

	m = typeText(m, "Buy milk")
	if m.input != "Buy milk" {
		t.Fatalf("input = %q, want %q", m.input, "Buy milk")
	}

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a classification command")
	}
	if m.input != "" {
		t.Errorf("input should be cleared after submit, got %q", m.input)
	}
	if m.pending != 1 {
		t.Errorf("pending = %d, want 1", m.pending)
	}
	if got := m.engine.Matrix().Unclassified; len(got) != 1 {
		t.Fatalf("draft should be visible before the response, got %+v", got)
	}

	msg := cmd()
	m, _ = send(m, msg)

	if m.pending != 0 {
		t.Errorf("pending = %d, want 0", m.pending)
	}
	sched := m.engine.Matrix().Quadrants[models.QuadrantSchedule]
	if len(sched) != 1 || sched[0].Text != "Buy milk" {
		t.Errorf("expected Buy milk in Schedule, got %+v", sched)
	}
	if !strings.Contains(m.status, "Schedule") {
		t.Errorf("status = %q, want the new quadrant", m.status)
	}
}

// send feeds any message through Update.
func send(m matrixModel, msg tea.Msg) (matrixModel, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(matrixModel), cmd
}

func TestMatrixModel_EmptyInputIgnored(t *testing.T) {
	m := newTestMatrix(&mockClassifier{})
	m = typeText(m, "   ")

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command for blank input")
	}
	if len(m.engine.Snapshot()) != 0 {
		t.Error("blank input must not create a task")
	}
	if m.input != "" {
		t.Errorf("input should be cleared, got %q", m.input)
	}
}

func TestMatrixModel_ClassificationFailureKeepsDraft(t *testing.T) {
	m := newTestMatrix(&mockClassifier{err: errors.New("connection refused")})
	m = typeText(m, "Call plumber")

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(m, cmd())

	if m.err == nil {
		t.Fatal("expected the error to be shown")
	}
	if len(m.engine.Matrix().Unclassified) != 1 {
		t.Error("draft should remain unclassified")
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Error("view should show the error")
	}
}

func TestMatrixModel_Backspace(t *testing.T) {
	m := newTestMatrix(&mockClassifier{})
	m = typeText(m, "abc")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.input != "ab" {
		t.Errorf("input = %q, want %q", m.input, "ab")
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlU})
	if m.input != "" {
		t.Errorf("input = %q, want empty", m.input)
	}
}

func TestMatrixModel_TabSwitchesFocus(t *testing.T) {
	m := newTestMatrix(&mockClassifier{})

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusGrid {
		t.Errorf("expected grid focus after tab")
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusInput {
		t.Errorf("expected input focus after second tab")
	}
}

func TestMatrixModel_QuitKeys(t *testing.T) {
	m := newTestMatrix(&mockClassifier{})

	// q in the input is text, not quit.
	m, cmd := press(m, runeKey('q'))
	if cmd != nil || m.input != "q" {
		t.Errorf("q should be typed into the input, got input %q", m.input)
	}

	if _, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("expected quit command for ctrl+c")
	}

	m.focus = focusGrid
	if _, cmd := press(m, runeKey('q')); cmd == nil {
		t.Error("expected quit command for q in the grid")
	}
}

func TestMatrixModel_DeleteSelected(t *testing.T) {
	m := newTestMatrix(&mockClassifier{quadrant: models.QuadrantDoNow})
	_, _ = m.engine.Add(context.Background(), "first")
	_, _ = m.engine.Add(context.Background(), "second")
	m.focus = focusGrid

	m, _ = press(m, runeKey('j'))
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}

	m, cmd := press(m, runeKey('x'))
	if cmd == nil {
		t.Fatal("expected a delete command")
	}
	m, _ = send(m, cmd())

	snap := m.engine.Snapshot()
	if len(snap) != 1 || snap[0].Text != "first" {
		t.Errorf("expected only first to remain, got %+v", snap)
	}
	if m.cursor != 0 {
		t.Errorf("cursor should be clamped to 0, got %d", m.cursor)
	}
	if m.status != "task completed" {
		t.Errorf("status = %q", m.status)
	}
}

func TestMatrixModel_RenderWhileDeleteInFlight(t *testing.T) {
	m := newTestMatrix(&mockClassifier{quadrant: models.QuadrantDoNow})
	_, _ = m.engine.Add(context.Background(), "first")
	_, _ = m.engine.Add(context.Background(), "second")
	m.focus = focusGrid
	m, _ = press(m, runeKey('j'))

	m, cmd := press(m, runeKey('x'))
	if cmd == nil {
		t.Fatal("expected a delete command")
	}
	msg := cmd() // store shrinks before deletedMsg reaches Update

	if view := m.View(); !strings.Contains(view, "first") {
		t.Errorf("view should still render the remaining task:\n%s", view)
	}

	m, again := press(m, runeKey('x'))
	if again == nil {
		t.Fatal("expected a second delete command for the remaining task")
	}
	_ = again()
	if len(m.engine.Snapshot()) != 0 {
		t.Errorf("expected the remaining task to be deleted, got %+v", m.engine.Snapshot())
	}

	m, _ = send(m, msg)
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	_ = m.View()
}

func TestMatrixModel_DeleteBeforeClassification(t *testing.T) {
	m := newTestMatrix(&mockClassifier{quadrant: models.QuadrantDoNow})
	m = typeText(m, "Water plants")
	m, classify := press(m, tea.KeyMsg{Type: tea.KeyEnter})

	m.focus = focusGrid
	m, del := press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if del == nil {
		t.Fatal("expected a delete command")
	}
	m, _ = send(m, del())
	m, _ = send(m, classify())

	if len(m.engine.Snapshot()) != 0 {
		t.Errorf("late response repopulated the matrix: %+v", m.engine.Snapshot())
	}
	if !strings.Contains(m.status, "deleted before classification") {
		t.Errorf("status = %q", m.status)
	}
}

func TestMatrixModel_ClearAndReclassify(t *testing.T) {
	client := &mockClassifier{quadrant: models.QuadrantDelegate}
	m := newTestMatrix(client)
	_, _ = m.engine.Draft("a")
	_, _ = m.engine.Draft("b")
	m.focus = focusGrid

	m, cmd := press(m, runeKey('r'))
	if cmd == nil {
		t.Fatal("expected a reclassify command")
	}
	m, _ = send(m, cmd())
	if got := m.engine.Matrix().Quadrants[models.QuadrantDelegate]; len(got) != 2 {
		t.Errorf("expected both tasks in Delegate, got %+v", got)
	}
	if !strings.Contains(m.status, "2 updated") {
		t.Errorf("status = %q", m.status)
	}

	m, _ = press(m, runeKey('C'))
	if len(m.engine.Snapshot()) != 0 {
		t.Error("expected an empty matrix after clear")
	}
	if m.status != "2 tasks cleared" {
		t.Errorf("status = %q", m.status)
	}
}

func TestMatrixModel_Load(t *testing.T) {
	client := &mockClassifier{list: []models.Task{{ID: "srv", Text: "from server", Quadrant: "eliminate"}}}
	m := newTestMatrix(client)
	m.focus = focusGrid

	m, cmd := press(m, runeKey('L'))
	m, _ = send(m, cmd())

	if got := m.engine.Matrix().Quadrants[models.QuadrantEliminate]; len(got) != 1 {
		t.Errorf("expected the loaded task in Eliminate, got %+v", got)
	}
}

func TestMatrixModel_View(t *testing.T) {
	m := newTestMatrix(&mockClassifier{quadrant: models.QuadrantSchedule})
	_, _ = m.engine.Add(context.Background(), "Buy milk")
	_, _ = m.engine.Draft("Pending task")

	m, _ = send(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()

	for _, want := range []string{"Eisenhower Matrix", "Do Now", "Schedule", "Delegate", "Eliminate", "Unclassified", "Buy milk", "Pending task"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestStyleForQuadrant(t *testing.T) {
	if styleForQuadrant(models.QuadrantDoNow).GetForeground() != quadrantDoNow.GetForeground() {
		t.Error("Do Now should use the green style")
	}
	if styleForQuadrant(models.QuadrantUnset).GetForeground() != quadrantUnclassified.GetForeground() {
		t.Error("unset should use the unclassified style")
	}
}
