package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/eisenhower/internal/core"
	"github.com/valter-silva-au/eisenhower/pkg/models"
)

// Focus targets.
const (
	focusInput = iota
	focusGrid
)

type matrixModel struct {
	engine *core.Engine
	ctx    context.Context

	focus  int
	input  string
	cursor int
	width  int
	height int

	// pending counts classification calls still in flight.
	pending     int
	loadOnStart bool
	status      string
	err         error
}

// classifiedMsg carries a classification response back to Update, where it
// is applied to the store.
type classifiedMsg struct {
	taskID   string
	response []models.Task
	err      error
}

type deletedMsg struct {
	taskID  string
	removed bool
	err     error
}

type reconciledMsg struct {
	action string
	result core.ReconcileResult
	err    error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeInputStyle = inputStyle.BorderForeground(lipgloss.Color("62"))

	headerStyle = lipgloss.NewStyle().Bold(true)

	quadrantDoNow        = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	quadrantSchedule     = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	quadrantDelegate     = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	quadrantEliminate    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	quadrantUnclassified = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedStyle = lipgloss.NewStyle().Reverse(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newMatrixModel(ctx context.Context, engine *core.Engine, loadOnStart bool) matrixModel {
	return matrixModel{
		engine:      engine,
		ctx:         ctx,
		focus:       focusInput,
		loadOnStart: loadOnStart,
	}
}

func (m matrixModel) Init() tea.Cmd {
	if m.loadOnStart {
		return loadCmd(m.ctx, m.engine)
	}
	return nil
}

func (m matrixModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab {
			m.focus = (m.focus + 1) % 2
			return m, nil
		}
		if m.focus == focusInput {
			return m.updateInput(msg)
		}
		return m.updateGrid(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case classifiedMsg:
		m.pending--
		if msg.err != nil {
			m.err = msg.err
			m.status = "classification failed, task kept as unclassified"
			return m, nil
		}
		res := m.engine.Apply(msg.response)
		m.err = nil
		m.status = describeApply(msg.taskID, m.engine, res)
		m.clampCursor()
		return m, nil

	case deletedMsg:
		m.err = msg.err
		switch {
		case !msg.removed:
			m.status = fmt.Sprintf("task %s already gone", shortID(msg.taskID))
		case msg.err != nil:
			m.status = "deleted locally, remote delete failed"
		default:
			m.status = "task completed"
		}
		m.clampCursor()
		return m, nil

	case reconciledMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = msg.action + " failed"
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("%s: %d updated, %d added", msg.action, len(msg.result.Updated), len(msg.result.Inserted))
		m.clampCursor()
		return m, nil
	}

	return m, nil
}

func (m matrixModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyEsc:
		m.focus = focusGrid
		return m, nil
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeyCtrlU:
		m.input = ""
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m matrixModel) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "i", "a":
		m.focus = focusInput
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.ordered())-1 {
			m.cursor++
		}
		return m, nil
	case " ", "x":
		m.clampCursor()
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, deleteCmd(m.ctx, m.engine, task.ID)
	case "C":
		n := m.engine.Clear()
		m.cursor = 0
		m.err = nil
		m.status = fmt.Sprintf("%d tasks cleared", n)
		return m, nil
	case "r":
		m.status = "reclassifying..."
		return m, reclassifyCmd(m.ctx, m.engine)
	case "L":
		m.status = "loading..."
		return m, loadCmd(m.ctx, m.engine)
	}
	return m, nil
}

// submit drafts the input as a task and starts its classification. The input
// is cleared whether or not a task was created.
func (m matrixModel) submit() (tea.Model, tea.Cmd) {
	text := m.input
	m.input = ""

	draft, err := m.engine.Draft(text)
	if errors.Is(err, core.ErrEmptyText) {
		return m, nil
	}
	if err != nil {
		m.err = err
		return m, nil
	}

	m.pending++
	m.status = fmt.Sprintf("classifying %q...", draft.Text)
	return m, classifyCmd(m.ctx, m.engine, draft.ID, m.engine.Candidates(draft))
}

// ordered returns tasks in the order they are drawn: the four quadrants, then
// unclassified.
func (m matrixModel) ordered() []models.Task {
	p := m.engine.Matrix()
	var tasks []models.Task
	for _, q := range models.Quadrants {
		tasks = append(tasks, p.Quadrants[q]...)
	}
	return append(tasks, p.Unclassified...)
}

// selected returns the task under the cursor. The store may shrink while a
// delete command is still in flight, so the cursor is clamped to the current
// task list here rather than trusted as an index.
func (m matrixModel) selected() (models.Task, bool) {
	tasks := m.ordered()
	if len(tasks) == 0 {
		return models.Task{}, false
	}
	i := m.cursor
	if i >= len(tasks) {
		i = len(tasks) - 1
	}
	if i < 0 {
		i = 0
	}
	return tasks[i], true
}

func (m *matrixModel) clampCursor() {
	n := len(m.ordered())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m matrixModel) View() string {
	title := titleStyle.Render(" Eisenhower Matrix ")

	style := inputStyle
	if m.focus == focusInput {
		style = activeInputStyle
	}
	width := m.width - 2
	if width < 40 {
		width = 80
	}
	input := style.Width(width - 2).Render("> " + m.input + "_")

	p := m.engine.Matrix()
	selected := ""
	if m.focus == focusGrid {
		if task, ok := m.selected(); ok {
			selected = task.ID
		}
	}

	colWidth := width/2 - 2
	cell := func(q models.Quadrant) string {
		return panelStyle.Width(colWidth).Render(renderBucket(string(q), styleForQuadrant(q), p.Quadrants[q], selected))
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, cell(models.QuadrantDoNow), cell(models.QuadrantSchedule))
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, cell(models.QuadrantDelegate), cell(models.QuadrantEliminate))
	grid := lipgloss.JoinVertical(lipgloss.Left, top, bottom)

	if len(p.Unclassified) > 0 {
		unclassified := panelStyle.Width(width - 2).Render(
			renderBucket("Unclassified", quadrantUnclassified, p.Unclassified, selected))
		grid = lipgloss.JoinVertical(lipgloss.Left, grid, unclassified)
	}

	status := m.status
	if m.pending > 0 {
		status = strings.TrimSpace(fmt.Sprintf("%s (%d pending)", status, m.pending))
	}
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("%s: %s", status, m.err))
	}

	help := helpStyle.Render("enter: add | tab: switch focus | j/k: move | space/x: complete | C: clear | r: reclassify | q: quit")

	return fmt.Sprintf("%s\n\n%s\n%s\n%s\n%s", title, input, grid, status, help)
}

func renderBucket(name string, style lipgloss.Style, tasks []models.Task, selected string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Inherit(style).Render(fmt.Sprintf("%s (%d)", name, len(tasks))))
	b.WriteString("\n")

	if len(tasks) == 0 {
		b.WriteString(helpStyle.Render("  (empty)"))
		return b.String()
	}
	for i, t := range tasks {
		line := "  " + t.Text
		if t.IsClassified() {
			line += helpStyle.Render(fmt.Sprintf("  u%d i%d", t.Urgency, t.Importance))
		}
		if t.ID == selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		if i < len(tasks)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func styleForQuadrant(q models.Quadrant) lipgloss.Style {
	switch q {
	case models.QuadrantDoNow:
		return quadrantDoNow
	case models.QuadrantSchedule:
		return quadrantSchedule
	case models.QuadrantDelegate:
		return quadrantDelegate
	case models.QuadrantEliminate:
		return quadrantEliminate
	default:
		return quadrantUnclassified
	}
}

func describeApply(taskID string, engine *core.Engine, res core.ReconcileResult) string {
	for _, id := range res.Stale {
		if id == taskID {
			return "task deleted before classification finished"
		}
	}
	for _, t := range engine.Snapshot() {
		if t.ID == taskID {
			if t.IsClassified() {
				return fmt.Sprintf("%q -> %s", t.Text, t.Quadrant)
			}
			return fmt.Sprintf("%q left unclassified", t.Text)
		}
	}
	return "classification applied"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func classifyCmd(ctx context.Context, engine *core.Engine, taskID string, candidates []models.Task) tea.Cmd {
	return func() tea.Msg {
		resp, err := engine.Submit(ctx, candidates)
		return classifiedMsg{taskID: taskID, response: resp, err: err}
	}
}

func deleteCmd(ctx context.Context, engine *core.Engine, taskID string) tea.Cmd {
	return func() tea.Msg {
		removed, err := engine.Delete(ctx, taskID)
		return deletedMsg{taskID: taskID, removed: removed, err: err}
	}
}

func reclassifyCmd(ctx context.Context, engine *core.Engine) tea.Cmd {
	return func() tea.Msg {
		res, err := engine.Reclassify(ctx)
		return reconciledMsg{action: "reclassify", result: res, err: err}
	}
}

func loadCmd(ctx context.Context, engine *core.Engine) tea.Cmd {
	return func() tea.Msg {
		res, err := engine.Load(ctx)
		return reconciledMsg{action: "load", result: res, err: err}
	}
}

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Interactive Eisenhower matrix",
	Long: `Launch an interactive terminal matrix. Type a task and press enter to have
it classified into Do Now, Schedule, Delegate or Eliminate. Tasks appear
immediately and move into their quadrant when the service answers.

Press tab to move between the input and the grid. In the grid, space or x
completes the selected task, C clears everything, r reclassifies the whole
session, L loads the service's task list, q quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}
		loadOnStart := Config != nil && Config.Sync.LoadOnStart
		p := tea.NewProgram(newMatrixModel(cmd.Context(), Engine, loadOnStart), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(matrixCmd)
}
