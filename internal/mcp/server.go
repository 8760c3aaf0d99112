// Package mcp provides an MCP (Model Context Protocol) server that exposes an
// eis session as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/eisenhower/internal/core"
	"github.com/valter-silva-au/eisenhower/pkg/models"
)

// TaskEngine is the subset of core.Engine the server drives.
type TaskEngine interface {
	Add(ctx context.Context, text string) (models.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
	Clear() int
	Reclassify(ctx context.Context) (core.ReconcileResult, error)
	Snapshot() []models.Task
	Matrix() core.Projection
}

// MetricsSummary flattens collected metrics into name/value pairs.
type MetricsSummary interface {
	Summary() (map[string]float64, error)
}

// Server wraps an engine session and exposes it as MCP tools.
type Server struct {
	server  *gomcp.Server
	engine  TaskEngine
	metrics MetricsSummary
}

// NewServer creates a new MCP server over engine. metrics may be nil.
func NewServer(engine TaskEngine, metrics MetricsSummary, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		engine:  engine,
		metrics: metrics,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "eis", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Urgency    int    `json:"urgency,omitempty"`
	Importance int    `json:"importance,omitempty"`
	Quadrant   string `json:"quadrant,omitempty"`
}

type addTaskInput struct {
	Text string `json:"text" jsonschema:"required,the task description to classify"`
}

type addTaskOutput struct {
	Task       taskOutput `json:"task"`
	Classified bool       `json:"classified"`
	Warning    string     `json:"warning,omitempty"`
}

type listTasksInput struct {
	Quadrant string `json:"quadrant,omitempty" jsonschema:"filter by quadrant (Do Now, Schedule, Delegate, Eliminate, or unclassified)"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type getMatrixInput struct{}

type matrixOutput struct {
	DoNow        []taskOutput `json:"do_now"`
	Schedule     []taskOutput `json:"schedule"`
	Delegate     []taskOutput `json:"delegate"`
	Eliminate    []taskOutput `json:"eliminate"`
	Unclassified []taskOutput `json:"unclassified"`
	Total        int          `json:"total"`
}

type deleteTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier to delete"`
}

type messageOutput struct {
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

type clearTasksInput struct{}

type reclassifyInput struct{}

type reclassifyOutput struct {
	Updated  int `json:"updated"`
	Inserted int `json:"inserted"`
	Stale    int `json:"stale"`
	Invalid  int `json:"invalid"`
}

type getMetricsInput struct{}

type metricOutput struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type metricsOutput struct {
	Metrics []metricOutput `json:"metrics"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Add a task and classify it into an Eisenhower quadrant. The task is kept even if classification fails.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List session tasks in insertion order, optionally filtered by quadrant.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_matrix",
		Description: "Get the session tasks grouped into the four quadrants plus unclassified.",
	}, s.handleGetMatrix)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task by ID. Late classification results for it are ignored.",
	}, s.handleDeleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "clear_tasks",
		Description: "Remove every task from the session.",
	}, s.handleClearTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reclassify",
		Description: "Resubmit every session task to the classification service and merge the result.",
	}, s.handleReclassify)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get classification call and reconciliation counters for this session.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleAddTask(ctx context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, addTaskOutput, error) {
	task, err := s.engine.Add(ctx, input.Text)
	if task.ID == "" {
		if err == nil {
			err = fmt.Errorf("no task created")
		}
		return errorResult(fmt.Sprintf("adding task: %s", err)), addTaskOutput{}, nil
	}

	out := addTaskOutput{
		Task:       taskToOutput(task),
		Classified: task.IsClassified(),
	}
	if err != nil {
		out.Warning = err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	tasks := s.engine.Snapshot()

	if input.Quadrant != "" {
		matrix := core.Project(tasks)
		if q, ok := models.ParseQuadrant(input.Quadrant); ok {
			tasks = matrix.Quadrants[q]
		} else if strings.EqualFold(strings.TrimSpace(input.Quadrant), "unclassified") {
			tasks = matrix.Unclassified
		} else {
			return errorResult(fmt.Sprintf("invalid quadrant %q: must be one of Do Now, Schedule, Delegate, Eliminate, unclassified", input.Quadrant)), listTasksOutput{}, nil
		}
	}

	out := listTasksOutput{
		Tasks: tasksToOutput(tasks),
		Count: len(tasks),
	}
	return nil, out, nil
}

func (s *Server) handleGetMatrix(_ context.Context, _ *gomcp.CallToolRequest, _ getMatrixInput) (*gomcp.CallToolResult, matrixOutput, error) {
	m := s.engine.Matrix()
	out := matrixOutput{
		DoNow:        tasksToOutput(m.Quadrants[models.QuadrantDoNow]),
		Schedule:     tasksToOutput(m.Quadrants[models.QuadrantSchedule]),
		Delegate:     tasksToOutput(m.Quadrants[models.QuadrantDelegate]),
		Eliminate:    tasksToOutput(m.Quadrants[models.QuadrantEliminate]),
		Unclassified: tasksToOutput(m.Unclassified),
		Total:        m.Total(),
	}
	return nil, out, nil
}

func (s *Server) handleDeleteTask(ctx context.Context, _ *gomcp.CallToolRequest, input deleteTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), messageOutput{}, nil
	}

	removed, err := s.engine.Delete(ctx, input.TaskID)
	out := messageOutput{Message: fmt.Sprintf("task %s deleted", input.TaskID)}
	if !removed {
		out.Message = fmt.Sprintf("task %s not found", input.TaskID)
	}
	if err != nil {
		out.Warning = err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleClearTasks(_ context.Context, _ *gomcp.CallToolRequest, _ clearTasksInput) (*gomcp.CallToolResult, messageOutput, error) {
	n := s.engine.Clear()
	return nil, messageOutput{Message: fmt.Sprintf("%d tasks cleared", n)}, nil
}

func (s *Server) handleReclassify(ctx context.Context, _ *gomcp.CallToolRequest, _ reclassifyInput) (*gomcp.CallToolResult, reclassifyOutput, error) {
	res, err := s.engine.Reclassify(ctx)
	if err != nil {
		return errorResult(err.Error()), reclassifyOutput{}, nil
	}
	out := reclassifyOutput{
		Updated:  len(res.Updated),
		Inserted: len(res.Inserted),
		Stale:    len(res.Stale),
		Invalid:  res.Invalid,
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, _ getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metrics == nil {
		return errorResult("metrics not available"), metricsOutput{Metrics: []metricOutput{}}, nil
	}

	summary, err := s.metrics.Summary()
	if err != nil {
		return errorResult(fmt.Sprintf("gathering metrics: %s", err)), metricsOutput{Metrics: []metricOutput{}}, nil
	}

	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)

	out := metricsOutput{Metrics: make([]metricOutput, len(names))}
	for i, name := range names {
		out.Metrics[i] = metricOutput{Name: name, Value: summary[name]}
	}
	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t models.Task) taskOutput {
	return taskOutput{
		ID:         t.ID,
		Text:       t.Text,
		Urgency:    t.Urgency,
		Importance: t.Importance,
		Quadrant:   string(t.Quadrant),
	}
}

func tasksToOutput(tasks []models.Task) []taskOutput {
	out := make([]taskOutput, len(tasks))
	for i, t := range tasks {
		out[i] = taskToOutput(t)
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
