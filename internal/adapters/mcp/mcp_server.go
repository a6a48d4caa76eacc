// Package mcp provides the MCP (Model Context Protocol) server that lets
// assistants read study progress and log sessions.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

const (
	defaultSessionLimit    = 10
	defaultAssignmentLimit = 5
)

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server        *server.MCPServer
	stateProvider ports.MCPStateProvider
	log           *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(stateProvider ports.MCPStateProvider, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		stateProvider: stateProvider,
		log:           log,
	}

	s.server = server.NewMCPServer(
		"studyx",
		Version,
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"list_subjects",
			mcp.WithDescription("List study subjects with total time and progress toward their goal hours"),
		),
		s.handleListSubjects,
	)

	s.server.AddTool(
		mcp.NewTool(
			"list_sessions",
			mcp.WithDescription("List the most recent study sessions, newest first"),
			mcp.WithNumber(
				"limit",
				mcp.Description("Maximum number of sessions to return (default: 10)"),
			),
		),
		s.handleListSessions,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_stats",
			mcp.WithDescription("Get overall study statistics: total time, streak, most productive hour and favorite subject"),
		),
		s.handleGetStats,
	)

	s.server.AddTool(
		mcp.NewTool(
			"upcoming_assignments",
			mcp.WithDescription("List unfinished assignments ordered by due date"),
			mcp.WithNumber(
				"limit",
				mcp.Description("Maximum number of assignments to return (default: 5)"),
			),
		),
		s.handleUpcomingAssignments,
	)

	s.server.AddTool(
		mcp.NewTool(
			"log_session",
			mcp.WithDescription("Record a study session that already happened"),
			mcp.WithString(
				"subject",
				mcp.Required(),
				mcp.Description("Subject ID or name"),
			),
			mcp.WithNumber(
				"minutes",
				mcp.Required(),
				mcp.Description("Length of the session in minutes"),
			),
			mcp.WithString(
				"notes",
				mcp.Description("Optional notes about what was studied"),
			),
		),
		s.handleLogSession,
	)

	s.server.AddTool(
		mcp.NewTool(
			"complete_assignment",
			mcp.WithDescription("Mark an assignment as completed"),
			mcp.WithString(
				"assignment_id",
				mcp.Required(),
				mcp.Description("The ID of the assignment to complete"),
			),
		),
		s.handleCompleteAssignment,
	)
}

// Start serves MCP requests on stdin and stdout until ctx is cancelled,
// Stop is called or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP requests over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer s.Stop()

	s.log.Info("mcp server listening on stdio")
	err := server.NewStdioServer(s.server).Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

func (s *Server) handleListSubjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subjects, err := s.stateProvider.ListSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	result := make([]map[string]any, 0, len(subjects))
	for _, p := range subjects {
		result = append(result, map[string]any{
			"id":          p.SubjectID,
			"name":        p.Name,
			"study_time":  domain.FormatDuration(p.StudySeconds),
			"sessions":    p.Sessions,
			"goal_hours":  p.GoalHours,
			"progress":    fmt.Sprintf("%.0f%%", p.Percentage),
			"avg_session": domain.FormatDuration(int(p.AverageSessionSeconds)),
		})
	}

	return jsonResult(result)
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", defaultSessionLimit))
	if limit <= 0 {
		limit = defaultSessionLimit
	}

	sessions, err := s.stateProvider.RecentSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	result := make([]map[string]any, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, sessionData(session))
	}

	return jsonResult(result)
}

func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.stateProvider.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return jsonResult(map[string]any{
		"total_study_time":      domain.FormatDuration(stats.TotalStudySeconds),
		"total_sessions":        stats.TotalSessions,
		"average_session":       domain.FormatDuration(int(stats.AverageSessionSeconds)),
		"streak_days":           stats.StreakDays,
		"completed_assignments": stats.CompletedAssignments,
		"achieved_goals":        stats.AchievedGoals,
		"most_productive_hour":  fmt.Sprintf("%02d:00", stats.MostProductiveHour),
		"favorite_subject":      stats.FavoriteSubject,
	})
}

func (s *Server) handleUpcomingAssignments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", defaultAssignmentLimit))
	if limit <= 0 {
		limit = defaultAssignmentLimit
	}

	assignments, err := s.stateProvider.UpcomingAssignments(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	result := make([]map[string]any, 0, len(assignments))
	for _, a := range assignments {
		result = append(result, assignmentData(a))
	}

	return jsonResult(result)
}

func (s *Server) handleLogSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject, err := request.RequireString("subject")
	if err != nil {
		return mcp.NewToolResultError("subject is required: " + err.Error()), nil
	}
	minutes, err := request.RequireFloat("minutes")
	if err != nil {
		return mcp.NewToolResultError("minutes is required: " + err.Error()), nil
	}
	if minutes < 1 {
		return mcp.NewToolResultError("minutes must be at least 1"), nil
	}
	notes := request.GetString("notes", "")

	session, err := s.stateProvider.LogSession(ctx, subject, int(minutes), notes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to log session: %v", err)), nil
	}

	s.log.Info("session logged over mcp", zap.String("session_id", session.ID))
	return jsonResult(sessionData(session))
}

func (s *Server) handleCompleteAssignment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("assignment_id")
	if err != nil {
		return mcp.NewToolResultError("assignment_id is required: " + err.Error()), nil
	}

	a, err := s.stateProvider.CompleteAssignment(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete assignment: %v", err)), nil
	}

	return jsonResult(assignmentData(a))
}

func sessionData(session *domain.StudySession) map[string]any {
	data := map[string]any{
		"id":         session.ID,
		"subject":    session.Subject,
		"subject_id": session.SubjectID,
		"duration":   domain.FormatDuration(session.DurationSeconds),
		"date":       session.Date,
		"started_at": session.StartTime.Format("2006-01-02T15:04:05"),
		"completed":  session.Completed,
		"notes":      session.Notes,
	}
	if session.GitCommit != "" {
		data["git_branch"] = session.GitBranch
		data["git_commit"] = session.GitCommit
	}
	return data
}

func assignmentData(a *domain.Assignment) map[string]any {
	data := map[string]any{
		"id":       a.ID,
		"title":    a.Title,
		"subject":  a.Subject,
		"due_date": a.DueDate.Format("2006-01-02 15:04"),
		"priority": string(a.Priority),
		"status":   string(a.Status),
	}
	if a.CompletedAt != nil {
		data["completed_at"] = a.CompletedAt.Format("2006-01-02T15:04:05")
	}
	return data
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
