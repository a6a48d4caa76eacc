package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/xvierd/studyx/internal/domain"
)

// mockStateProvider is a mock implementation of ports.MCPStateProvider for testing.
type mockStateProvider struct {
	subjects    []domain.SubjectProgress
	sessions    []*domain.StudySession
	stats       *domain.StudyStats
	assignments []*domain.Assignment

	gotLimit   int
	logged     []string
	logErr     error
	completeOK bool
}

func (m *mockStateProvider) ListSubjects(ctx context.Context) ([]domain.SubjectProgress, error) {
	return m.subjects, nil
}

func (m *mockStateProvider) RecentSessions(ctx context.Context, limit int) ([]*domain.StudySession, error) {
	m.gotLimit = limit
	if len(m.sessions) > limit {
		return m.sessions[:limit], nil
	}
	return m.sessions, nil
}

func (m *mockStateProvider) Stats(ctx context.Context) (*domain.StudyStats, error) {
	return m.stats, nil
}

func (m *mockStateProvider) UpcomingAssignments(ctx context.Context, limit int) ([]*domain.Assignment, error) {
	m.gotLimit = limit
	return m.assignments, nil
}

func (m *mockStateProvider) LogSession(ctx context.Context, subject string, minutes int, notes string) (*domain.StudySession, error) {
	if m.logErr != nil {
		return nil, m.logErr
	}
	m.logged = append(m.logged, subject)
	s, err := domain.NewManualSession("sub-1", time.Duration(minutes)*time.Minute, notes, time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	s.Subject = subject
	return s, nil
}

func (m *mockStateProvider) CompleteAssignment(ctx context.Context, id string) (*domain.Assignment, error) {
	if !m.completeOK {
		return nil, domain.ErrAssignmentNotFound
	}
	a, _ := domain.NewAssignment("Essay", "sub-1", time.Date(2024, 9, 5, 23, 59, 0, 0, time.UTC), domain.PriorityHigh)
	a.ID = id
	a.Complete(time.Date(2024, 9, 4, 12, 0, 0, 0, time.UTC))
	return a, nil
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("nil result")
	}
	if len(result.Content) == 0 {
		t.Fatal("empty content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestServer_handleListSubjects(t *testing.T) {
	mock := &mockStateProvider{
		subjects: []domain.SubjectProgress{
			{SubjectID: "s1", Name: "Physics", StudySeconds: 5400, GoalHours: 10, Percentage: 15, Sessions: 3, AverageSessionSeconds: 1800},
		},
	}
	server := NewServer(mock, nil)

	result, err := server.handleListSubjects(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleListSubjects() error = %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d subjects, want 1", len(got))
	}
	if got[0]["study_time"] != "1h 30m" {
		t.Errorf("study_time = %v, want 1h 30m", got[0]["study_time"])
	}
	if got[0]["progress"] != "15%" {
		t.Errorf("progress = %v, want 15%%", got[0]["progress"])
	}
}

func TestServer_handleListSessions_Limit(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want int
	}{
		{"default", nil, defaultSessionLimit},
		{"explicit", map[string]interface{}{"limit": float64(3)}, 3},
		{"non-positive", map[string]interface{}{"limit": float64(0)}, defaultSessionLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStateProvider{}
			server := NewServer(mock, nil)
			if _, err := server.handleListSessions(context.Background(), callRequest(tt.args)); err != nil {
				t.Fatalf("handleListSessions() error = %v", err)
			}
			if mock.gotLimit != tt.want {
				t.Errorf("limit = %d, want %d", mock.gotLimit, tt.want)
			}
		})
	}
}

func TestServer_handleGetStats(t *testing.T) {
	mock := &mockStateProvider{
		stats: &domain.StudyStats{
			TotalStudySeconds:  7200,
			TotalSessions:      4,
			StreakDays:         3,
			MostProductiveHour: 9,
			FavoriteSubject:    "Math",
		},
	}
	server := NewServer(mock, nil)

	result, err := server.handleGetStats(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleGetStats() error = %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{`"total_study_time": "2h 0m"`, `"most_productive_hour": "09:00"`, `"favorite_subject": "Math"`} {
		if !strings.Contains(text, want) {
			t.Errorf("stats missing %s in %s", want, text)
		}
	}
}

func TestServer_handleLogSession(t *testing.T) {
	mock := &mockStateProvider{}
	server := NewServer(mock, nil)

	result, err := server.handleLogSession(context.Background(), callRequest(map[string]interface{}{
		"subject": "Physics",
		"minutes": float64(45),
		"notes":   "optics",
	}))
	if err != nil {
		t.Fatalf("handleLogSession() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("handleLogSession() returned error result: %s", resultText(t, result))
	}
	if len(mock.logged) != 1 || mock.logged[0] != "Physics" {
		t.Errorf("logged = %v", mock.logged)
	}
	if !strings.Contains(resultText(t, result), `"duration": "45m"`) {
		t.Errorf("unexpected result %s", resultText(t, result))
	}
}

func TestServer_handleLogSession_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		err  error
	}{
		{"missing subject", map[string]interface{}{"minutes": float64(10)}, nil},
		{"missing minutes", map[string]interface{}{"subject": "Physics"}, nil},
		{"zero minutes", map[string]interface{}{"subject": "Physics", "minutes": float64(0)}, nil},
		{"provider error", map[string]interface{}{"subject": "Nope", "minutes": float64(10)}, domain.ErrSubjectNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer(&mockStateProvider{logErr: tt.err}, nil)
			result, err := server.handleLogSession(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("handleLogSession() error = %v", err)
			}
			if !result.IsError {
				t.Error("handleLogSession() should return an error result")
			}
		})
	}
}

func TestServer_handleCompleteAssignment(t *testing.T) {
	server := NewServer(&mockStateProvider{completeOK: true}, nil)

	result, err := server.handleCompleteAssignment(context.Background(), callRequest(map[string]interface{}{
		"assignment_id": "a-1",
	}))
	if err != nil {
		t.Fatalf("handleCompleteAssignment() error = %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, `"status": "completed"`) || !strings.Contains(text, `"id": "a-1"`) {
		t.Errorf("unexpected result %s", text)
	}

	missing := NewServer(&mockStateProvider{}, nil)
	result, err = missing.handleCompleteAssignment(context.Background(), callRequest(map[string]interface{}{
		"assignment_id": "a-2",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error result for unknown assignment")
	}

	result, _ = missing.handleCompleteAssignment(context.Background(), callRequest(map[string]interface{}{}))
	if !result.IsError {
		t.Error("expected error result for missing assignment_id")
	}
}

func TestServer_ServeStopsWithContext(t *testing.T) {
	server := NewServer(&mockStateProvider{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	in, writer := io.Pipe()

	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, in, &strings.Builder{}) }()

	cancel()
	writer.Close()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if server.IsRunning() {
		t.Error("IsRunning() = true after Serve returned")
	}
}

func TestServer_Stop(t *testing.T) {
	server := NewServer(&mockStateProvider{}, nil)

	// Stop before Start should not panic
	if err := server.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if server.IsRunning() {
		t.Error("IsRunning() = true before Start")
	}
}
