package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/xvierd/studyx/internal/domain"
)

// matchPrefix finds the single item whose ID starts with prefix, so the
// short IDs printed by list commands can be typed back.
func matchPrefix[T any](items []T, id func(T) string, prefix string, notFound error) (T, error) {
	var zero T
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return zero, notFound
	}

	var found []T
	for _, item := range items {
		if id(item) == prefix {
			return item, nil
		}
		if strings.HasPrefix(id(item), prefix) {
			found = append(found, item)
		}
	}

	switch len(found) {
	case 0:
		return zero, fmt.Errorf("%w: %s", notFound, prefix)
	case 1:
		return found[0], nil
	default:
		return zero, fmt.Errorf("id %q matches %d entries, type more of it", prefix, len(found))
	}
}

func findSessionID(ctx context.Context, prefix string) (string, error) {
	sessions, err := app.study.ListSessions(ctx)
	if err != nil {
		return "", err
	}
	s, err := matchPrefix(sessions, func(s *domain.StudySession) string { return s.ID }, prefix, domain.ErrSessionNotFound)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

func findAssignmentID(ctx context.Context, prefix string) (string, error) {
	assignments, err := app.study.ListAssignments(ctx, "")
	if err != nil {
		return "", err
	}
	a, err := matchPrefix(assignments, func(a *domain.Assignment) string { return a.ID }, prefix, domain.ErrAssignmentNotFound)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func findGoalID(ctx context.Context, prefix string) (string, error) {
	goals, err := app.study.ListGoals(ctx)
	if err != nil {
		return "", err
	}
	g, err := matchPrefix(goals, func(g *domain.StudyGoal) string { return g.ID }, prefix, domain.ErrGoalNotFound)
	if err != nil {
		return "", err
	}
	return g.ID, nil
}
