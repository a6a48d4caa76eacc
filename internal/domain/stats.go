package domain

import (
	"sort"
	"time"
)

// DefaultProductiveHour is reported when there are no sessions to rank.
const DefaultProductiveHour = 9

// NoFavoriteSubject is reported when no session maps to a known subject.
const NoFavoriteSubject = "None"

// StudyStats aggregates every stored collection into dashboard figures.
type StudyStats struct {
	TotalStudySeconds     int     `json:"totalStudyTime"`
	TotalSessions         int     `json:"totalSessions"`
	AverageSessionSeconds float64 `json:"averageSessionLength"`
	StreakDays            int     `json:"streakDays"`
	CompletedAssignments  int     `json:"completedAssignments"`
	AchievedGoals         int     `json:"achievedGoals"`
	MostProductiveHour    int     `json:"mostProductiveHour"`
	FavoriteSubject       string  `json:"favoriteSubject"`
}

// SubjectProgress summarizes study time for one subject against its goal.
type SubjectProgress struct {
	SubjectID             string  `json:"subjectId"`
	Name                  string  `json:"name"`
	Color                 string  `json:"color"`
	StudySeconds          int     `json:"studyTime"`
	GoalHours             float64 `json:"goalHours"`
	Percentage            float64 `json:"percentage"`
	Sessions              int     `json:"sessions"`
	AverageSessionSeconds float64 `json:"avgSessionLength"`
}

// DayTotal is the study time recorded on one calendar day.
type DayTotal struct {
	Date         string         `json:"date"`
	Weekday      time.Weekday   `json:"weekday"`
	StudySeconds int            `json:"studyTime"`
	Sessions     int            `json:"sessions"`
	BySubject    map[string]int `json:"subjects"`
}

// ComputeStats derives the dashboard figures. now anchors the streak to the
// local calendar day.
func ComputeStats(sessions []*StudySession, subjects []*Subject, assignments []*Assignment, goals []*StudyGoal, now time.Time) StudyStats {
	stats := StudyStats{
		TotalSessions:      len(sessions),
		MostProductiveHour: DefaultProductiveHour,
		FavoriteSubject:    NoFavoriteSubject,
	}

	hourCounts := make(map[int]int)
	subjectTime := make(map[string]int)
	var subjectOrder []string
	for _, s := range sessions {
		stats.TotalStudySeconds += s.DurationSeconds
		hourCounts[s.StartTime.In(now.Location()).Hour()]++
		if _, seen := subjectTime[s.SubjectID]; !seen {
			subjectOrder = append(subjectOrder, s.SubjectID)
		}
		subjectTime[s.SubjectID] += s.DurationSeconds
	}
	if stats.TotalSessions > 0 {
		stats.AverageSessionSeconds = float64(stats.TotalStudySeconds) / float64(stats.TotalSessions)
	}

	stats.StreakDays = Streak(sessions, now)

	for _, a := range assignments {
		if a.IsCompleted() {
			stats.CompletedAssignments++
		}
	}
	for _, g := range goals {
		if g.Completed {
			stats.AchievedGoals++
		}
	}

	best := 0
	for hour := 0; hour < 24; hour++ {
		if hourCounts[hour] > best {
			best = hourCounts[hour]
			stats.MostProductiveHour = hour
		}
	}

	favorite, most := "", 0
	for _, id := range subjectOrder {
		if subjectTime[id] > most {
			favorite, most = id, subjectTime[id]
		}
	}
	for _, sub := range subjects {
		if sub.ID == favorite {
			stats.FavoriteSubject = sub.Name
			break
		}
	}

	return stats
}

// Streak counts consecutive calendar days, ending today, on which at least
// one session was recorded. A day without study today means no streak.
func Streak(sessions []*StudySession, now time.Time) int {
	days := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		days[s.Date] = true
	}

	streak := 0
	day := now
	for days[day.Format(DateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// ComputeSubjectProgress reports per-subject totals in the order subjects are given.
func ComputeSubjectProgress(subjects []*Subject, sessions []*StudySession) []SubjectProgress {
	counts := make(map[string]int)
	for _, s := range sessions {
		counts[s.SubjectID]++
	}

	progress := make([]SubjectProgress, 0, len(subjects))
	for _, sub := range subjects {
		p := SubjectProgress{
			SubjectID:    sub.ID,
			Name:         sub.Name,
			Color:        sub.Color,
			StudySeconds: sub.TotalTimeSeconds,
			GoalHours:    sub.GoalHours,
			Sessions:     counts[sub.ID],
		}
		if p.Sessions > 0 {
			p.AverageSessionSeconds = float64(p.StudySeconds) / float64(p.Sessions)
		}
		if goal := sub.GoalHours * 3600; goal > 0 {
			p.Percentage = float64(p.StudySeconds) / goal * 100
			if p.Percentage > 100 {
				p.Percentage = 100
			}
		}
		progress = append(progress, p)
	}
	return progress
}

// WeekStart returns local midnight of the first day of the week containing t.
func WeekStart(t time.Time, startsOn time.Weekday) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) - int(startsOn) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// WeeklyBreakdown returns seven day totals for the week containing now.
func WeeklyBreakdown(sessions []*StudySession, now time.Time, startsOn time.Weekday) []DayTotal {
	start := WeekStart(now, startsOn)
	week := make([]DayTotal, 7)
	index := make(map[string]int, 7)
	for i := range week {
		d := start.AddDate(0, 0, i)
		week[i] = DayTotal{
			Date:      d.Format(DateLayout),
			Weekday:   d.Weekday(),
			BySubject: make(map[string]int),
		}
		index[week[i].Date] = i
	}

	for _, s := range sessions {
		i, ok := index[s.Date]
		if !ok {
			continue
		}
		week[i].StudySeconds += s.DurationSeconds
		week[i].Sessions++
		week[i].BySubject[s.SubjectID] += s.DurationSeconds
	}
	return week
}

// TopSubjects returns up to n subjects ordered by recorded time, skipping
// subjects with none.
func TopSubjects(progress []SubjectProgress, n int) []SubjectProgress {
	top := make([]SubjectProgress, 0, len(progress))
	for _, p := range progress {
		if p.StudySeconds > 0 {
			top = append(top, p)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].StudySeconds > top[j].StudySeconds
	})
	if n > 0 && len(top) > n {
		top = top[:n]
	}
	return top
}
