// Package burndown derives ideal-vs-actual remaining-work series from sprint
// date ranges and task completion data.
package burndown

import (
	"math"
	"time"

	"github.com/sprintdeck/sprintdeck/internal/project/models"
)

// MinSpanDays is the minimum timeline width a series covers. Shorter sprint
// ranges are widened to this span.
const MinSpanDays = 7

// DefaultPlaceholderDays is the width of the flat series used before a
// project has any computable burndown.
const DefaultPlaceholderDays = 21

// Point is one calendar day of a burndown series. Actual is nil for days
// strictly after "today".
type Point struct {
	Date   time.Time `json:"date"`
	Ideal  int       `json:"ideal"`
	Actual *int      `json:"actual,omitempty"`
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Generate derives the burndown series for a project from its sprints and
// tasks. It returns an empty series when the project has no sprints or no
// task carries a positive story-point estimate; callers fall back to
// PlaceholderSeries in that case.
func Generate(sprints []*models.Sprint, tasks []*models.Task, today time.Time) []Point {
	if len(sprints) == 0 {
		return nil
	}

	totalPoints := 0
	for _, t := range tasks {
		if t.StoryPoints > 0 {
			totalPoints += t.StoryPoints
		}
	}
	if totalPoints == 0 {
		return nil
	}

	start := Day(sprints[0].StartDate)
	end := Day(sprints[0].EndDate)
	for _, s := range sprints[1:] {
		if d := Day(s.StartDate); d.Before(start) {
			start = d
		}
		if d := Day(s.EndDate); d.After(end) {
			end = d
		}
	}

	spanDays := int(end.Sub(start).Hours()/24) + 1
	if spanDays < MinSpanDays {
		spanDays = MinSpanDays
	}

	// Points completed per calendar day, for the cumulative scan below.
	completedByDay := make(map[time.Time]int)
	for _, t := range tasks {
		if t.Status != models.TaskStatusDone || t.CompletionDate == nil || t.StoryPoints <= 0 {
			continue
		}
		day := Day(*t.CompletionDate)
		completedByDay[day] += t.StoryPoints
	}

	todayDay := Day(today)
	perDay := float64(totalPoints) / float64(spanDays)

	series := make([]Point, 0, spanDays)
	completed := 0
	for i := 0; i < spanDays; i++ {
		date := start.AddDate(0, 0, i)

		ideal := int(math.Round(math.Max(0, float64(totalPoints)-float64(i)*perDay)))
		point := Point{Date: date, Ideal: ideal}

		if !date.After(todayDay) {
			completed += completedByDay[date]
			actual := int(math.Round(math.Max(0, float64(totalPoints-completed))))
			point.Actual = &actual
		}

		series = append(series, point)
	}
	return series
}

// PlaceholderSeries returns a flat zero-valued series of the given width
// starting at the given day. Used for projects without a computable burndown.
func PlaceholderSeries(start time.Time, days int) []Point {
	if days <= 0 {
		days = DefaultPlaceholderDays
	}
	first := Day(start)
	zero := 0
	series := make([]Point, 0, days)
	for i := 0; i < days; i++ {
		actual := zero
		series = append(series, Point{
			Date:   first.AddDate(0, 0, i),
			Ideal:  0,
			Actual: &actual,
		})
	}
	return series
}
