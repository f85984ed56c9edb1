// Package task defines the canonical task representation shared by the
// Notion mapper, the view-model store, and the HTTP layer.
package task

import "strings"

// Theme color values derived from a task's primary categories.
const (
	ThemeBlue  = "blue"
	ThemeGreen = "green"
	ThemeGray  = "gray"
)

// Task is the normalized form of one record from the hosted database.
// Field shapes mirror the JSON consumed by the dashboard frontend.
type Task struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Date    *string  `json:"date"` // YYYY-MM-DD, nil when unscheduled
	State   string   `json:"state"`
	Cat     string   `json:"cat"`
	SubCats []string `json:"subCats"`
	CatTags []string `json:"catTag,omitempty"`
	Theme   string   `json:"theme"`
	Summary string   `json:"summary"`
	URL     string   `json:"url"`
}

// ThemeFor derives the display theme from a category list.
// Work wins over Life; anything else is gray.
func ThemeFor(cats []string) string {
	for _, c := range cats {
		if c == "Work" {
			return ThemeBlue
		}
	}
	for _, c := range cats {
		if c == "Life" {
			return ThemeGreen
		}
	}
	return ThemeGray
}

// DateOnly truncates a date string to its calendar-date portion.
// Notion date starts may carry a time component ("2024-06-12T09:00:00+09:00");
// day grouping only ever looks at the first ten characters.
func DateOnly(s string) string {
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}

// ExcludeState filters out tasks in the given workflow state. Board
// listings use it to drop completed tasks client-side; the query
// filter alone only excludes canceled ones.
func ExcludeState(tasks []Task, state string) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.State != state {
			out = append(out, t)
		}
	}
	return out
}

// GroupByDay buckets scheduled tasks by calendar date. Unscheduled
// tasks (nil date) are returned under the empty key.
func GroupByDay(tasks []Task) map[string][]Task {
	groups := make(map[string][]Task)
	for _, t := range tasks {
		key := ""
		if t.Date != nil {
			key = DateOnly(*t.Date)
		}
		groups[key] = append(groups[key], t)
	}
	return groups
}
