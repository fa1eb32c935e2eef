package todoist

import (
	"strings"

	"github.com/josephgoksu/TodoChat/models"
	"golang.org/x/text/cases"
)

// ContainsFold reports whether needle occurs in haystack, ignoring case.
// An empty needle matches everything.
func ContainsFold(haystack, needle string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(haystack), fold.String(needle))
}

// FilterByContent returns the tasks whose content contains query, ignoring case.
func FilterByContent(tasks []models.Task, query string) []models.Task {
	query = strings.TrimSpace(query)
	if query == "" {
		return tasks
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if ContainsFold(t.Content, query) {
			out = append(out, t)
		}
	}
	return out
}
