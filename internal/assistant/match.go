package assistant

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/josephgoksu/TodoChat/internal/todoist"
	"github.com/josephgoksu/TodoChat/models"
)

// FindDuplicates returns the tasks whose content contains content, or is
// contained in it, ignoring case.
func FindDuplicates(content string, tasks []models.Task) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if todoist.ContainsFold(t.Content, content) || todoist.ContainsFold(content, t.Content) {
			out = append(out, t)
		}
	}
	return out
}

var (
	ambiguousPriority = regexp.MustCompile(`(?i)\b(?:important|urgent|asap|immediately)\b`)
	explicitPriority  = regexp.MustCompile(`(?i)\b(?:p[1-4]|priority\s*[1-4])\b`)
	prioritySelection = regexp.MustCompile(`(?i)^(?:p|priority\s*)([1-4])$`)
)

// HasAmbiguousPriority reports whether text uses a priority word that does not
// map to one level ("important", "urgent", "asap", "immediately") without also
// naming an explicit level such as "p2".
func HasAmbiguousPriority(text string) bool {
	return ambiguousPriority.MatchString(text) && !explicitPriority.MatchString(text)
}

// ParsePrioritySelection reads an answer to the priority question: "P1".."P4"
// selects that level and "proceed" selects 4.
func ParsePrioritySelection(text string) (int, bool) {
	s := strings.TrimRight(strings.ToLower(strings.Join(strings.Fields(text), " ")), ".!")
	if s == "proceed" {
		return models.PriorityUrgent, true
	}
	if m := prioritySelection.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}
