package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/josephgoksu/TodoChat/models"
)

var (
	listPattern     = regexp.MustCompile(`(?i)^(?:list|show|display|what\s+are)(?:\s+(?:me|my|all|the))*\s+(?:open\s+)?tasks?(?:\s+(?:with|containing|about|matching|for)\s+(.+?))?[?.!]*$`)
	completePattern = regexp.MustCompile(`(?i)^(?:complete|finish|close|check\s+off|mark)\s+(?:the\s+)?(?:task\s+)?(.+?)(?:\s+as\s+(?:done|complete|completed|finished))?[.!]*$`)
	updatePattern   = regexp.MustCompile(`(?i)^(?:move|update|change|reschedule|postpone|push)\s+(?:the\s+)?(?:task\s+)?(.+?)\s+to\s+(.+?)[.!]*$`)
	multiPattern    = regexp.MustCompile(`(?i)^(?:please\s+)?(?:create|add|make)\s+(?:these\s+|the\s+following\s+)?(\d+|two|three|four|five|six|seven|eight|nine|ten)?\s*(?:new\s+)?tasks\b\s*:?\s*(.*)$`)
	createPattern   = regexp.MustCompile(`(?is)^(?:please\s+)?(?:(?:create|add|make|schedule|new)\s+(?:(?:a|an|new)\s+)*(?:(task|todo|reminder)\b\s*(?::|to\b|called\b|named\b|for\b)?\s*)?|(task|todo)\s*:\s*|remind\s+me\s+to\s+)(.+)$`)

	quotedPattern   = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)
	listSplit       = regexp.MustCompile(`\s*(?:,|;|\band\b)\s*`)
	duePattern      = regexp.MustCompile(`(?i)\s+due\s+(.+)$`)
	explicitLevel   = regexp.MustCompile(`(?i)\b(?:p([1-4])|priority\s+([1-4]))\b`)
	tierPhrase      = regexp.MustCompile(`(?i)\b(?:(urgent|high|medium|low)\s+priority|priority\s+(urgent|high|medium|low))\b`)
	labelPattern    = regexp.MustCompile(`(?:^|\s)@([A-Za-z0-9_-]+)`)
	priorityOnlyArg = regexp.MustCompile(`(?i)^(?:p[1-4]|priority\s+[1-4]|(?:urgent|high|medium|low)(?:\s+priority)?)$`)
)

var numberWords = map[string]int{
	"two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// HeuristicAnalyzer classifies messages with regular expressions. It is the offline
// alternative to Recognizer and only understands a few fixed phrasings.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer creates a HeuristicAnalyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

// Analyze implements Analyzer. The conversation history is not used.
func (h *HeuristicAnalyzer) Analyze(_ context.Context, input string, _ []models.Message) Result {
	text := strings.TrimSpace(input)
	if text == "" {
		return Fallback()
	}

	if m := listPattern.FindStringSubmatch(text); m != nil {
		return Result{Action: ActionList, Confidence: 0.9, Entities: Entities{Filter: strings.TrimSpace(m[1])}, Reasoning: "list phrasing"}
	}
	if m := updatePattern.FindStringSubmatch(text); m != nil {
		e := Entities{TargetTask: strings.TrimSpace(m[1])}
		arg := strings.TrimSpace(m[2])
		if priorityOnlyArg.MatchString(arg) {
			e.Priority = extractPriority(arg)
			if tier := PriorityTier(arg); tier != nil {
				e.Priority = Priority(*tier)
			}
		} else {
			e.DueDate = arg
		}
		return Result{Action: ActionUpdate, Confidence: 0.85, Entities: e, Reasoning: "move/update phrasing"}
	}
	if m := completePattern.FindStringSubmatch(text); m != nil {
		return Result{Action: ActionComplete, Confidence: 0.85, Entities: Entities{TargetTask: strings.TrimSpace(m[1])}, Reasoning: "complete phrasing"}
	}
	if m := multiPattern.FindStringSubmatch(text); m != nil {
		if res, ok := parseMultiple(m[1], m[2]); ok {
			return res
		}
	}
	if m := createPattern.FindStringSubmatch(text); m != nil {
		confidence := 0.75
		if m[1] != "" || m[2] != "" {
			confidence = 0.9
		}
		e := parseTaskFields(m[3])
		if e.Content == "" {
			return Result{Action: ActionNone, Confidence: 0.3, Reasoning: "create phrasing without content"}
		}
		return Result{
			Action:     ActionCreate,
			Confidence: confidence,
			Entities: Entities{
				TaskContent: e.Content,
				DueDate:     e.DueDate,
				Priority:    e.Priority,
				Labels:      e.Labels,
			},
			Reasoning: "create phrasing",
		}
	}

	return Result{Action: ActionNone, Confidence: 0.3, Reasoning: "no task phrasing"}
}

func parseMultiple(countText, rest string) (Result, bool) {
	var items []string
	for _, q := range quotedPattern.FindAllStringSubmatch(rest, -1) {
		items = append(items, q[1]+q[2])
	}
	if len(items) == 0 {
		for _, part := range listSplit.Split(rest, -1) {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	}
	if len(items) == 0 {
		return Result{}, false
	}

	count := len(items)
	if countText != "" {
		if n, err := strconv.Atoi(countText); err == nil {
			count = n
		} else if n, ok := numberWords[strings.ToLower(countText)]; ok {
			count = n
		}
	}

	tasks := make([]TaskEntity, 0, len(items))
	for _, item := range items {
		if e := parseTaskFields(item); e.Content != "" {
			tasks = append(tasks, e)
		}
	}
	if len(tasks) == 0 {
		return Result{}, false
	}
	return Result{
		Action:     ActionCreateMultiple,
		Confidence: 0.85,
		Entities:   Entities{TaskCount: count, Tasks: tasks},
		Reasoning:  "multiple task phrasing",
	}, true
}

// parseTaskFields splits "Buy milk due tomorrow p2 @home" into its parts.
func parseTaskFields(text string) TaskEntity {
	var e TaskEntity
	for _, m := range labelPattern.FindAllStringSubmatch(text, -1) {
		e.Labels = append(e.Labels, m[1])
	}
	text = labelPattern.ReplaceAllString(text, "")

	e.Priority = extractPriority(text)
	text = explicitLevel.ReplaceAllString(text, "")
	text = tierPhrase.ReplaceAllString(text, "")

	if m := duePattern.FindStringSubmatchIndex(text); m != nil {
		e.DueDate = strings.TrimSpace(strings.TrimRight(text[m[2]:m[3]], ".!"))
		text = text[:m[0]]
	}

	e.Content = strings.Join(strings.Fields(text), " ")
	return e
}

func extractPriority(text string) Priority {
	if m := explicitLevel.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1] + m[2])
		return Priority(n)
	}
	if m := tierPhrase.FindStringSubmatch(text); m != nil {
		if tier := PriorityTier(m[1] + m[2]); tier != nil {
			return Priority(*tier)
		}
	}
	return 0
}
