// Package sanitize cleans formatting artifacts out of text before it becomes
// task content: field prefixes, list markers, wrapping quotes, leftover
// confirmation wording and assistant phrasing.
package sanitize

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Result reports what a Sanitize call changed.
type Result struct {
	Original     string   `json:"original"`
	Sanitized    string   `json:"sanitized"`
	RulesApplied []string `json:"rulesApplied"`
	HasChanges   bool     `json:"hasChanges"`
}

// TaskFields are the text fields of a task payload.
type TaskFields struct {
	Content   string
	DueString string
	Labels    []string
}

// Sanitizer applies an ordered rule list. Rules can be changed at runtime; it is safe for concurrent use.
type Sanitizer struct {
	mu     sync.RWMutex
	rules  []Rule
	logger *slog.Logger
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sanitizer) { s.logger = l }
}

// WithRules replaces the default rule list.
func WithRules(rules []Rule) Option {
	return func(s *Sanitizer) { s.rules = slices.Clone(rules) }
}

// New creates a Sanitizer with DefaultRules.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		rules:  DefaultRules(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sanitizer")
	return s
}

// Sanitize applies every enabled rule once, in order, then trims. When names are
// given only those rules run (still in list order). Empty input is returned unchanged.
func (s *Sanitizer) Sanitize(text string, names ...string) Result {
	res := Result{Original: text, Sanitized: text, RulesApplied: []string{}}
	if strings.TrimSpace(text) == "" {
		s.logger.Debug("skipping empty input")
		return res
	}

	s.mu.RLock()
	rules := s.rules
	s.mu.RUnlock()

	current := strings.TrimSpace(text)
	for _, r := range rules {
		if !r.Enabled || r.Pattern == nil {
			continue
		}
		if len(names) > 0 && !slices.Contains(names, r.Name) {
			continue
		}
		next := r.Pattern.ReplaceAllString(current, r.Replacement)
		if next != current {
			res.RulesApplied = append(res.RulesApplied, r.Name)
			current = strings.TrimSpace(next)
		}
	}

	res.Sanitized = current
	res.HasChanges = current != text
	if len(res.RulesApplied) > 0 {
		s.logger.Debug("sanitized text", "original", text, "sanitized", current, "rules", res.RulesApplied)
	}
	return res
}

// SanitizeForTodoist cleans a task payload: content rules on the content,
// whitespace only on the due string, whitespace and quotes on each label.
// Labels that end up empty are dropped.
func (s *Sanitizer) SanitizeForTodoist(f TaskFields) TaskFields {
	out := TaskFields{
		Content:   s.Sanitize(f.Content).Sanitized,
		DueString: strings.TrimSpace(s.Sanitize(f.DueString, RuleNormalizeWhitespace).Sanitized),
	}
	for _, label := range f.Labels {
		cleaned := strings.TrimSpace(s.Sanitize(label, RuleNormalizeWhitespace, RuleWrappingQuotes).Sanitized)
		if cleaned != "" {
			out.Labels = append(out.Labels, cleaned)
		}
	}
	return out
}

// AddRule appends a rule, replacing an existing rule with the same name in place.
func (s *Sanitizer) AddRule(r Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules := slices.Clone(s.rules)
	if i := slices.IndexFunc(rules, func(x Rule) bool { return x.Name == r.Name }); i >= 0 {
		rules[i] = r
	} else {
		rules = append(rules, r)
	}
	s.rules = rules
}

// RemoveRule deletes a rule by name. It returns false if the name is unknown.
func (s *Sanitizer) RemoveRule(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.rules, func(x Rule) bool { return x.Name == name })
	if i < 0 {
		return false
	}
	s.rules = slices.Delete(slices.Clone(s.rules), i, i+1)
	return true
}

// SetEnabled toggles a rule by name. It returns false if the name is unknown.
func (s *Sanitizer) SetEnabled(name string, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.rules, func(x Rule) bool { return x.Name == name })
	if i < 0 {
		return false
	}
	rules := slices.Clone(s.rules)
	rules[i].Enabled = enabled
	s.rules = rules
	return true
}

// Rules returns a copy of the current rule list.
func (s *Sanitizer) Rules() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rules)
}
