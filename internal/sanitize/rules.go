package sanitize

import "regexp"

// taskPrefixes matches one or more stacked field prefixes, each optionally
// followed by a list marker.
const taskPrefixes = `(?:(?:task|create|title|todo)\s*:\s*(?:\d+\.\s+|[-*•]\s+)?)+`

// Rule names. DefaultRules returns them in application order.
const (
	RuleRemovePrefixes        = "remove_prefixes"
	RuleConfirmationArtifacts = "confirmation_artifacts"
	RuleListMarkers           = "list_markers"
	RuleWrappingQuotes        = "wrapping_quotes"
	RuleNormalizeWhitespace   = "normalize_whitespace"
	RuleLLMScaffolding        = "llm_scaffolding"
	RuleActionVerbs           = "action_verbs"
)

// Rule is a named pattern/replacement pair.
type Rule struct {
	Name        string
	Description string
	Pattern     *regexp.Regexp
	Replacement string
	Enabled     bool
}

// DefaultRules returns a fresh copy of the built-in rules, all enabled.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        RuleRemovePrefixes,
			Description: `Remove field prefixes like "task:", "create:", "title:", "todo:", including prefixes repeated inside quotes`,
			Pattern: regexp.MustCompile(`(?is)^\s*` + taskPrefixes + `(?:` +
				`"\s*` + taskPrefixes + `([^"]*)"|` +
				`'\s*` + taskPrefixes + `([^']*)'|` +
				`“\s*` + taskPrefixes + `([^”]*)”|` +
				`‘\s*` + taskPrefixes + `([^’]*)’|` +
				`(.*))$`),
			Replacement: "$1$2$3$4$5",
			Enabled:     true,
		},
		{
			Name:        RuleConfirmationArtifacts,
			Description: `Remove confirmation wording left over from a previous prompt`,
			Pattern:     regexp.MustCompile(`(?i)^\s*(?:create\s+anyway|proceed|yes\s*,)\s*`),
			Enabled:     true,
		},
		{
			Name:        RuleListMarkers,
			Description: `Remove leading list markers ("1.", "-", "*", "•")`,
			Pattern:     regexp.MustCompile(`^\s*(?:\d+\.|[-*•])\s+`),
			Enabled:     true,
		},
		{
			Name:        RuleWrappingQuotes,
			Description: `Remove quotes wrapping the whole text`,
			Pattern:     regexp.MustCompile(`^\s*(?:"([^"]*)"|'([^']*)'|“([^”]*)”|‘([^’]*)’)\s*$`),
			Replacement: "$1$2$3$4",
			Enabled:     true,
		},
		{
			Name:        RuleNormalizeWhitespace,
			Description: `Collapse runs of whitespace into one space`,
			Pattern:     regexp.MustCompile(`\s{2,}|[\t\r\n]`),
			Replacement: " ",
			Enabled:     true,
		},
		{
			Name:        RuleLLMScaffolding,
			Description: `Remove assistant phrasing like "I'll create a task..."`,
			Pattern: regexp.MustCompile(`(?i)(?:^\s*(?:\d+\.|[-*•])\s*)?\bI(?:'|’|\s+wi)ll\s+create\s+` +
				`(?:the\s+following\s+(?:\d+\s+)?tasks?\s*:?|(?:a\s+|an\s+)?(?:new\s+)?task(?:\s+(?:called|named|titled|for|to))?\s*:?)\s*`),
			Enabled: true,
		},
		{
			Name:        RuleActionVerbs,
			Description: `Remove leading action verbs ("add", "create", "make", "schedule")`,
			Pattern: regexp.MustCompile(`(?i)^\s*(?:add|create|make|schedule)\s+` +
				`(?:(?:a|an|new)\s+)*(?:(?:task|todo|reminder)s?\b\s*(?::|to\b|for\b)?\s*)?`),
			Enabled: true,
		},
	}
}
