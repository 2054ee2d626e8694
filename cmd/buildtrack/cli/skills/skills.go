// Package skills matches a user prompt against a static skill rule file and
// renders a priority-grouped activation banner.
//
// The matcher is stateless and shares nothing with the edit tracker: it is
// invoked independently on each prompt and only reads the rule configuration.
package skills

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

// Match types.
const (
	MatchKeyword = "keyword"
	MatchIntent  = "intent"
)

// Priority levels, in display order.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// PromptTriggers describes what activates a skill from a prompt.
type PromptTriggers struct {
	Keywords       []string `json:"keywords,omitempty"`
	IntentPatterns []string `json:"intentPatterns,omitempty"`
}

// Rule is one skill's configuration.
type Rule struct {
	Type           string          `json:"type"`        // "guardrail" or "domain"
	Enforcement    string          `json:"enforcement"` // "block", "suggest", or "warn"
	Priority       string          `json:"priority"`    // "critical", "high", "medium", or "low"
	PromptTriggers *PromptTriggers `json:"promptTriggers,omitempty"`
}

// Rules is the parsed skill rule file.
type Rules struct {
	Version string          `json:"version"`
	Skills  map[string]Rule `json:"skills"`
}

// Matched is one skill that matched the prompt.
type Matched struct {
	Name      string
	MatchType string
	Rule      Rule
}

// LoadRules reads and parses the rule file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is project-relative by construction
	if err != nil {
		return nil, fmt.Errorf("reading skill rules: %w", err)
	}

	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing skill rules: %w", err)
	}
	return &rules, nil
}

// Match returns the skills whose triggers match the prompt. Keywords are
// case-insensitive substring matches and take precedence over intent patterns
// for the same skill. Results are ordered by skill name for deterministic
// output.
func Match(rules *Rules, prompt string) []Matched {
	lowered := strings.ToLower(prompt)

	names := make([]string, 0, len(rules.Skills))
	for name := range rules.Skills {
		names = append(names, name)
	}
	slices.Sort(names)

	var matched []Matched
	for _, name := range names {
		rule := rules.Skills[name]
		triggers := rule.PromptTriggers
		if triggers == nil {
			continue
		}

		if matchesKeyword(triggers.Keywords, lowered) {
			matched = append(matched, Matched{Name: name, MatchType: MatchKeyword, Rule: rule})
			continue
		}
		if matchesIntent(triggers.IntentPatterns, prompt) {
			matched = append(matched, Matched{Name: name, MatchType: MatchIntent, Rule: rule})
		}
	}
	return matched
}

func matchesKeyword(keywords []string, loweredPrompt string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(loweredPrompt, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func matchesIntent(patterns []string, prompt string) bool {
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			// A broken pattern disables itself, not the whole rule file.
			continue
		}
		if re.MatchString(prompt) {
			return true
		}
	}
	return false
}

const bannerRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// priorityHeadings maps priorities to their banner section headings.
var priorityHeadings = []struct {
	priority string
	heading  string
}{
	{PriorityCritical, "⚠️ CRITICAL SKILLS (REQUIRED):"},
	{PriorityHigh, "📚 RECOMMENDED SKILLS:"},
	{PriorityMedium, "💡 SUGGESTED SKILLS:"},
	{PriorityLow, "📌 OPTIONAL SKILLS:"},
}

// Banner renders the activation banner for the matched skills, grouped by
// priority. Returns "" when nothing matched.
func Banner(matched []Matched) string {
	if len(matched) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(bannerRule + "\n")
	b.WriteString("🎯 SKILL ACTIVATION CHECK\n")
	b.WriteString(bannerRule + "\n\n")

	for _, group := range priorityHeadings {
		var names []string
		for _, m := range matched {
			if m.Rule.Priority == group.priority {
				names = append(names, m.Name)
			}
		}
		if len(names) == 0 {
			continue
		}
		b.WriteString(group.heading + "\n")
		for _, name := range names {
			b.WriteString("  → " + name + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("ACTION: Use Skill tool BEFORE responding\n")
	b.WriteString(bannerRule + "\n")
	return b.String()
}
