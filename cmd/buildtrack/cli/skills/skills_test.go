package skills

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() *Rules {
	return &Rules{
		Version: "1",
		Skills: map[string]Rule{
			"database-safety": {
				Type:        "guardrail",
				Enforcement: "block",
				Priority:    PriorityCritical,
				PromptTriggers: &PromptTriggers{
					Keywords: []string{"migration", "drop table"},
				},
			},
			"api-conventions": {
				Type:        "domain",
				Enforcement: "suggest",
				Priority:    PriorityHigh,
				PromptTriggers: &PromptTriggers{
					IntentPatterns: []string{`add (an? )?endpoint`},
				},
			},
			"docs-style": {
				Type:        "domain",
				Enforcement: "warn",
				Priority:    PriorityLow,
				PromptTriggers: &PromptTriggers{
					Keywords: []string{"readme"},
				},
			},
			"no-triggers": {
				Type:     "domain",
				Priority: PriorityMedium,
			},
		},
	}
}

func TestMatch_Keyword(t *testing.T) {
	matched := Match(testRules(), "please write a DATABASE MIGRATION for users")
	require.Len(t, matched, 1)
	assert.Equal(t, "database-safety", matched[0].Name)
	assert.Equal(t, MatchKeyword, matched[0].MatchType)
}

func TestMatch_IntentPattern(t *testing.T) {
	matched := Match(testRules(), "Add an Endpoint for user search")
	require.Len(t, matched, 1)
	assert.Equal(t, "api-conventions", matched[0].Name)
	assert.Equal(t, MatchIntent, matched[0].MatchType)
}

func TestMatch_NoTriggersSkipped(t *testing.T) {
	matched := Match(testRules(), "no-triggers")
	assert.Empty(t, matched)
}

func TestMatch_NothingMatches(t *testing.T) {
	matched := Match(testRules(), "refactor the logging package")
	assert.Empty(t, matched)
}

func TestMatch_MultipleOrderedByName(t *testing.T) {
	matched := Match(testRules(), "update the readme after the migration")
	require.Len(t, matched, 2)
	assert.Equal(t, "database-safety", matched[0].Name)
	assert.Equal(t, "docs-style", matched[1].Name)
}

func TestMatch_BrokenPatternDisablesItself(t *testing.T) {
	rules := &Rules{Skills: map[string]Rule{
		"broken": {
			Priority: PriorityHigh,
			PromptTriggers: &PromptTriggers{
				IntentPatterns: []string{`(unclosed`, `valid pattern`},
			},
		},
	}}

	matched := Match(rules, "this contains a valid pattern somewhere")
	require.Len(t, matched, 1)
	assert.Equal(t, "broken", matched[0].Name)
}

func TestBanner_GroupsByPriority(t *testing.T) {
	matched := Match(testRules(), "add an endpoint, update the readme, and run the migration")
	banner := Banner(matched)

	assert.Contains(t, banner, "SKILL ACTIVATION CHECK")
	assert.Contains(t, banner, "CRITICAL SKILLS (REQUIRED):")
	assert.Contains(t, banner, "RECOMMENDED SKILLS:")
	assert.Contains(t, banner, "OPTIONAL SKILLS:")
	assert.NotContains(t, banner, "SUGGESTED SKILLS:")
	assert.Contains(t, banner, "ACTION: Use Skill tool BEFORE responding")

	// Critical section comes before the lower priorities.
	critical := strings.Index(banner, "database-safety")
	high := strings.Index(banner, "api-conventions")
	low := strings.Index(banner, "docs-style")
	assert.Less(t, critical, high)
	assert.Less(t, high, low)
}

func TestBanner_EmptyForNoMatches(t *testing.T) {
	assert.Empty(t, Banner(nil))
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skill-rules.json")
	content := `{
  "version": "1.0",
  "skills": {
    "database-safety": {
      "type": "guardrail",
      "enforcement": "block",
      "priority": "critical",
      "promptTriggers": {"keywords": ["migration"]}
    }
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0", rules.Version)
	require.Contains(t, rules.Skills, "database-safety")
	assert.Equal(t, []string{"migration"}, rules.Skills["database-safety"].PromptTriggers.Keywords)
}

func TestLoadRules_Missing(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadRules_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skill-rules.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := LoadRules(path)
	assert.Error(t, err)
}
