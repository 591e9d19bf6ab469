package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/internal/cli/testutil"
)

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name        string
		checks      []HealthCheck
		scriptCount int
		minScore    int
		maxScore    int
	}{
		{
			name:        "no checks returns 100",
			checks:      nil,
			scriptCount: 10,
			minScore:    100,
			maxScore:    100,
		},
		{
			name: "all passing returns 100",
			checks: []HealthCheck{
				{RuleID: "SC01", Status: "pass", IssueCount: 0},
				{RuleID: "SC02", Status: "pass", IssueCount: 0},
			},
			scriptCount: 10,
			minScore:    100,
			maxScore:    100,
		},
		{
			name: "warnings reduce score",
			checks: []HealthCheck{
				{RuleID: "SC01", Status: "pass", IssueCount: 0},
				{RuleID: "SC03", Status: "warn", IssueCount: 2},
			},
			scriptCount: 10,
			minScore:    80,
			maxScore:    95,
		},
		{
			name: "errors reduce score more",
			checks: []HealthCheck{
				{RuleID: "SC01", Status: "error", IssueCount: 2},
			},
			scriptCount: 10,
			minScore:    70,
			maxScore:    85,
		},
		{
			name: "more scripts means less impact per issue",
			checks: []HealthCheck{
				{RuleID: "SC03", Status: "warn", IssueCount: 5},
			},
			scriptCount: 100,
			minScore:    90,
			maxScore:    100,
		},
		{
			name: "many issues can reduce to 0",
			checks: []HealthCheck{
				{RuleID: "SC01", Status: "error", IssueCount: 20},
				{RuleID: "SV01", Status: "error", IssueCount: 20},
			},
			scriptCount: 5,
			minScore:    0,
			maxScore:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := calculateHealthScore(tt.checks, tt.scriptCount)
			assert.GreaterOrEqual(t, score, tt.minScore, "score should be >= %d", tt.minScore)
			assert.LessOrEqual(t, score, tt.maxScore, "score should be <= %d", tt.maxScore)
		})
	}
}

func TestGetRecommendation(t *testing.T) {
	for _, rule := range healthRules {
		t.Run(rule.ID, func(t *testing.T) {
			assert.NotEmpty(t, getRecommendation(rule.ID), "expected recommendation for %s", rule.ID)
		})
	}
	assert.Empty(t, getRecommendation("UNKNOWN"))
}

func TestGenerateRecommendations(t *testing.T) {
	checks := []HealthCheck{
		{RuleID: "SC01", Status: "error", IssueCount: 1},
		{RuleID: "SC03", Status: "warn", IssueCount: 2},
		{RuleID: "SV01", Status: "pass", IssueCount: 0},
	}

	recommendations := generateRecommendations(checks)
	require.Len(t, recommendations, 2)
	assert.Contains(t, recommendations[0], "syntax errors")
	assert.Contains(t, recommendations[1], "fmt --write")

	all := make([]HealthCheck, 0, len(healthRules))
	for _, rule := range healthRules {
		all = append(all, HealthCheck{RuleID: rule.ID, Status: rule.Severity, IssueCount: 1})
	}
	assert.Len(t, generateRecommendations(all), 5)
}

func TestDoctorCommand_JSON(t *testing.T) {
	dir := testutil.SetupTestScripts(t, map[string]string{
		"good.sieve":     "require [\"fileinto\"];\nfileinto \"Archive\";\n",
		"messy.sieve":    `require "vacation"; vacation "away";`,
		"missing.sieve":  "fileinto \"Archive\";\n",
		"sub/bad.sieve":  "if true {\n",
		"sub/notes.text": "ignored",
	})

	out, _, err := runCommand(t, NewDoctorCommand(), "", "-f", "json", dir)
	require.NoError(t, err)

	var report DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, 4, report.Summary.Scripts)
	assert.Equal(t, 2, report.Summary.Valid)
	assert.Equal(t, 2, report.Summary.Invalid)
	assert.Equal(t, []string{"fileinto", "vacation"}, report.Summary.Extensions)

	status := make(map[string]HealthCheck)
	for _, c := range report.HealthChecks {
		status[c.RuleID] = c
	}
	require.Len(t, status, len(healthRules))
	assert.Equal(t, "warn", status["CF01"].Status, "no config file in tests")
	assert.Equal(t, "pass", status["CF02"].Status)
	assert.Equal(t, "error", status["SC01"].Status)
	assert.Equal(t, "pass", status["SC02"].Status)
	assert.Equal(t, "warn", status["SC03"].Status)
	assert.Equal(t, 1, status["SC03"].IssueCount)
	assert.Equal(t, "error", status["SV01"].Status)
	assert.Equal(t, "pass", status["SV02"].Status)

	assert.Equal(t, 4, report.IssueCount)
	assert.Less(t, report.Score, 100)
	assert.NotEmpty(t, report.Recommendations)

	// groups are sorted
	assert.Equal(t, "configuration", report.HealthChecks[0].Group)
	assert.Equal(t, "server", report.HealthChecks[len(report.HealthChecks)-1].Group)
}

func TestRenderDoctor(t *testing.T) {
	report := &DoctorOutput{
		Summary: ProjectSummary{Scripts: 2, Valid: 1, Invalid: 1, Extensions: []string{"fileinto"}},
		HealthChecks: []HealthCheck{
			{RuleID: "SC01", Name: "syntax", Group: "scripts", Status: "error", IssueCount: 1, Details: []string{"a.sieve: bad"}},
			{RuleID: "SC03", Name: "canonical-form", Group: "scripts", Status: "pass"},
		},
		Score:           90,
		Recommendations: []string{"Fix syntax errors"},
	}

	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRenderer(output.ModeMarkdown)
		require.NoError(t, renderDoctorMarkdown(tr.Renderer, report))
		out := tr.Output()
		testutil.AssertValidMarkdown(t, out)
		testutil.AssertOutputMode(t, tr, output.ModeMarkdown)
		assert.Contains(t, out, "### Scripts")
		assert.Contains(t, out, "- **[ERROR]** SC01: syntax (1 issues)")
		assert.Contains(t, out, "**90/100**")
	})

	t.Run("text", func(t *testing.T) {
		tr := testutil.NewTestRenderer(output.ModeText)
		require.NoError(t, renderDoctorText(tr.Renderer, report))
		out := tr.Output()
		assert.Contains(t, out, "Scripts: 2 | Valid: 1 | Invalid: 1")
		assert.Contains(t, out, "SC01: syntax (1 issues)")
		assert.Contains(t, out, "1. Fix syntax errors")
	})
}
