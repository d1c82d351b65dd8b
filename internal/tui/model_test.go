package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examradar/internal/domain"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		SnippetsCount: 5,
		Clusters: []domain.ClusterSummary{
			{Count: 3, Example: "What is the capital of France?", Files: []string{"2019.pdf", "2020.pdf"}},
			{Count: 2, Example: "Explain the process of photosynthesis."},
		},
		MostProbable: []domain.RankedEntry{
			{Rank: 1, Example: "What is the capital of France?", Frequency: 3},
			{Rank: 2, Example: "Explain the process of photosynthesis.", Frequency: 2},
		},
		StudyPlan: []domain.PlanEntry{
			{Day: 1, Task: "Revise: What is the capital of France?... (focus on repeated topics)"},
			{Day: 2, Task: "Revise: Explain the process of photosynthesis.... (focus on repeated topics)"},
		},
		Summary: domain.Summary{GPT: "Geography dominates."},
	}
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func typeText(m Model, s string) Model {
	return press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestModel_LoadingBeforeSize(t *testing.T) {
	assert.Equal(t, "Loading...", New(sampleReport(), "x").View())
}

func TestModel_RendersTabs(t *testing.T) {
	m := sized(t, New(sampleReport(), "stdin"))

	assert.Contains(t, m.render(), "[3×] What is the capital of France?")
	assert.Contains(t, m.render(), "2019.pdf, 2020.pdf")
	assert.Contains(t, m.View(), "5 snippets in 2 clusters")

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.render(), "#1  What is the capital of France? (freq 3)")

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.render(), "Day  2  Revise: Explain")

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "Geography dominates.", m.render())

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabClusters, m.tab)

	m = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, tabSummary, m.tab)
}

func TestModel_Filter(t *testing.T) {
	m := sized(t, New(sampleReport(), "stdin"))

	m = typeText(m, "Photosynthesis")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	out := m.render()
	assert.Contains(t, out, "photosynthesis")
	assert.NotContains(t, out, "France")
	assert.Equal(t, []string{"photosynthesis"}, m.filter)

	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.filter)
	assert.Contains(t, m.render(), "France")
}

func TestModel_FilterWithoutMatches(t *testing.T) {
	m := sized(t, New(sampleReport(), "stdin"))

	m = typeText(m, "thermodynamics")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Nothing matches the filter.", m.render())
}

func TestModel_EmptyReport(t *testing.T) {
	m := sized(t, New(domain.EmptyReport(), "stdin"))

	assert.Contains(t, m.render(), domain.NoDataMessage)
	assert.Contains(t, m.status, "No question text found")
}

func TestModel_ReportMsg(t *testing.T) {
	m := sized(t, New(domain.EmptyReport(), "dir"))

	next, _ := m.Update(ReportMsg{Report: sampleReport()})
	m = next.(Model)
	assert.Contains(t, m.render(), "France")
	assert.Contains(t, m.status, "Report refreshed")

	next, _ = m.Update(ReportMsg{Err: errors.New("permission denied")})
	m = next.(Model)
	assert.Contains(t, m.status, "permission denied")
	assert.Contains(t, m.render(), "France")
}

func TestModel_Quit(t *testing.T) {
	m := sized(t, New(sampleReport(), "stdin"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
