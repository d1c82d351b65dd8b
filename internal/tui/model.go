// Package tui is a terminal viewer for analysis reports.
package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"examradar/internal/chunker"
	"examradar/internal/domain"
)

type tab int

const (
	tabClusters tab = iota
	tabRanked
	tabPlan
	tabSummary
	tabCount
)

var tabNames = [tabCount]string{"Clusters", "Most probable", "Study plan", "Summary"}

// ReportMsg replaces the displayed report, e.g. after a watched directory
// changed. Err is shown in the status line and keeps the old report.
type ReportMsg struct {
	Report *domain.Report
	Err    error
}

// Model is the Bubble Tea model for the report viewer.
type Model struct {
	report   *domain.Report
	source   string
	input    textinput.Model
	viewport viewport.Model
	tab      tab
	filter   []string
	status   string
	ready    bool
}

// New creates a viewer for report. source describes where it came from.
func New(report *domain.Report, source string) Model {
	ti := textinput.New()
	ti.Prompt = "filter> "
	ti.Placeholder = "words to filter by, Enter to apply"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	m := Model{report: report, source: source, input: ti, viewport: vp}
	m.status = m.defaultStatus()
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and report events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+tabs, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.refresh()
		return m, nil
	case ReportMsg:
		if msg.Err != nil {
			m.status = "Refresh failed: " + msg.Err.Error()
			return m, nil
		}
		m.report = msg.Report
		m.status = "Report refreshed. " + m.defaultStatus()
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "esc":
			if len(m.filter) == 0 && m.input.Value() == "" {
				return m, tea.Quit
			}
			m.filter = nil
			m.input.SetValue("")
			m.status = m.defaultStatus()
			m.refresh()
			return m, nil
		case "tab":
			m.tab = (m.tab + 1) % tabCount
			m.refresh()
			return m, nil
		case "shift+tab":
			m.tab = (m.tab - 1 + tabCount) % tabCount
			m.refresh()
			return m, nil
		case "enter":
			m.filter = strings.Fields(chunker.Normalize(m.input.Value()))
			if len(m.filter) == 0 {
				m.status = m.defaultStatus()
			} else {
				m.status = fmt.Sprintf("Filtering by %q", strings.Join(m.filter, " "))
			}
			m.refresh()
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the tabs, the current tab's content and the filter input.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("examradar  " + m.source)
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.tab {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + strings.Join(tabs, " ") + "\n" + results + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
	m.viewport.GotoTop()
}

func (m Model) defaultStatus() string {
	if m.report == nil || m.report.SnippetsCount == 0 {
		return "No question text found. Esc to quit."
	}
	return fmt.Sprintf("%d snippets in %d clusters. Tab switches view, Esc quits.",
		m.report.SnippetsCount, len(m.report.Clusters))
}

func (m Model) render() string {
	r := m.report
	if r == nil || r.SnippetsCount == 0 {
		msg := domain.NoDataMessage
		if r != nil && r.Summary.Note != "" {
			msg += "\n\n" + r.Summary.Note
		}
		return msg
	}
	var b strings.Builder
	switch m.tab {
	case tabClusters:
		for i, c := range r.Clusters {
			if !m.matches(c.Example) {
				continue
			}
			fmt.Fprintf(&b, "%3d. [%d×] %s\n", i+1, c.Count, m.highlight(oneLine(c.Example)))
			if len(c.Files) > 0 {
				fmt.Fprintf(&b, "      %s\n", dimStyle.Render(strings.Join(c.Files, ", ")))
			}
		}
	case tabRanked:
		for _, e := range r.MostProbable {
			if !m.matches(e.Example) {
				continue
			}
			fmt.Fprintf(&b, "#%-2d %s (freq %d)\n", e.Rank, m.highlight(oneLine(e.Example)), e.Frequency)
		}
	case tabPlan:
		for _, p := range r.StudyPlan {
			if !m.matches(p.Task) {
				continue
			}
			fmt.Fprintf(&b, "Day %2d  %s\n", p.Day, m.highlight(oneLine(p.Task)))
		}
	case tabSummary:
		switch {
		case r.Summary.GPT != "":
			b.WriteString(m.highlight(r.Summary.GPT))
		case r.Summary.Note != "":
			b.WriteString(r.Summary.Note)
		}
	}
	if b.Len() == 0 {
		return "Nothing matches the filter."
	}
	return strings.TrimRight(b.String(), "\n")
}

// matches reports whether every filter word occurs in text.
func (m Model) matches(text string) bool {
	if len(m.filter) == 0 {
		return true
	}
	words := toTokenSet(chunker.Normalize(text))
	for _, f := range m.filter {
		if _, ok := words[f]; !ok {
			return false
		}
	}
	return true
}

func (m Model) highlight(text string) string {
	if len(m.filter) == 0 {
		return text
	}
	want := make(map[string]struct{}, len(m.filter))
	for _, f := range m.filter {
		want[f] = struct{}{}
	}
	return unicodeWordRe.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := want[strings.ToLower(w)]; ok {
			return highlightStyle.Render(w)
		}
		return w
	})
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 1)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	unicodeWordRe  = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

func toTokenSet(s string) map[string]struct{} {
	tokens := strings.Fields(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
