// Package planner derives a cyclic revision schedule from ranked topics.
package planner

import (
	"fmt"

	"examradar/internal/domain"
)

const (
	DefaultDays        = 28
	DefaultPrefixChars = 120

	// FallbackTopic is scheduled when there is nothing ranked.
	FallbackTopic = "General revision"
)

// Planner builds a fixed-length round-robin schedule.
type Planner struct {
	days        int
	prefixChars int
}

func New(days, prefixChars int) *Planner {
	if days <= 0 {
		days = DefaultDays
	}
	if prefixChars <= 0 {
		prefixChars = DefaultPrefixChars
	}
	return &Planner{days: days, prefixChars: prefixChars}
}

// Generate returns one entry per day, cycling through summaries in rank order.
func (p *Planner) Generate(summaries []domain.ClusterSummary) []domain.PlanEntry {
	topics := summaries
	if len(topics) == 0 {
		topics = []domain.ClusterSummary{{Count: 1, Example: FallbackTopic}}
	}
	plan := make([]domain.PlanEntry, p.days)
	for d := 0; d < p.days; d++ {
		t := topics[d%len(topics)]
		plan[d] = domain.PlanEntry{
			Day:  d + 1,
			Task: fmt.Sprintf("Revise: %s... (focus on repeated topics)", prefix(t.Example, p.prefixChars)),
		}
	}
	return plan
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
