package domain

// Snippet is a single candidate question unit extracted from input text.
// Page is zero when the originating page is unknown.
type Snippet struct {
	Text       string
	Normalized string
	SourceFile string
	Page       int
	Vector     []float64
}

// WithVector returns a copy of the snippet carrying the given embedding.
func (s Snippet) WithVector(v []float64) Snippet {
	s.Vector = v
	return s
}

// Cluster groups snippets judged to be the same recurring question.
// Representative is the first snippet routed into the cluster and never changes.
type Cluster struct {
	Representative Snippet
	Members        []Snippet
}

// ClusterSummary is the read-only projection of a Cluster used in reports.
type ClusterSummary struct {
	Count   int      `json:"count"`
	Example string   `json:"example"`
	Files   []string `json:"files"`
}

// RankedEntry is a cluster summary placed at a rank by descending frequency.
type RankedEntry struct {
	Rank      int    `json:"rank"`
	Example   string `json:"example"`
	Frequency int    `json:"frequency"`
}

// PlanEntry is one day of the revision schedule.
type PlanEntry struct {
	Day  int    `json:"day"`
	Task string `json:"task"`
}

// Summary carries either generated prose or a note explaining its absence.
type Summary struct {
	GPT  string `json:"gpt,omitempty"`
	Note string `json:"note,omitempty"`
}

// Report is the final output of one analysis run.
type Report struct {
	SnippetsCount int              `json:"snippetsCount"`
	Clusters      []ClusterSummary `json:"clusters"`
	MostProbable  []RankedEntry    `json:"mostProbable"`
	StudyPlan     []PlanEntry      `json:"studyPlan"`
	Summary       Summary          `json:"summary"`
	Message       string           `json:"message,omitempty"`
}

// NoDataMessage is reported when a run produced no snippets.
const NoDataMessage = "No text extracted"

// EmptyReport returns the report produced when no snippets survive segmentation.
func EmptyReport() *Report {
	return &Report{
		SnippetsCount: 0,
		Clusters:      []ClusterSummary{},
		MostProbable:  []RankedEntry{},
		StudyPlan:     []PlanEntry{},
		Summary:       Summary{Note: "No question text found in the input; nothing to summarize."},
		Message:       NoDataMessage,
	}
}
