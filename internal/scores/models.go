package scores

import (
	"encoding/json"

	"github.com/mind-engage/scorecheck/internal/grading"
)

// Source identifies the surface a check came from.
type Source string

const (
	SourceSingle Source = "single"
	SourceBatch  Source = "batch"
	SourceRubric Source = "rubric"
	SourceCLI    Source = "cli"
)

// Check is one recorded score validation.
type Check struct {
	ID        string          `json:"id"`
	Subject   string          `json:"subject"` // who asked
	Source    Source          `json:"source"`
	Input     json.RawMessage `json:"input,omitempty"` // raw score as submitted; empty when absent
	Options   grading.Options `json:"options"`
	Result    grading.Result  `json:"result"`
	CreatedAt int64           `json:"created_at"`
}

// Stats summarizes the checks of one subject (or all subjects).
type Stats struct {
	Total     int                   `json:"total"`
	Valid     int                   `json:"valid"`
	Passed    int                   `json:"passed"`
	ByGrade   map[grading.Grade]int `json:"by_grade"` // valid checks only
	MeanScore float64               `json:"mean_score"` // over valid checks
}

func newStats() Stats {
	s := Stats{ByGrade: make(map[grading.Grade]int, len(grading.Grades))}
	for _, g := range grading.Grades {
		s.ByGrade[g] = 0
	}
	return s
}
