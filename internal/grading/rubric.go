package grading

import (
	"fmt"
	"math"
)

type Rubric struct {
	Criteria []Criterion `json:"criteria" validate:"required,min=1,dive"`
	Max      float64     `json:"max_points" validate:"gte=0"`
}

type Criterion struct {
	Key       string  `json:"key" validate:"required"`
	Desc      string  `json:"desc,omitempty"`
	MaxPoints float64 `json:"max_points" validate:"gt=0"`
}

// ScoreRubric sums awarded points per criterion. Each value is clamped to
// [0, MaxPoints] and the total is capped at r.Max when set.
func ScoreRubric(r Rubric, awarded map[string]float64) (float64, []string) {
	total := 0.0
	notes := make([]string, 0, len(r.Criteria))
	for _, c := range r.Criteria {
		v := awarded[c.Key]
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		if v > c.MaxPoints {
			v = c.MaxPoints
		}
		total += v
		notes = append(notes, fmt.Sprintf("%s:%.2f", c.Key, v))
	}
	if r.Max > 0 && total > r.Max {
		total = r.Max
	}
	return total, notes
}

// Percent normalizes a rubric total onto the 0..100 score range,
// rounded to two decimals.
func (r Rubric) Percent(total float64) float64 {
	denom := r.Max
	if denom <= 0 {
		for _, c := range r.Criteria {
			denom += c.MaxPoints
		}
	}
	if denom <= 0 {
		return 0
	}
	p := total / denom * 100
	return math.Round(p*100) / 100
}
