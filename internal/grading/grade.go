package grading

// Grade is a letter grade.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Grades lists all grades from best to worst.
var Grades = []Grade{GradeA, GradeB, GradeC, GradeD, GradeF}

type band struct {
	min   float64
	grade Grade
}

// scale is ordered by descending lower bound.
var scale = []band{
	{90, GradeA},
	{80, GradeB},
	{70, GradeC},
	{60, GradeD},
}

// GradeFor maps a final score onto the letter scale.
func GradeFor(score float64) Grade {
	for _, b := range scale {
		if score >= b.min {
			return b.grade
		}
	}
	return GradeF
}

// ParseGrade accepts a single letter grade, as used in query filters.
func ParseGrade(s string) (Grade, bool) {
	for _, g := range Grades {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}
