package stats

type gradeStep struct {
	min   float64
	grade string
}

var gradeTable = []gradeStep{
	{min: 8.0, grade: "A+"},
	{min: 6.5, grade: "A"},
	{min: 5.5, grade: "B+"},
	{min: 4.5, grade: "B"},
	{min: 3.5, grade: "C+"},
	{min: 2.5, grade: "C"},
}

// Grade maps an average fat percentage to a quality grade.
func Grade(avgFat float64) string {
	for _, step := range gradeTable {
		if avgFat >= step.min {
			return step.grade
		}
	}
	return "F"
}
