package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStudentReport(t *testing.T) {
	report := BuildStudentReport(&Student{
		ID:     3,
		Name:   "Ada",
		Grades: Transcript{"CS101": 95, "CS102": 65, "MATH200": 80},
	}, DefaultGradeBounds)

	assert.Equal(t, StudentID(3), report.StudentID)
	assert.Equal(t, 3, report.Courses)
	assert.InDelta(t, 80.0, report.Average, 1e-9)
	assert.Equal(t, 95.0, report.Highest)
	assert.Equal(t, 65.0, report.Lowest)
	assert.Equal(t, "Excellent", report.Standing)
}

func TestBuildStudentReport_NoGrades(t *testing.T) {
	report := BuildStudentReport(&Student{ID: 1, Name: "Bob", Grades: Transcript{}}, DefaultGradeBounds)

	assert.Equal(t, 0, report.Courses)
	assert.Equal(t, "Ungraded", report.Standing)
	assert.Zero(t, report.Average)
}

func TestBuildStudentReport_StandingUsesBounds(t *testing.T) {
	gpa := GradeBounds{Min: 0, Max: 4}

	tests := []struct {
		grade float64
		want  string
	}{
		{grade: 4, want: "Excellent"},
		{grade: 2.6, want: "Good"},
		{grade: 2.1, want: "Fair"},
		{grade: 1.7, want: "Pass"},
		{grade: 1, want: "Fail"},
	}

	for _, tt := range tests {
		report := BuildStudentReport(&Student{Grades: Transcript{"X": tt.grade}}, gpa)
		assert.Equal(t, tt.want, report.Standing, "grade %v", tt.grade)
	}
}

func TestBuildClassReport(t *testing.T) {
	students := []*Student{
		{ID: 1, Name: "Ada", Grades: Transcript{"CS101": 90}},
		{ID: 2, Name: "Bob", Grades: Transcript{}},
		{ID: 3, Name: "Cy", Grades: Transcript{"CS101": 70, "CS102": 90}},
		{ID: 4, Name: "Dee", Grades: Transcript{"CS101": 50}},
		{ID: 5, Name: "Eve", Grades: Transcript{"CS101": 80}},
	}

	report := BuildClassReport(students, DefaultGradeBounds)

	assert.Equal(t, 5, report.TotalStudents)
	assert.Equal(t, 4, report.GradedStudents)
	assert.Equal(t, 90.0, report.HighestAverage)
	assert.Equal(t, 50.0, report.LowestAverage)
	require.Len(t, report.Students, 5)

	positions := make(map[StudentID]int)
	for _, r := range report.Students {
		positions[r.StudentID] = r.Position
	}

	assert.Equal(t, 1, positions[1])
	assert.Equal(t, 2, positions[3])
	assert.Equal(t, 2, positions[5])
	assert.Equal(t, 4, positions[4])
	assert.Equal(t, 0, positions[2])

	// Ungraded students come last.
	assert.Equal(t, StudentID(2), report.Students[4].StudentID)
}

func TestBuildClassReport_Empty(t *testing.T) {
	report := BuildClassReport(nil, DefaultGradeBounds)

	assert.Equal(t, 0, report.TotalStudents)
	assert.NotNil(t, report.Students)
	assert.Empty(t, report.Students)
}
