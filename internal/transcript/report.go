package transcript

import (
	"sort"
)

// StudentReport summarizes a single transcript.
type StudentReport struct {
	StudentID   StudentID `json:"studentID"`
	StudentName string    `json:"studentName"`
	Courses     int       `json:"courses"`
	Average     float64   `json:"average"`
	Highest     float64   `json:"highest"`
	Lowest      float64   `json:"lowest"`
	Standing    string    `json:"standing"`
	// Position is the class position by average. Students with the same
	// average share a position. Zero for students without grades.
	Position int `json:"position,omitempty"`
}

// ClassReport ranks every student by average grade.
type ClassReport struct {
	TotalStudents  int              `json:"totalStudents"`
	GradedStudents int              `json:"gradedStudents"`
	HighestAverage float64          `json:"highestAverage"`
	LowestAverage  float64          `json:"lowestAverage"`
	Students       []*StudentReport `json:"students"`
}

// BuildStudentReport computes a report for student. bounds is used to express
// the average as a percentage when assigning a standing.
func BuildStudentReport(student *Student, bounds GradeBounds) *StudentReport {
	report := &StudentReport{
		StudentID:   student.ID,
		StudentName: student.Name,
		Courses:     len(student.Grades),
		Standing:    "Ungraded",
	}

	if len(student.Grades) == 0 {
		return report
	}

	var total float64
	first := true
	for _, grade := range student.Grades {
		total += grade
		if first || grade > report.Highest {
			report.Highest = grade
		}
		if first || grade < report.Lowest {
			report.Lowest = grade
		}
		first = false
	}

	report.Average = total / float64(len(student.Grades))
	report.Standing = standing((report.Average - bounds.Min) / (bounds.Max - bounds.Min) * 100)
	return report
}

// BuildClassReport ranks students by average grade.
func BuildClassReport(students []*Student, bounds GradeBounds) *ClassReport {
	classReport := &ClassReport{
		TotalStudents: len(students),
		Students:      make([]*StudentReport, 0, len(students)),
	}

	var graded []*StudentReport
	var ungraded []*StudentReport
	for _, student := range students {
		report := BuildStudentReport(student, bounds)
		if report.Courses == 0 {
			ungraded = append(ungraded, report)
			continue
		}
		graded = append(graded, report)
	}

	// Sort according to highest averages.
	sort.SliceStable(graded, func(i, j int) bool {
		return graded[i].Average > graded[j].Average
	})

	// averageMap is a map of average to class position and is used to ensure
	// students with the same average get the same position.
	averageMap := make(map[float64]int)
	for positionIndex, report := range graded {
		position, found := averageMap[report.Average]
		if !found {
			position = positionIndex + 1
			averageMap[report.Average] = position
		}
		report.Position = position
	}

	if len(graded) > 0 {
		classReport.HighestAverage = graded[0].Average
		classReport.LowestAverage = graded[len(graded)-1].Average
	}

	classReport.GradedStudents = len(graded)
	classReport.Students = append(classReport.Students, graded...)
	classReport.Students = append(classReport.Students, ungraded...)
	return classReport
}

func standing(percentage float64) string {
	switch {
	case percentage > 69:
		return "Excellent"
	case percentage > 59:
		return "Good"
	case percentage > 49:
		return "Fair"
	case percentage > 39:
		return "Pass"
	default:
		return "Fail"
	}
}
