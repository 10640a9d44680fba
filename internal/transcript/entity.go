package transcript

import (
	"fmt"
	"math"
	"strings"

	"github.com/ukane-philemon/transcripts/internal/db"
)

// StudentID is issued by the store when a student is created. IDs start at 1
// and are never reused.
type StudentID int64

// Course identifies a course, e.g. a course number. Courses are not checked
// against a catalog.
type Course string

// Transcript maps a course to the grade a student received in it.
type Transcript map[Course]float64

// CourseGrade is a single grade entry supplied when creating a student.
type CourseGrade struct {
	Course Course  `json:"course" bson:"course"`
	Grade  float64 `json:"grade" bson:"grade"`
}

// Student is a student record together with its transcript.
type Student struct {
	ID     StudentID  `json:"studentID"`
	Name   string     `json:"studentName"`
	Grades Transcript `json:"grades"`
}

// clone returns a deep copy of s so callers never share the store's maps.
func (s *Student) clone() *Student {
	return &Student{
		ID:     s.ID,
		Name:   s.Name,
		Grades: s.Grades.clone(),
	}
}

func (t Transcript) clone() Transcript {
	c := make(Transcript, len(t))
	for course, grade := range t {
		c[course] = grade
	}
	return c
}

// GradeBounds is the inclusive range a grade must fall in.
type GradeBounds struct {
	Min float64
	Max float64
}

// DefaultGradeBounds is a percentage scale.
var DefaultGradeBounds = GradeBounds{Min: 0, Max: 100}

func (b GradeBounds) validate() error {
	if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
		return fmt.Errorf("grade bounds must be finite numbers")
	}
	if b.Min >= b.Max {
		return fmt.Errorf("minimum grade %v must be lower than maximum grade %v", b.Min, b.Max)
	}
	return nil
}

func (b GradeBounds) checkGrade(course Course, grade float64) error {
	if math.IsNaN(grade) || math.IsInf(grade, 0) {
		return fmt.Errorf("%w: grade for course %s is not a number", db.ErrorInvalidInput, course)
	}

	if grade < b.Min || grade > b.Max {
		return fmt.Errorf("%w: grade %v for course %s is outside the allowed range [%v, %v]",
			db.ErrorInvalidInput, grade, course, b.Min, b.Max)
	}

	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: missing student name", db.ErrorInvalidInput)
	}
	return name, nil
}

func normalizeCourse(course Course) (Course, error) {
	course = Course(strings.TrimSpace(string(course)))
	if course == "" {
		return "", fmt.Errorf("%w: missing course", db.ErrorInvalidInput)
	}
	return course, nil
}
