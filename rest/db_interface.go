package rest

import (
	"context"

	"github.com/ukane-philemon/transcripts/internal/transcript"
)

// TranscriptDatabase is the store the HTTP handlers read from and write to.
type TranscriptDatabase interface {
	// Students returns every student ordered by ID.
	Students() []*transcript.Student
	// Student returns the student record that matches studentID. Returns
	// db.ErrorNotFound if no student is found.
	Student(studentID transcript.StudentID) (*transcript.Student, error)
	// Transcript returns the grades of the student that matches studentID.
	// Returns db.ErrorNotFound if no student is found.
	Transcript(studentID transcript.StudentID) (transcript.Transcript, error)
	// AddStudent creates a new student with an optional initial set of
	// grades and returns its ID. Returns db.ErrorInvalidInput if the name or
	// a grade entry is invalid.
	AddStudent(ctx context.Context, name string, grades []*transcript.CourseGrade) (transcript.StudentID, error)
	// DeleteStudent removes the student that matches studentID. Deleting an
	// unknown student is a no-op.
	DeleteStudent(ctx context.Context, studentID transcript.StudentID) error
	// AddGrade records or replaces the grade for course. Returns
	// db.ErrorNotFound if no student is found.
	AddGrade(ctx context.Context, studentID transcript.StudentID, course transcript.Course, grade float64) error
	// Grade returns the grade recorded for course. Returns db.ErrorNotFound
	// if no student is found and db.ErrorNoSuchCourse if the course has no
	// grade.
	Grade(studentID transcript.StudentID, course transcript.Course) (float64, error)
	// Bounds returns the accepted grade range.
	Bounds() transcript.GradeBounds
}
