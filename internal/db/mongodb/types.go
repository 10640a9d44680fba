package mongodb

import (
	"sort"

	"github.com/ukane-philemon/transcripts/internal/transcript"
)

// dbStudent stores grades as a list because course identifiers may contain
// characters mongodb does not allow in field names.
type dbStudent struct {
	ID            int64                     `bson:"_id"`
	Name          string                    `bson:"name"`
	Grades        []*transcript.CourseGrade `bson:"grades"`
	LastUpdatedAt int64                     `bson:"lastUpdatedAt"`
}

type dbCounter struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

func toDBStudent(student *transcript.Student, now int64) *dbStudent {
	grades := make([]*transcript.CourseGrade, 0, len(student.Grades))
	for course, grade := range student.Grades {
		grades = append(grades, &transcript.CourseGrade{Course: course, Grade: grade})
	}

	sort.Slice(grades, func(i, j int) bool {
		return grades[i].Course < grades[j].Course
	})

	return &dbStudent{
		ID:            int64(student.ID),
		Name:          student.Name,
		Grades:        grades,
		LastUpdatedAt: now,
	}
}

func (s *dbStudent) Student() *transcript.Student {
	grades := make(transcript.Transcript, len(s.Grades))
	for _, entry := range s.Grades {
		grades[entry.Course] = entry.Grade
	}

	return &transcript.Student{
		ID:     transcript.StudentID(s.ID),
		Name:   s.Name,
		Grades: grades,
	}
}
