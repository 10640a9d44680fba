package transcript

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ukane-philemon/transcripts/internal/db"
)

// Store owns every student record of the process. Mutations are serialized by
// a single lock and, when a Persister is set, written through it before they
// become visible in memory.
type Store struct {
	mu        sync.RWMutex
	students  map[StudentID]*Student
	lastID    StudentID
	bounds    GradeBounds
	persister Persister
}

// NewStore creates a store that only keeps records in memory.
func NewStore(bounds GradeBounds) (*Store, error) {
	if err := bounds.validate(); err != nil {
		return nil, err
	}

	return &Store{
		students: make(map[StudentID]*Student),
		bounds:   bounds,
	}, nil
}

// Open creates a store backed by persister and loads its existing records.
func Open(ctx context.Context, bounds GradeBounds, persister Persister) (*Store, error) {
	s, err := NewStore(bounds)
	if err != nil {
		return nil, err
	}

	snapshot, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("persister.Load error: %w", err)
	}

	for _, student := range snapshot.Students {
		if student.Grades == nil {
			student.Grades = make(Transcript)
		}
		s.students[student.ID] = student
		if student.ID > s.lastID {
			s.lastID = student.ID
		}
	}

	if snapshot.LastID > s.lastID {
		s.lastID = snapshot.LastID
	}

	s.persister = persister
	return s, nil
}

// Students returns every student ordered by ID.
func (s *Store) Students() []*Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]*Student, 0, len(s.students))
	for _, student := range s.students {
		students = append(students, student.clone())
	}

	sort.Slice(students, func(i, j int) bool {
		return students[i].ID < students[j].ID
	})

	return students
}

// Student returns the student record that matches studentID. Returns
// db.ErrorNotFound if no student is found.
func (s *Store) Student(studentID StudentID) (*Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, err := s.student(studentID)
	if err != nil {
		return nil, err
	}

	return student.clone(), nil
}

// Transcript returns the grades of the student that matches studentID.
// Returns db.ErrorNotFound if no student is found.
func (s *Store) Transcript(studentID StudentID) (Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, err := s.student(studentID)
	if err != nil {
		return nil, err
	}

	return student.Grades.clone(), nil
}

// AddStudent creates a new student with an optional initial set of grades and
// returns its ID. When grades repeats a course the last entry wins.
func (s *Store) AddStudent(ctx context.Context, name string, grades []*CourseGrade) (StudentID, error) {
	name, err := normalizeName(name)
	if err != nil {
		return 0, err
	}

	transcript := make(Transcript, len(grades))
	for index, entry := range grades {
		if entry == nil {
			return 0, fmt.Errorf("%w: grade entry %d is empty", db.ErrorInvalidInput, index+1)
		}

		course, err := normalizeCourse(entry.Course)
		if err != nil {
			return 0, fmt.Errorf("%w (grade entry %d)", err, index+1)
		}

		if err := s.bounds.checkGrade(course, entry.Grade); err != nil {
			return 0, err
		}

		transcript[course] = entry.Grade
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	student := &Student{
		ID:     s.lastID + 1,
		Name:   name,
		Grades: transcript,
	}

	err = s.persist(ctx, &Change{Upsert: student, LastID: student.ID})
	if err != nil {
		return 0, err
	}

	s.students[student.ID] = student
	s.lastID = student.ID

	return student.ID, nil
}

// DeleteStudent removes the student that matches studentID together with its
// transcript. Deleting an unknown student is a no-op.
func (s *Store) DeleteStudent(ctx context.Context, studentID StudentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.students[studentID]; !found {
		return nil
	}

	err := s.persist(ctx, &Change{Delete: studentID, LastID: s.lastID})
	if err != nil {
		return err
	}

	delete(s.students, studentID)
	return nil
}

// AddGrade records grade for course on the transcript of the student that
// matches studentID, replacing any previous grade for that course. Returns
// db.ErrorNotFound if no student is found.
func (s *Store) AddGrade(ctx context.Context, studentID StudentID, course Course, grade float64) error {
	course, err := normalizeCourse(course)
	if err != nil {
		return err
	}

	if err := s.bounds.checkGrade(course, grade); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.student(studentID)
	if err != nil {
		return err
	}

	updated := current.clone()
	updated.Grades[course] = grade

	err = s.persist(ctx, &Change{Upsert: updated, LastID: s.lastID})
	if err != nil {
		return err
	}

	s.students[studentID] = updated
	return nil
}

// Grade returns the grade the student that matches studentID received for
// course. Returns db.ErrorNotFound if no student is found and
// db.ErrorNoSuchCourse if the student has no grade for course.
func (s *Store) Grade(studentID StudentID, course Course) (float64, error) {
	course, err := normalizeCourse(course)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	student, err := s.student(studentID)
	if err != nil {
		return 0, err
	}

	grade, found := student.Grades[course]
	if !found {
		return 0, fmt.Errorf("%w: student %d has no grade for course %s", db.ErrorNoSuchCourse, studentID, course)
	}

	return grade, nil
}

// Bounds returns the grade range the store accepts.
func (s *Store) Bounds() GradeBounds {
	return s.bounds
}

// Shutdown releases the persister, if any. The in-memory records stay
// readable.
func (s *Store) Shutdown(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persister.Shutdown(ctx)
}

// student must be called with s.mu held.
func (s *Store) student(studentID StudentID) (*Student, error) {
	student, found := s.students[studentID]
	if !found {
		return nil, fmt.Errorf("%w: no record found for student with ID %d", db.ErrorNotFound, studentID)
	}
	return student, nil
}

// persist must be called with s.mu held for writing.
func (s *Store) persist(ctx context.Context, change *Change) error {
	if s.persister == nil {
		return nil
	}

	if err := s.persister.Apply(ctx, change); err != nil {
		return fmt.Errorf("persister.Apply error: %w", err)
	}

	return nil
}
