// Package sqlite stores transcripts in an embedded SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ukane-philemon/transcripts/internal/transcript"
)

const studentSeq = "student_id"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS grades (
		student_id INTEGER NOT NULL,
		course TEXT NOT NULL,
		grade REAL NOT NULL,
		PRIMARY KEY (student_id, course)
	)`,
	`CREATE TABLE IF NOT EXISTS sequences (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	)`,
}

// Check that *SQLite implements transcript.Persister.
var _ transcript.Persister = (*SQLite)(nil)

// SQLite implements transcript.Persister.
type SQLite struct {
	log  *zap.Logger
	path string
	db   *sql.DB
}

// New opens the database file at path, creating it and its tables if needed.
func New(ctx context.Context, log *zap.Logger, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("missing sqlite database path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open error: %w", err)
	}

	// SQLite allows a single writer at a time.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	log.Info("Database has been opened successfully", zap.String("path", path))

	return &SQLite{
		log:  log,
		path: path,
		db:   db,
	}, nil
}

// Load implements transcript.Persister.
func (s *SQLite) Load(ctx context.Context) (*transcript.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	snapshot := new(transcript.Snapshot)
	students := make(map[transcript.StudentID]*transcript.Student)
	for rows.Next() {
		var id int64
		student := &transcript.Student{Grades: make(transcript.Transcript)}
		if err := rows.Scan(&id, &student.Name); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		student.ID = transcript.StudentID(id)
		students[student.ID] = student
		snapshot.Students = append(snapshot.Students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}

	gradeRows, err := s.db.QueryContext(ctx, `SELECT student_id, course, grade FROM grades`)
	if err != nil {
		return nil, fmt.Errorf("failed to query grades: %w", err)
	}
	defer gradeRows.Close()

	for gradeRows.Next() {
		var (
			studentID int64
			course    string
			grade     float64
		)
		if err := gradeRows.Scan(&studentID, &course, &grade); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		if student, found := students[transcript.StudentID(studentID)]; found {
			student.Grades[transcript.Course(course)] = grade
		}
	}
	if err := gradeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grades: %w", err)
	}

	var lastID int64
	err = s.db.QueryRowContext(ctx, `SELECT value FROM sequences WHERE name = ?`, studentSeq).Scan(&lastID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read student sequence: %w", err)
	}
	snapshot.LastID = transcript.StudentID(lastID)

	return snapshot, nil
}

// Apply implements transcript.Persister.
func (s *SQLite) Apply(ctx context.Context, change *transcript.Change) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.BeginTx error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if change.Upsert != nil {
		if err = upsertStudent(ctx, tx, change.Upsert); err != nil {
			return err
		}
	}

	if change.Delete != 0 {
		if _, err = tx.ExecContext(ctx, `DELETE FROM grades WHERE student_id = ?`, int64(change.Delete)); err != nil {
			return fmt.Errorf("failed to delete grades: %w", err)
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, int64(change.Delete)); err != nil {
			return fmt.Errorf("failed to delete student: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO sequences (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = MAX(value, excluded.value)`, studentSeq, int64(change.LastID))
	if err != nil {
		return fmt.Errorf("failed to update student sequence: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("tx.Commit error: %w", err)
	}

	return nil
}

func upsertStudent(ctx context.Context, tx *sql.Tx, student *transcript.Student) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO students (id, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		int64(student.ID), student.Name, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert student: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM grades WHERE student_id = ?`, int64(student.ID)); err != nil {
		return fmt.Errorf("failed to clear grades: %w", err)
	}

	for course, grade := range student.Grades {
		_, err := tx.ExecContext(ctx, `INSERT INTO grades (student_id, course, grade) VALUES (?, ?, ?)`,
			int64(student.ID), string(course), grade)
		if err != nil {
			return fmt.Errorf("failed to insert grade for course %s: %w", course, err)
		}
	}

	return nil
}

// Shutdown implements transcript.Persister.
func (s *SQLite) Shutdown(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("db.Close error: %w", err)
	}

	s.log.Info("Database has been shutdown successfully", zap.String("path", s.path))
	return nil
}
