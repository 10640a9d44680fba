// Package postgres stores transcripts in PostgreSQL through a pgx connection
// pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ukane-philemon/transcripts/internal/transcript"
)

const studentSeq = "student_id"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS transcript_students (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transcript_grades (
		student_id BIGINT NOT NULL REFERENCES transcript_students (id) ON DELETE CASCADE,
		course TEXT NOT NULL,
		grade DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (student_id, course)
	)`,
	`CREATE TABLE IF NOT EXISTS transcript_sequences (
		name TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	)`,
}

// Check that *Postgres implements transcript.Persister.
var _ transcript.Persister = (*Postgres)(nil)

// Postgres implements transcript.Persister.
type Postgres struct {
	log  *zap.Logger
	pool *pgxpool.Pool
}

// New connects to the database at databaseURL and runs migrations.
func New(ctx context.Context, log *zap.Logger, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("missing postgres database connection URL")
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig error: %w", err)
	}

	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig error: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping error: %w", err)
	}

	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Info("Database has been connected and pinged successfully", zap.String("database", poolConfig.ConnConfig.Database))

	return &Postgres{
		log:  log,
		pool: pool,
	}, nil
}

// Load implements transcript.Persister.
func (p *Postgres) Load(ctx context.Context) (*transcript.Snapshot, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name FROM transcript_students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}

	snapshot := new(transcript.Snapshot)
	students := make(map[int64]*transcript.Student)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}

		student := &transcript.Student{
			ID:     transcript.StudentID(id),
			Name:   name,
			Grades: make(transcript.Transcript),
		}
		students[id] = student
		snapshot.Students = append(snapshot.Students, student)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}

	gradeRows, err := p.pool.Query(ctx, `SELECT student_id, course, grade FROM transcript_grades`)
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
		if student, found := students[studentID]; found {
			student.Grades[transcript.Course(course)] = grade
		}
	}
	if err := gradeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grades: %w", err)
	}

	var lastID int64
	err = p.pool.QueryRow(ctx, `SELECT value FROM transcript_sequences WHERE name = $1`, studentSeq).Scan(&lastID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read student sequence: %w", err)
	}
	snapshot.LastID = transcript.StudentID(lastID)

	return snapshot, nil
}

// Apply implements transcript.Persister.
func (p *Postgres) Apply(ctx context.Context, change *transcript.Change) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if change.Upsert != nil {
			if err := upsertStudent(ctx, tx, change.Upsert); err != nil {
				return err
			}
		}

		if change.Delete != 0 {
			// Grades are removed by ON DELETE CASCADE.
			_, err := tx.Exec(ctx, `DELETE FROM transcript_students WHERE id = $1`, int64(change.Delete))
			if err != nil {
				return fmt.Errorf("failed to delete student: %w", err)
			}
		}

		_, err := tx.Exec(ctx, `INSERT INTO transcript_sequences (name, value) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET value = GREATEST(transcript_sequences.value, EXCLUDED.value)`,
			studentSeq, int64(change.LastID))
		if err != nil {
			return fmt.Errorf("failed to update student sequence: %w", err)
		}

		return nil
	})
}

func upsertStudent(ctx context.Context, tx pgx.Tx, student *transcript.Student) error {
	_, err := tx.Exec(ctx, `INSERT INTO transcript_students (id, name, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at`,
		int64(student.ID), student.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert student: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM transcript_grades WHERE student_id = $1`, int64(student.ID))
	if err != nil {
		return fmt.Errorf("failed to clear grades: %w", err)
	}

	rows := make([][]any, 0, len(student.Grades))
	for course, grade := range student.Grades {
		rows = append(rows, []any{int64(student.ID), string(course), grade})
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"transcript_grades"}, []string{"student_id", "course", "grade"}, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("tx.CopyFrom error: %w", err)
	}

	return nil
}

// Shutdown implements transcript.Persister.
func (p *Postgres) Shutdown(ctx context.Context) error {
	p.pool.Close()
	p.log.Info("Database has been shutdown successfully")
	return nil
}
