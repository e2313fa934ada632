// Package store persists jobs and extracted questions in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/examforge/question-engine/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Store is a SQLite-backed repository for jobs and questions.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, domain.IOError("create store directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, domain.IOError("open sqlite database", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	source_file  TEXT NOT NULL,
	status       TEXT NOT NULL,
	stage        TEXT NOT NULL,
	progress     REAL NOT NULL DEFAULT 0,
	record       TEXT NOT NULL,
	started_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
	id          TEXT PRIMARY KEY,
	job_id      TEXT NOT NULL REFERENCES jobs(id),
	number      INTEGER NOT NULL,
	subject     TEXT NOT NULL DEFAULT '',
	difficulty  TEXT NOT NULL DEFAULT '',
	page_number INTEGER NOT NULL DEFAULT 0,
	record      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_questions_job ON questions(job_id);
CREATE INDEX IF NOT EXISTS idx_questions_subject ON questions(subject);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return domain.IOError("apply store schema", err)
	}
	return nil
}

// SaveJob inserts or replaces a job record.
func (s *Store) SaveJob(ctx context.Context, job *domain.ProcessingJob) error {
	record, err := json.Marshal(job)
	if err != nil {
		return domain.IOError("marshal job record", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, source_file, status, stage, progress, record, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status     = excluded.status,
			stage      = excluded.stage,
			progress   = excluded.progress,
			record     = excluded.record,
			updated_at = excluded.updated_at`,
		job.ID.String(), job.SourceFile, string(job.Status), string(job.Stage),
		job.Progress, string(record), job.StartedAt, time.Now().UTC())
	if err != nil {
		return domain.IOError("save job", err)
	}
	return nil
}

// GetJob loads a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*domain.ProcessingJob, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM jobs WHERE id = ?`, id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, domain.IOError("load job", err)
	}

	var job domain.ProcessingJob
	if err := json.Unmarshal([]byte(record), &job); err != nil {
		return nil, domain.IOError("decode job record", err)
	}
	return &job, nil
}

// ListJobs returns job records ordered most recent first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]*domain.ProcessingJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM jobs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, domain.IOError("list jobs", err)
	}
	defer rows.Close()

	var jobs []*domain.ProcessingJob
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, domain.IOError("scan job row", err)
		}
		var job domain.ProcessingJob
		if err := json.Unmarshal([]byte(record), &job); err != nil {
			return nil, domain.IOError("decode job record", err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// SaveQuestions persists the questions produced by a job in one transaction.
func (s *Store) SaveQuestions(ctx context.Context, jobID string, questions []domain.ExtractedQuestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.IOError("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO questions (id, job_id, number, subject, difficulty, page_number, record, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return domain.IOError("prepare question insert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range questions {
		q := &questions[i]
		record, err := json.Marshal(q)
		if err != nil {
			return domain.IOError(fmt.Sprintf("marshal question %d", q.Number), err)
		}
		if _, err := stmt.ExecContext(ctx, q.ID.String(), jobID, q.Number,
			q.Subject, string(q.Difficulty), q.Metadata.PageNumber, string(record), now); err != nil {
			return domain.IOError(fmt.Sprintf("insert question %d", q.Number), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.IOError("commit questions", err)
	}
	return nil
}

// QuestionFilter narrows ListQuestions results. Zero values match everything.
type QuestionFilter struct {
	JobID      string
	Subject    string
	Difficulty string
	Limit      int
}

// ListQuestions returns stored questions matching the filter, ordered by
// page then question number.
func (s *Store) ListQuestions(ctx context.Context, filter QuestionFilter) ([]domain.ExtractedQuestion, error) {
	query := `SELECT record FROM questions WHERE 1=1`
	var args []any

	if filter.JobID != "" {
		query += ` AND job_id = ?`
		args = append(args, filter.JobID)
	}
	if filter.Subject != "" {
		query += ` AND subject = ?`
		args = append(args, filter.Subject)
	}
	if filter.Difficulty != "" {
		query += ` AND difficulty = ?`
		args = append(args, filter.Difficulty)
	}

	query += ` ORDER BY page_number, number`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.IOError("list questions", err)
	}
	defer rows.Close()

	var questions []domain.ExtractedQuestion
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, domain.IOError("scan question row", err)
		}
		var q domain.ExtractedQuestion
		if err := json.Unmarshal([]byte(record), &q); err != nil {
			return nil, domain.IOError("decode question record", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountQuestions returns the number of stored questions for a job.
func (s *Store) CountQuestions(ctx context.Context, jobID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE job_id = ?`, jobID).Scan(&n)
	if err != nil {
		return 0, domain.IOError("count questions", err)
	}
	return n, nil
}
