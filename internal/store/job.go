package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// JobKind represents the kind of media a job processed.
type JobKind string

const (
	// JobKindImage is a still image job.
	JobKindImage JobKind = "image"
	// JobKindVideo is a video file job.
	JobKindVideo JobKind = "video"
)

// Job represents one processed upload stored in the history.
type Job struct {
	ID         string
	Kind       JobKind
	InputName  string
	OutputName string
	ThumbName  string
	Method     string
	Factor     int
	Faces      int
	Frames     int
	CreatedAt  time.Time
}

// JobRepository provides CRUD operations for jobs.
type JobRepository struct {
	db *sql.DB
}

// Jobs returns the job repository for this store.
func (s *Store) Jobs() *JobRepository {
	return &JobRepository{db: s.db}
}

// Create inserts a new job into the database.
func (r *JobRepository) Create(j *Job) error {
	j.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO jobs (id, kind, input_name, output_name, thumb_name, method, factor, faces, frames, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, string(j.Kind), j.InputName, j.OutputName, j.ThumbName,
		j.Method, j.Factor, j.Faces, j.Frames, j.CreatedAt,
	)
	return err
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(id string) (*Job, error) {
	j := &Job{}
	var kind string

	err := r.db.QueryRow(
		`SELECT id, kind, input_name, output_name, thumb_name, method, factor, faces, frames, created_at
		 FROM jobs WHERE id = ?`,
		id,
	).Scan(&j.ID, &kind, &j.InputName, &j.OutputName, &j.ThumbName,
		&j.Method, &j.Factor, &j.Faces, &j.Frames, &j.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	j.Kind = JobKind(kind)
	return j, nil
}

// List retrieves all jobs, newest first.
func (r *JobRepository) List() ([]*Job, error) {
	rows, err := r.db.Query(
		`SELECT id, kind, input_name, output_name, thumb_name, method, factor, faces, frames, created_at
		 FROM jobs ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j := &Job{}
		var kind string
		if err := rows.Scan(&j.ID, &kind, &j.InputName, &j.OutputName, &j.ThumbName,
			&j.Method, &j.Factor, &j.Faces, &j.Frames, &j.CreatedAt); err != nil {
			return nil, err
		}
		j.Kind = JobKind(kind)
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// Delete removes a job by its ID.
func (r *JobRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
