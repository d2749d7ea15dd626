package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

const jobSelect = `SELECT j.id, j.title, j.description, j.location, j.status, j.created_by,
        u.full_name, j.created_at, j.updated_at
 FROM jobs j
 JOIN users u ON u.id = j.created_by`

func scanJob(row scanner) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.Title, &j.Description, &j.Location, &j.Status, &j.CreatedBy,
		&j.CompanyName, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// CreateJob inserts a new job and returns it with the owner's name filled in.
func (db *DB) CreateJob(ctx context.Context, input *JobCreateInput) (*Job, error) {
	j, err := scanJob(db.q.QueryRow(ctx,
		`WITH inserted AS (
		     INSERT INTO jobs (title, description, location, status, created_by)
		     VALUES ($1, $2, $3, $4, $5)
		     RETURNING *
		 )
		 SELECT j.id, j.title, j.description, j.location, j.status, j.created_by,
		        u.full_name, j.created_at, j.updated_at
		 FROM inserted j
		 JOIN users u ON u.id = j.created_by`,
		input.Title, input.Description, input.Location, input.Status, input.CreatedBy,
	))
	if err != nil {
		return nil, wrapErr("create job", err)
	}
	return j, nil
}

// GetJob retrieves a job by ID. Returns (nil, nil) when no such job exists.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	return db.getJob(ctx, id, "")
}

// GetJobForUpdate is GetJob that also locks the job row until the surrounding
// transaction ends.
func (db *DB) GetJobForUpdate(ctx context.Context, id uuid.UUID) (*Job, error) {
	return db.getJob(ctx, id, " FOR UPDATE OF j")
}

func (db *DB) getJob(ctx context.Context, id uuid.UUID, lock string) (*Job, error) {
	j, err := scanJob(db.q.QueryRow(ctx, jobSelect+` WHERE j.id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// UpdateJob writes the editable fields and status of j. Returns (nil, nil) if the job
// no longer exists.
func (db *DB) UpdateJob(ctx context.Context, j *Job) (*Job, error) {
	tag, err := db.q.Exec(ctx,
		`UPDATE jobs
		 SET title = $2, description = $3, location = $4, status = $5, updated_at = NOW()
		 WHERE id = $1`,
		j.ID, j.Title, j.Description, j.Location, j.Status,
	)
	if err != nil {
		return nil, wrapErr("update job", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return db.GetJob(ctx, j.ID)
}

// DeleteJob removes a job and its applications.
func (db *DB) DeleteJob(ctx context.Context, id uuid.UUID) error {
	if _, err := db.q.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// ListJobs lists jobs with optional filters and pagination, newest first. It also returns
// the total number of matching jobs.
func (db *DB) ListJobs(ctx context.Context, opts ListJobsOptions) ([]Job, int, error) {
	var conditions []string
	var args []any
	argIndex := 1

	addLike := func(column, value string) {
		if value == "" {
			return
		}
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", column, argIndex))
		args = append(args, "%"+escapeLike(value)+"%")
		argIndex++
	}
	addLike("j.title", opts.Title)
	addLike("j.location", opts.Location)
	addLike("u.full_name", opts.CompanyName)

	if opts.Status != nil {
		conditions = append(conditions, fmt.Sprintf("j.status = $%d", argIndex))
		args = append(args, *opts.Status)
		argIndex++
	}

	if opts.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("j.created_by = $%d", argIndex))
		args = append(args, *opts.CreatedBy)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM jobs j JOIN users u ON u.id = j.created_by` + whereClause
	if err := db.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	limit, offset := clampPage(opts.Limit, opts.Offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`%s%s
		 ORDER BY j.created_at DESC, j.id
		 LIMIT $%d OFFSET $%d`,
		jobSelect, whereClause, argIndex, argIndex+1,
	)

	rows, err := db.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, total, nil
}
