package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/job-board/internal/types"
)

// -----------------------------------------------------------------------------
// Application Methods
// -----------------------------------------------------------------------------

const applicationSelect = `SELECT a.id, a.applicant_id, a.job_id, j.title, a.resume_link, a.cover_letter,
        a.status, a.applied_at, a.updated_at
 FROM applications a
 JOIN jobs j ON j.id = a.job_id`

func scanApplication(row scanner) (*Application, error) {
	var a Application
	err := row.Scan(&a.ID, &a.ApplicantID, &a.JobID, &a.JobTitle, &a.ResumeLink, &a.CoverLetter,
		&a.Status, &a.AppliedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateApplication inserts a new application in the Applied state. A second
// application by the same applicant to the same job yields an error wrapping
// ErrUniqueViolation.
func (db *DB) CreateApplication(ctx context.Context, input *ApplicationCreateInput) (*Application, error) {
	a, err := scanApplication(db.q.QueryRow(ctx,
		`WITH inserted AS (
		     INSERT INTO applications (applicant_id, job_id, resume_link, cover_letter)
		     VALUES ($1, $2, $3, $4)
		     RETURNING *
		 )
		 SELECT a.id, a.applicant_id, a.job_id, j.title, a.resume_link, a.cover_letter,
		        a.status, a.applied_at, a.updated_at
		 FROM inserted a
		 JOIN jobs j ON j.id = a.job_id`,
		input.ApplicantID, input.JobID, input.ResumeLink, input.CoverLetter,
	))
	if err != nil {
		return nil, wrapErr("create application", err)
	}
	return a, nil
}

// GetApplication retrieves an application by ID. Returns (nil, nil) when it does not exist.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	return db.getApplication(ctx, `a.id = $1`, "", id)
}

// GetApplicationForUpdate is GetApplication that also locks the row until the
// surrounding transaction ends.
func (db *DB) GetApplicationForUpdate(ctx context.Context, id uuid.UUID) (*Application, error) {
	return db.getApplication(ctx, `a.id = $1`, " FOR UPDATE OF a", id)
}

// GetApplicationByApplicantAndJob finds the application an applicant made to a job, if any.
func (db *DB) GetApplicationByApplicantAndJob(ctx context.Context, applicantID, jobID uuid.UUID) (*Application, error) {
	return db.getApplication(ctx, `a.applicant_id = $1 AND a.job_id = $2`, "", applicantID, jobID)
}

func (db *DB) getApplication(ctx context.Context, where, lock string, args ...any) (*Application, error) {
	a, err := scanApplication(db.q.QueryRow(ctx, applicationSelect+` WHERE `+where+lock, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

// UpdateApplicationStatus stores a new status. Returns (nil, nil) if the application
// no longer exists.
func (db *DB) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status types.ApplicationStatus) (*Application, error) {
	tag, err := db.q.Exec(ctx,
		`UPDATE applications SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return db.GetApplication(ctx, id)
}

// DeleteApplication removes an application.
func (db *DB) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	if _, err := db.q.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}

// ListApplications lists applications with optional filters and pagination, most recent
// first, together with the total number of matches.
func (db *DB) ListApplications(ctx context.Context, opts ListApplicationsOptions) ([]Application, int, error) {
	var conditions []string
	var args []any
	argIndex := 1

	if opts.ApplicantID != nil {
		conditions = append(conditions, fmt.Sprintf("a.applicant_id = $%d", argIndex))
		args = append(args, *opts.ApplicantID)
		argIndex++
	}
	if opts.JobID != nil {
		conditions = append(conditions, fmt.Sprintf("a.job_id = $%d", argIndex))
		args = append(args, *opts.JobID)
		argIndex++
	}
	if opts.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", argIndex))
		args = append(args, *opts.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := db.q.QueryRow(ctx, `SELECT COUNT(*) FROM applications a`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	limit, offset := clampPage(opts.Limit, opts.Offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`%s%s
		 ORDER BY a.applied_at DESC, a.id
		 LIMIT $%d OFFSET $%d`,
		applicationSelect, whereClause, argIndex, argIndex+1,
	)

	rows, err := db.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate applications: %w", err)
	}

	return apps, total, nil
}
