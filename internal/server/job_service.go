package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/access"
	"github.com/jonathan/job-board/internal/db"
	"github.com/jonathan/job-board/internal/metrics"
	"github.com/jonathan/job-board/internal/types"
	"github.com/jonathan/job-board/internal/workflow"
	"github.com/sirupsen/logrus"
)

// JobFilter narrows a public job listing. Text fields match case-insensitive substrings.
type JobFilter struct {
	Title       string
	Location    string
	CompanyName string
	Status      *types.JobStatus
}

// JobService provides business logic for job postings
type JobService struct {
	db      DBClient
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewJobService creates a new JobService with the given dependencies
func NewJobService(db DBClient, logger logrus.FieldLogger, m *metrics.Metrics) *JobService {
	return &JobService{db: db, logger: logger, metrics: m}
}

// Create posts a new job owned by the calling company. Jobs start as Draft unless Open
// is requested.
func (s *JobService) Create(ctx context.Context, actorID uuid.UUID, req *types.CreateJobRequest) (*types.Job, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	status := req.Status
	if status == "" {
		status = types.JobStatusDraft
	}
	if err := workflow.CheckInitialJobStatus(status); err != nil {
		return nil, &ErrValidation{Field: "status", Message: "must be Draft or Open for a new job"}
	}

	var created *db.Job
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		actor, _, err := resolveActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := checkRole(actor, access.ActionJobCreate); err != nil {
			return err
		}

		created, err = tx.CreateJob(ctx, &db.JobCreateInput{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			Status:      status,
			CreatedBy:   actor.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"job_id": created.ID, "company_id": created.CreatedBy, "status": created.Status}).Info("job created")
	return convertDBJob(created), nil
}

// Get returns a single job. Jobs are public.
func (s *JobService) Get(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	var j *db.Job
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		var err error
		j, err = tx.GetJob(ctx, jobID)
		if err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}
		if j == nil {
			return &ErrNotFound{Resource: "job", ID: jobID}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return convertDBJob(j), nil
}

// List returns a page of jobs matching filter, newest first.
func (s *JobService) List(ctx context.Context, filter JobFilter, page PageParams) (*types.Page[types.Job], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, &ErrValidation{Field: "status", Message: "must be one of: Draft Open Closed"}
	}

	var result *types.Page[types.Job]
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		var err error
		result, err = s.list(ctx, tx, db.ListJobsOptions{
			Title:       filter.Title,
			Location:    filter.Location,
			CompanyName: filter.CompanyName,
			Status:      filter.Status,
		}, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListMine returns a page of the calling company's own jobs.
func (s *JobService) ListMine(ctx context.Context, actorID uuid.UUID, status *types.JobStatus, page PageParams) (*types.Page[types.Job], error) {
	var result *types.Page[types.Job]
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		actor, _, err := resolveActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := page.Validate(); err != nil {
			return err
		}
		if status != nil && !status.Valid() {
			return &ErrValidation{Field: "status", Message: "must be one of: Draft Open Closed"}
		}
		if err := checkRole(actor, access.ActionJobListOwn); err != nil {
			return err
		}

		result, err = s.list(ctx, tx, db.ListJobsOptions{Status: status, CreatedBy: &actor.ID}, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// list reads the count and the page through the same transaction so they agree.
func (s *JobService) list(ctx context.Context, tx DBClient, opts db.ListJobsOptions, page PageParams) (*types.Page[types.Job], error) {
	opts.Limit = page.Size
	opts.Offset = page.Offset()

	rows, total, err := tx.ListJobs(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	items := make([]types.Job, 0, len(rows))
	for i := range rows {
		items = append(items, *convertDBJob(&rows[i]))
	}
	return newPage(items, page, total), nil
}

// Update applies a partial update to a job owned by the caller. A status change must be
// allowed by the job workflow; repeating the current status is a no-op.
func (s *JobService) Update(ctx context.Context, actorID, jobID uuid.UUID, req *types.UpdateJobRequest) (*types.Job, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	// omitempty lets a present but blank value through.
	if req.Title != nil && *req.Title == "" {
		return nil, &ErrValidation{Field: "title", Message: "is required"}
	}
	if req.Description != nil && *req.Description == "" {
		return nil, &ErrValidation{Field: "description", Message: "is required"}
	}

	var (
		updated *db.Job
		from    types.JobStatus
	)
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		j, err := s.loadOwned(ctx, tx, actorID, jobID, access.ActionJobUpdate)
		if err != nil {
			return err
		}
		from = j.Status

		if req.Status != nil && *req.Status != j.Status {
			if err := workflow.CheckJobTransition(j.Status, *req.Status); err != nil {
				return err
			}
			j.Status = *req.Status
		}
		if req.Title != nil {
			j.Title = *req.Title
		}
		if req.Description != nil {
			j.Description = *req.Description
		}
		if req.Location != nil {
			if *req.Location == "" {
				j.Location = nil
			} else {
				j.Location = req.Location
			}
		}

		updated, err = tx.UpdateJob(ctx, j)
		if err != nil {
			return fmt.Errorf("failed to update job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated.Status != from {
		s.metrics.Transition("job", string(from), string(updated.Status))
		s.logger.WithFields(logrus.Fields{"job_id": updated.ID, "from": from, "to": updated.Status}).Info("job status changed")
	}
	return convertDBJob(updated), nil
}

// Delete removes a job owned by the caller together with its applications.
func (s *JobService) Delete(ctx context.Context, actorID, jobID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		if _, err := s.loadOwned(ctx, tx, actorID, jobID, access.ActionJobDelete); err != nil {
			return err
		}
		if err := tx.DeleteJob(ctx, jobID); err != nil {
			return fmt.Errorf("failed to delete job: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.WithField("job_id", jobID).Info("job deleted")
	return nil
}

// loadOwned locks the job and checks that the caller owns it.
func (s *JobService) loadOwned(ctx context.Context, tx DBClient, actorID, jobID uuid.UUID, action access.Action) (*db.Job, error) {
	actor, _, err := resolveActor(ctx, tx, actorID)
	if err != nil {
		return nil, err
	}
	if err := checkRole(actor, action); err != nil {
		return nil, err
	}

	j, err := tx.GetJobForUpdate(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if j == nil {
		return nil, &ErrNotFound{Resource: "job", ID: jobID}
	}
	if err := access.Check(actor, action, access.Resource{JobOwnerID: j.CreatedBy}); err != nil {
		return nil, err
	}
	return j, nil
}
