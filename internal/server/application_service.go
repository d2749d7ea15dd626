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

// ApplicationService provides business logic for job applications
type ApplicationService struct {
	db      DBClient
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewApplicationService creates a new ApplicationService with the given dependencies
func NewApplicationService(db DBClient, logger logrus.FieldLogger, m *metrics.Metrics) *ApplicationService {
	return &ApplicationService{db: db, logger: logger, metrics: m}
}

// Submit files the caller's application to an open job. An applicant applies to a job
// at most once.
func (s *ApplicationService) Submit(ctx context.Context, actorID uuid.UUID, req *types.SubmitApplicationRequest) (*types.Application, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	var created *db.Application
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		actor, _, err := resolveActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := checkRole(actor, access.ActionApplicationSubmit); err != nil {
			return err
		}

		job, err := tx.GetJobForUpdate(ctx, req.JobID)
		if err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}
		if job == nil {
			return &ErrNotFound{Resource: "job", ID: req.JobID}
		}
		if job.Status != types.JobStatusOpen {
			return &ErrValidation{Field: "job_id", Message: fmt.Sprintf("job is not open for applications (status %s)", job.Status)}
		}

		existing, err := tx.GetApplicationByApplicantAndJob(ctx, actor.ID, job.ID)
		if err != nil {
			return fmt.Errorf("failed to check existing application: %w", err)
		}
		if existing != nil {
			return &ErrConflict{Message: "you have already applied to this job"}
		}

		created, err = tx.CreateApplication(ctx, &db.ApplicationCreateInput{
			ApplicantID: actor.ID,
			JobID:       job.ID,
			ResumeLink:  req.ResumeLink,
			CoverLetter: req.CoverLetter,
		})
		if err != nil {
			if isUniqueViolation(err) {
				return &ErrConflict{Message: "you have already applied to this job"}
			}
			return fmt.Errorf("failed to create application: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ApplicationSubmitted()
	s.logger.WithFields(logrus.Fields{"application_id": created.ID, "job_id": created.JobID, "applicant_id": created.ApplicantID}).Info("application submitted")
	return convertDBApplication(created), nil
}

// Get returns an application to its applicant or to the company owning the job.
func (s *ApplicationService) Get(ctx context.Context, actorID, applicationID uuid.UUID) (*types.Application, error) {
	var a *db.Application
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		actor, _, err := resolveActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := checkRole(actor, access.ActionApplicationRead); err != nil {
			return err
		}

		a, err = tx.GetApplication(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("failed to get application: %w", err)
		}
		if a == nil {
			return &ErrNotFound{Resource: "application", ID: applicationID}
		}
		return s.checkApplication(ctx, tx, actor, access.ActionApplicationRead, a)
	})
	if err != nil {
		return nil, err
	}
	return convertDBApplication(a), nil
}

// ListMine returns a page of the calling applicant's applications, newest first.
func (s *ApplicationService) ListMine(ctx context.Context, actorID uuid.UUID, status *types.ApplicationStatus, page PageParams) (*types.Page[types.Application], error) {
	var result *types.Page[types.Application]
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		actor, _, err := resolveActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := validateListArgs(status, page); err != nil {
			return err
		}
		if err := checkRole(actor, access.ActionApplicationListOwn); err != nil {
			return err
		}

		result, err = s.list(ctx, tx, db.ListApplicationsOptions{ApplicantID: &actor.ID, Status: status}, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListByJob returns a page of the applications to a job owned by the caller.
func (s *ApplicationService) ListByJob(ctx context.Context, actorID, jobID uuid.UUID, status *types.ApplicationStatus, page PageParams) (*types.Page[types.Application], error) {
	var result *types.Page[types.Application]
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		actor, _, err := resolveActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := validateListArgs(status, page); err != nil {
			return err
		}
		if err := checkRole(actor, access.ActionApplicationListByJob); err != nil {
			return err
		}

		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}
		if job == nil {
			return &ErrNotFound{Resource: "job", ID: jobID}
		}
		if err := access.Check(actor, access.ActionApplicationListByJob, access.Resource{JobOwnerID: job.CreatedBy}); err != nil {
			return err
		}

		result, err = s.list(ctx, tx, db.ListApplicationsOptions{JobID: &job.ID, Status: status}, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateListArgs(status *types.ApplicationStatus, page PageParams) error {
	if err := page.Validate(); err != nil {
		return err
	}
	if status != nil && !status.Valid() {
		return &ErrValidation{Field: "status", Message: "must be one of: Applied Reviewed Interview Rejected Hired"}
	}
	return nil
}

func (s *ApplicationService) list(ctx context.Context, tx DBClient, opts db.ListApplicationsOptions, page PageParams) (*types.Page[types.Application], error) {
	opts.Limit = page.Size
	opts.Offset = page.Offset()

	rows, total, err := tx.ListApplications(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	items := make([]types.Application, 0, len(rows))
	for i := range rows {
		items = append(items, *convertDBApplication(&rows[i]))
	}
	return newPage(items, page, total), nil
}

// UpdateStatus moves an application along the hiring workflow. Only the company owning
// the job may do so.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actorID, applicationID uuid.UUID, req *types.UpdateApplicationStatusRequest) (*types.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	var (
		updated *db.Application
		from    types.ApplicationStatus
	)
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		actor, _, err := resolveActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := checkRole(actor, access.ActionApplicationUpdateStatus); err != nil {
			return err
		}

		a, err := tx.GetApplicationForUpdate(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("failed to get application: %w", err)
		}
		if a == nil {
			return &ErrNotFound{Resource: "application", ID: applicationID}
		}
		if err := s.checkApplication(ctx, tx, actor, access.ActionApplicationUpdateStatus, a); err != nil {
			return err
		}

		if err := workflow.CheckApplicationTransition(a.Status, req.Status); err != nil {
			return err
		}
		from = a.Status

		updated, err = tx.UpdateApplicationStatus(ctx, a.ID, req.Status)
		if err != nil {
			return fmt.Errorf("failed to update application status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition("application", string(from), string(updated.Status))
	s.logger.WithFields(logrus.Fields{"application_id": updated.ID, "from": from, "to": updated.Status}).Info("application status changed")
	return convertDBApplication(updated), nil
}

// Withdraw deletes the caller's own application while it is still pending.
func (s *ApplicationService) Withdraw(ctx context.Context, actorID, applicationID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		actor, _, err := resolveActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := checkRole(actor, access.ActionApplicationWithdraw); err != nil {
			return err
		}

		a, err := tx.GetApplicationForUpdate(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("failed to get application: %w", err)
		}
		if a == nil {
			return &ErrNotFound{Resource: "application", ID: applicationID}
		}
		if err := access.Check(actor, access.ActionApplicationWithdraw, access.Resource{ApplicantID: a.ApplicantID}); err != nil {
			return err
		}
		if !a.Status.Pending() {
			return &ErrValidation{Field: "status", Message: fmt.Sprintf("an application in status %s can no longer be withdrawn", a.Status)}
		}

		if err := tx.DeleteApplication(ctx, a.ID); err != nil {
			return fmt.Errorf("failed to delete application: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.WithField("application_id", applicationID).Info("application withdrawn")
	return nil
}

// checkApplication resolves the job owner of a and runs the ownership check for action.
func (s *ApplicationService) checkApplication(ctx context.Context, tx DBClient, actor access.Actor, action access.Action, a *db.Application) error {
	job, err := tx.GetJob(ctx, a.JobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return &ErrNotFound{Resource: "job", ID: a.JobID}
	}
	return access.Check(actor, action, access.Resource{JobOwnerID: job.CreatedBy, ApplicantID: a.ApplicantID})
}
