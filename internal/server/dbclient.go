package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/db"
	"github.com/jonathan/job-board/internal/types"
)

// DBClient is the persistence surface the services depend on. *db.DB satisfies it
// through NewDBClient; tests use an in-memory implementation.
type DBClient interface {
	// WithTx runs fn in a transaction; the DBClient passed to fn is bound to it.
	WithTx(ctx context.Context, fn func(tx DBClient) error) error
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, input *db.UserCreateInput) (*db.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdateUser(ctx context.Context, u *db.User) (*db.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	CreateJob(ctx context.Context, input *db.JobCreateInput) (*db.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (*db.Job, error)
	GetJobForUpdate(ctx context.Context, id uuid.UUID) (*db.Job, error)
	UpdateJob(ctx context.Context, j *db.Job) (*db.Job, error)
	DeleteJob(ctx context.Context, id uuid.UUID) error
	ListJobs(ctx context.Context, opts db.ListJobsOptions) ([]db.Job, int, error)

	CreateApplication(ctx context.Context, input *db.ApplicationCreateInput) (*db.Application, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*db.Application, error)
	GetApplicationForUpdate(ctx context.Context, id uuid.UUID) (*db.Application, error)
	GetApplicationByApplicantAndJob(ctx context.Context, applicantID, jobID uuid.UUID) (*db.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status types.ApplicationStatus) (*db.Application, error)
	DeleteApplication(ctx context.Context, id uuid.UUID) error
	ListApplications(ctx context.Context, opts db.ListApplicationsOptions) ([]db.Application, int, error)
}

// pgClient adapts *db.DB to DBClient.
type pgClient struct {
	*db.DB
}

// NewDBClient wraps a connected database.
func NewDBClient(database *db.DB) DBClient {
	return &pgClient{DB: database}
}

func (c *pgClient) WithTx(ctx context.Context, fn func(tx DBClient) error) error {
	return c.DB.WithTx(ctx, func(tx *db.DB) error {
		return fn(&pgClient{DB: tx})
	})
}
