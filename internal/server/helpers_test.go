package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/config"
	"github.com/jonathan/job-board/internal/db"
	"github.com/jonathan/job-board/internal/logging"
	"github.com/jonathan/job-board/internal/metrics"
	"github.com/jonathan/job-board/internal/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Str0ng!Pass"

// testEnv bundles the services over one in-memory database.
type testEnv struct {
	db       *memDB
	password *config.PasswordConfig
	jwt      *JWTService
	metrics  *metrics.Metrics
	users    *UserService
	jobs     *JobService
	apps     *ApplicationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := newMemDB()
	pw := &config.PasswordConfig{BcryptCost: bcrypt.MinCost}
	jwtService := setupTestJWTService(t)
	logger := logging.Discard()
	m := metrics.New()

	return &testEnv{
		db:       mem,
		password: pw,
		jwt:      jwtService,
		metrics:  m,
		users:    NewUserService(mem, pw, jwtService, logger, m),
		jobs:     NewJobService(mem, logger, m),
		apps:     NewApplicationService(mem, logger, m),
	}
}

// seedUser inserts an active user straight into the database.
func (e *testEnv) seedUser(t *testing.T, name, email string, role types.Role) *db.User {
	t.Helper()
	hash, err := e.password.HashPassword(testPassword)
	require.NoError(t, err)
	u, err := e.db.CreateUser(context.Background(), &db.UserCreateInput{
		FullName:     name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) seedCompany(t *testing.T) *db.User {
	t.Helper()
	return e.seedUser(t, "Acme Corp", "hr-"+uuid.NewString()[:8]+"@acme.test", types.RoleCompany)
}

func (e *testEnv) seedApplicant(t *testing.T) *db.User {
	t.Helper()
	return e.seedUser(t, "Jane Doe", "jane-"+uuid.NewString()[:8]+"@example.test", types.RoleApplicant)
}

// seedJob creates a job through the service so that workflow rules apply.
func (e *testEnv) seedJob(t *testing.T, ownerID uuid.UUID, status types.JobStatus) *types.Job {
	t.Helper()
	job, err := e.jobs.Create(context.Background(), ownerID, &types.CreateJobRequest{
		Title:       "Backend Engineer",
		Description: "Build and operate the services behind our job board.",
		Status:      status,
	})
	require.NoError(t, err)
	return job
}

func (e *testEnv) seedApplication(t *testing.T, applicantID, jobID uuid.UUID) *types.Application {
	t.Helper()
	app, err := e.apps.Submit(context.Background(), applicantID, &types.SubmitApplicationRequest{
		JobID:      jobID,
		ResumeLink: "https://cv.example.test/jane.pdf",
	})
	require.NoError(t, err)
	return app
}

func strPtr(s string) *string { return &s }

// scrapeMetrics returns the text exposition of the environment's registry.
func scrapeMetrics(t *testing.T, e *testEnv) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
