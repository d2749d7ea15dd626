package server

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/db"
	"github.com/jonathan/job-board/internal/types"
)

// memDB is an in-memory DBClient. WithTx snapshots the tables and restores them when
// the callback fails, which is enough to observe rollback behavior in tests.
type memDB struct {
	mu    sync.Mutex
	users map[uuid.UUID]db.User
	jobs  map[uuid.UUID]db.Job
	apps  map[uuid.UUID]db.Application
	clock time.Time

	// failOn makes the named method return an error once.
	failOn map[string]error

	// inTx counts open WithTx callbacks; outsideTx records gateway calls made
	// while none was open.
	inTx      int
	outsideTx []string
}

func newMemDB() *memDB {
	return &memDB{
		users:  make(map[uuid.UUID]db.User),
		jobs:   make(map[uuid.UUID]db.Job),
		apps:   make(map[uuid.UUID]db.Application),
		clock:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		failOn: make(map[string]error),
	}
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memDB) fail(method string) error {
	if err, ok := m.failOn[method]; ok {
		delete(m.failOn, method)
		return err
	}
	return nil
}

// track records a gateway call made outside any transaction. Callers hold m.mu.
func (m *memDB) track(method string) {
	if m.inTx == 0 {
		m.outsideTx = append(m.outsideTx, method)
	}
}

func (m *memDB) WithTx(ctx context.Context, fn func(tx DBClient) error) error {
	m.mu.Lock()
	users := cloneMap(m.users)
	jobs := cloneMap(m.jobs)
	apps := cloneMap(m.apps)
	m.inTx++
	m.mu.Unlock()

	err := fn(m)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inTx--
	if err != nil {
		m.users, m.jobs, m.apps = users, jobs, apps
	}
	return err
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memDB) Ping(context.Context) error { return nil }

func (m *memDB) CreateUser(_ context.Context, input *db.UserCreateInput) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("CreateUser")
	if err := m.fail("CreateUser"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Email == input.Email {
			return nil, fmt.Errorf("failed to create user: %w (users_email_key)", db.ErrUniqueViolation)
		}
	}
	now := m.tick()
	u := db.User{
		ID:           uuid.New(),
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[u.ID] = u
	return &u, nil
}

func (m *memDB) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("GetUser")
	if err := m.fail("GetUser"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memDB) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("GetUserByEmail")
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memDB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	u, err := m.GetUserByEmail(ctx, email)
	return u != nil, err
}

func (m *memDB) UpdateUser(_ context.Context, u *db.User) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("UpdateUser")
	existing, ok := m.users[u.ID]
	if !ok {
		return nil, fmt.Errorf("failed to update user: no rows")
	}
	for id, other := range m.users {
		if id != u.ID && other.Email == u.Email {
			return nil, fmt.Errorf("failed to update user: %w (users_email_key)", db.ErrUniqueViolation)
		}
	}
	existing.FullName = u.FullName
	existing.Email = u.Email
	existing.IsActive = u.IsActive
	existing.IsVerified = u.IsVerified
	existing.UpdatedAt = m.tick()
	m.users[u.ID] = existing
	return &existing, nil
}

func (m *memDB) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("UpdatePassword")
	if err := m.fail("UpdatePassword"); err != nil {
		return err
	}
	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("failed to update password: user not found: %s", userID)
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = m.tick()
	m.users[userID] = u
	return nil
}

// withCompany fills the joined company name. Callers hold m.mu.
func (m *memDB) withCompany(j db.Job) *db.Job {
	j.CompanyName = m.users[j.CreatedBy].FullName
	return &j
}

func (m *memDB) CreateJob(_ context.Context, input *db.JobCreateInput) (*db.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("CreateJob")
	if err := m.fail("CreateJob"); err != nil {
		return nil, err
	}
	if _, ok := m.users[input.CreatedBy]; !ok {
		return nil, fmt.Errorf("failed to create job: foreign key violation")
	}
	now := m.tick()
	j := db.Job{
		ID:          uuid.New(),
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Status:      input.Status,
		CreatedBy:   input.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.jobs[j.ID] = j
	return m.withCompany(j), nil
}

func (m *memDB) GetJob(_ context.Context, id uuid.UUID) (*db.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("GetJob")
	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	return m.withCompany(j), nil
}

func (m *memDB) GetJobForUpdate(ctx context.Context, id uuid.UUID) (*db.Job, error) {
	return m.GetJob(ctx, id)
}

func (m *memDB) UpdateJob(_ context.Context, j *db.Job) (*db.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("UpdateJob")
	existing, ok := m.jobs[j.ID]
	if !ok {
		return nil, fmt.Errorf("failed to update job: no rows")
	}
	existing.Title = j.Title
	existing.Description = j.Description
	existing.Location = j.Location
	existing.Status = j.Status
	existing.UpdatedAt = m.tick()
	m.jobs[j.ID] = existing
	return m.withCompany(existing), nil
}

func (m *memDB) DeleteJob(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("DeleteJob")
	delete(m.jobs, id)
	for appID, a := range m.apps {
		if a.JobID == id {
			delete(m.apps, appID)
		}
	}
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (m *memDB) ListJobs(_ context.Context, opts db.ListJobsOptions) ([]db.Job, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("ListJobs")
	if err := m.fail("ListJobs"); err != nil {
		return nil, 0, err
	}

	var matched []db.Job
	for _, j := range m.jobs {
		full := *m.withCompany(j)
		if opts.Title != "" && !containsFold(full.Title, opts.Title) {
			continue
		}
		if opts.Location != "" && (full.Location == nil || !containsFold(*full.Location, opts.Location)) {
			continue
		}
		if opts.CompanyName != "" && !containsFold(full.CompanyName, opts.CompanyName) {
			continue
		}
		if opts.Status != nil && full.Status != *opts.Status {
			continue
		}
		if opts.CreatedBy != nil && full.CreatedBy != *opts.CreatedBy {
			continue
		}
		matched = append(matched, full)
	}
	sort.Slice(matched, func(a, b int) bool { return matched[a].CreatedAt.After(matched[b].CreatedAt) })
	return paginate(matched, opts.Limit, opts.Offset), len(matched), nil
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

// withJobTitle fills the joined job title. Callers hold m.mu.
func (m *memDB) withJobTitle(a db.Application) *db.Application {
	a.JobTitle = m.jobs[a.JobID].Title
	return &a
}

func (m *memDB) CreateApplication(_ context.Context, input *db.ApplicationCreateInput) (*db.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("CreateApplication")
	for _, a := range m.apps {
		if a.ApplicantID == input.ApplicantID && a.JobID == input.JobID {
			return nil, fmt.Errorf("failed to create application: %w (applications_applicant_job_key)", db.ErrUniqueViolation)
		}
	}
	now := m.tick()
	a := db.Application{
		ID:          uuid.New(),
		ApplicantID: input.ApplicantID,
		JobID:       input.JobID,
		ResumeLink:  input.ResumeLink,
		CoverLetter: input.CoverLetter,
		Status:      types.ApplicationStatusApplied,
		AppliedAt:   now,
		UpdatedAt:   now,
	}
	m.apps[a.ID] = a
	return m.withJobTitle(a), nil
}

func (m *memDB) GetApplication(_ context.Context, id uuid.UUID) (*db.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("GetApplication")
	a, ok := m.apps[id]
	if !ok {
		return nil, nil
	}
	return m.withJobTitle(a), nil
}

func (m *memDB) GetApplicationForUpdate(ctx context.Context, id uuid.UUID) (*db.Application, error) {
	return m.GetApplication(ctx, id)
}

func (m *memDB) GetApplicationByApplicantAndJob(_ context.Context, applicantID, jobID uuid.UUID) (*db.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("GetApplicationByApplicantAndJob")
	for _, a := range m.apps {
		if a.ApplicantID == applicantID && a.JobID == jobID {
			return m.withJobTitle(a), nil
		}
	}
	return nil, nil
}

func (m *memDB) UpdateApplicationStatus(_ context.Context, id uuid.UUID, status types.ApplicationStatus) (*db.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("UpdateApplicationStatus")
	a, ok := m.apps[id]
	if !ok {
		return nil, fmt.Errorf("failed to update application status: no rows")
	}
	a.Status = status
	a.UpdatedAt = m.tick()
	m.apps[id] = a
	return m.withJobTitle(a), nil
}

func (m *memDB) DeleteApplication(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("DeleteApplication")
	delete(m.apps, id)
	return nil
}

func (m *memDB) ListApplications(_ context.Context, opts db.ListApplicationsOptions) ([]db.Application, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("ListApplications")

	var matched []db.Application
	for _, a := range m.apps {
		if opts.ApplicantID != nil && a.ApplicantID != *opts.ApplicantID {
			continue
		}
		if opts.JobID != nil && a.JobID != *opts.JobID {
			continue
		}
		if opts.Status != nil && a.Status != *opts.Status {
			continue
		}
		matched = append(matched, *m.withJobTitle(a))
	}
	sort.Slice(matched, func(a, b int) bool { return matched[a].AppliedAt.After(matched[b].AppliedAt) })
	return paginate(matched, opts.Limit, opts.Offset), len(matched), nil
}

var _ DBClient = (*memDB)(nil)
