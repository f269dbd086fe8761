package services_test

import (
	"context"
	"io"
	"time"

	"service-jobs-api/internal/events"
	"service-jobs-api/internal/models"
	"service-jobs-api/internal/storage"
	"service-jobs-api/internal/transport/dto"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// fakeTx records whether the service committed. Every other pgx.Tx method
// panics through the nil embedded interface.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	txs []*fakeTx
	err error
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if d.err != nil {
		return nil, d.err
	}
	tx := &fakeTx{}
	d.txs = append(d.txs, tx)
	return tx, nil
}

func (d *fakeDB) lastTx() *fakeTx {
	if len(d.txs) == 0 {
		return nil
	}
	return d.txs[len(d.txs)-1]
}

// MockJobRepository is a mock type for the storage.JobRepository interface
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *models.ServiceJob) (*models.ServiceJob, error) {
	args := m.Called(ctx, job)
	return jobResult(args, job)
}

func (m *MockJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceJob), args.Error(1)
}

func (m *MockJobRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ServiceJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceJob), args.Error(1)
}

func (m *MockJobRepository) List(ctx context.Context, filter dto.JobFilter) ([]models.ServiceJob, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceJob), args.Error(1)
}

func (m *MockJobRepository) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ServiceJob, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceJob), args.Error(1)
}

func (m *MockJobRepository) Save(ctx context.Context, job *models.ServiceJob) (*models.ServiceJob, error) {
	args := m.Called(ctx, job)
	return jobResult(args, job)
}

func (m *MockJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// WithTx returns the same mock so expectations cover transactional calls too.
func (m *MockJobRepository) WithTx(tx pgx.Tx) storage.JobRepository {
	return m
}

var _ storage.JobRepository = (*MockJobRepository)(nil)

// echoJob makes Create/Save return a copy of what was written.
func echoJob(job *models.ServiceJob) *models.ServiceJob {
	c := job.Clone()
	return &c
}

func jobResult(args mock.Arguments, job *models.ServiceJob) (*models.ServiceJob, error) {
	switch v := args.Get(0).(type) {
	case func(*models.ServiceJob) *models.ServiceJob:
		return v(job), args.Error(1)
	case *models.ServiceJob:
		return v, args.Error(1)
	default:
		return nil, args.Error(1)
	}
}

// MockUserRepository is a mock type for the storage.UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, req *dto.GetUserByIdRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, req *dto.GetUserByEmailRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) WithTx(tx pgx.Tx) storage.UserRepository {
	return m
}

var _ storage.UserRepository = (*MockUserRepository)(nil)

// MockPublisher is a mock type for the events.Publisher interface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.JobEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var _ events.Publisher = (*MockPublisher)(nil)

// MockBlobStore is a mock type for the storage.BlobStore interface
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

var _ storage.BlobStore = (*MockBlobStore)(nil)
