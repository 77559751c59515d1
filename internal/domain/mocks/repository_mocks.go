package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/talenthub/prefhub/internal/domain"
)

// MockIdentityProvider is a mock implementation of domain.IdentityProvider.
type MockIdentityProvider struct {
	Identity    domain.Identity
	HasIdentity bool
}

func (m *MockIdentityProvider) CurrentIdentity(ctx context.Context) (domain.Identity, bool) {
	return m.Identity, m.HasIdentity
}

// MockTenantRepository is a mock implementation of domain.TenantRepository.
type MockTenantRepository struct {
	mu            sync.Mutex
	Tenant        *domain.Tenant
	Pref          *domain.TenantPreference
	Languages     []string
	FindErr       error
	PrefErr       error
	LanguagesErr  error
	LanguageCalls int
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if m.Tenant == nil {
		return nil, domain.ErrNotFound
	}
	return m.Tenant, nil
}

func (m *MockTenantRepository) Preference(ctx context.Context, tenantID uuid.UUID) (*domain.TenantPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PrefErr != nil {
		return nil, m.PrefErr
	}
	if m.Pref == nil {
		return nil, domain.ErrNotFound
	}
	return m.Pref, nil
}

func (m *MockTenantRepository) AllowedLanguages(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LanguageCalls++
	if m.LanguagesErr != nil {
		return nil, m.LanguagesErr
	}
	return m.Languages, nil
}

// MockUserRepository is a mock implementation of domain.UserRepository.
type MockUserRepository struct {
	User    *domain.User
	FindErr error
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if m.User == nil {
		return nil, domain.ErrNotFound
	}
	return m.User, nil
}

// MockChangeLogRepository is a mock implementation of domain.ChangeLogRepository.
type MockChangeLogRepository struct {
	mu              sync.Mutex
	Published       []domain.PreferenceChange
	ReadBatchResult []domain.PreferenceChange
	AckedMessageIDs []string
	PublishErr      error
	ReadErr         error
	AckErr          error
}

func (m *MockChangeLogRepository) Publish(ctx context.Context, change domain.PreferenceChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Published = append(m.Published, change)
	return nil
}

func (m *MockChangeLogRepository) ReadBatch(ctx context.Context, group, consumer string, count int) ([]domain.PreferenceChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.ReadBatchResult, nil
}

func (m *MockChangeLogRepository) Acknowledge(ctx context.Context, group string, messageIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.AckedMessageIDs = append(m.AckedMessageIDs, messageIDs...)
	return nil
}

// MockSnapshotRepository is a mock implementation of domain.SnapshotRepository.
type MockSnapshotRepository struct {
	mu         sync.Mutex
	Upserted   []domain.UserPreference
	Snapshot   *domain.UserPreference
	UpsertErr  error
	FindErr    error
	UpsertHits int
}

func (m *MockSnapshotRepository) UpsertBatch(ctx context.Context, prefs []domain.UserPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertHits++
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.Upserted = append(m.Upserted, prefs...)
	return nil
}

func (m *MockSnapshotRepository) Find(ctx context.Context, tenantID, userID uuid.UUID) (*domain.UserPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if m.Snapshot == nil {
		return nil, domain.ErrNotFound
	}
	return m.Snapshot, nil
}

// MockSnapshotSource is a mock implementation of domain.SnapshotSource.
type MockSnapshotSource struct {
	Snapshot *domain.UserPreference
	FetchErr error
}

func (m *MockSnapshotSource) FetchPreference(ctx context.Context, tenantID, userID uuid.UUID) (*domain.UserPreference, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if m.Snapshot == nil {
		return nil, domain.ErrNotFound
	}
	return m.Snapshot, nil
}

// MockAuditRepository is a mock implementation of domain.AuditRepository.
type MockAuditRepository struct {
	mu        sync.Mutex
	Appended  []domain.PreferenceChange
	AppendErr error
}

func (m *MockAuditRepository) Append(ctx context.Context, change domain.PreferenceChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Appended = append(m.Appended, change)
	return nil
}

func (m *MockAuditRepository) Replay(ctx context.Context, handler func(change domain.PreferenceChange) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Appended {
		if err := handler(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockAuditRepository) Truncate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Appended = nil
	return nil
}

// MockStorageBackend is an in-memory mock of domain.StorageBackend with
// injectable failures.
type MockStorageBackend struct {
	mu        sync.Mutex
	Data      map[string][]byte
	GetErr    error
	SetErr    error
	RemoveErr error
	ClearErr  error
}

func NewMockStorageBackend() *MockStorageBackend {
	return &MockStorageBackend{Data: map[string][]byte{}}
}

func (m *MockStorageBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	data, ok := m.Data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return data, nil
}

func (m *MockStorageBackend) Set(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Data[key] = data
	return nil
}

func (m *MockStorageBackend) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.Data, key)
	return nil
}

func (m *MockStorageBackend) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Data = map[string][]byte{}
	return nil
}
