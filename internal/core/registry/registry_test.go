package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thawee/SmartTomcat/internal/core/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

var testKey = domain.ProfileKey{KindID: domain.DefaultKindID, Name: "Tomcat: SHOP - 8080"}

func newProfile(records ...domain.WebappDeploymentRecord) *domain.RunProfile {
	p := domain.NewRunProfile(testKey, domain.ProfileDefaults{})
	p.Webapps = append(p.Webapps, records...)
	return p
}

func rec(item, ctxPath string) domain.WebappDeploymentRecord {
	return domain.WebappDeploymentRecord{WorkspaceItem: item, DocBase: "/work/" + item + "/WebContent", ContextPath: ctxPath}
}

// stubProfileStore implements ProfileStore in memory.
type stubProfileStore struct {
	profiles   map[domain.ProfileKey]*domain.RunProfile
	registered int
	findErr    error
}

func newStubProfileStore() *stubProfileStore {
	return &stubProfileStore{profiles: make(map[domain.ProfileKey]*domain.RunProfile)}
}

func (s *stubProfileStore) FindProfile(ctx context.Context, key domain.ProfileKey) (*domain.RunProfile, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	p, ok := s.profiles[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *stubProfileStore) RegisterProfile(ctx context.Context, p *domain.RunProfile) error {
	s.registered++
	s.profiles[p.Key] = p
	return nil
}

func (s *stubProfileStore) SaveProfile(ctx context.Context, p *domain.RunProfile) error {
	s.profiles[p.Key] = p
	return nil
}

func (s *stubProfileStore) SelectProfile(ctx context.Context, key domain.ProfileKey) error {
	return nil
}

// =============================================================================
// Upsert Tests
// =============================================================================

func TestUpsert_AppendsNewRecord(t *testing.T) {
	p := newProfile(rec("a", "/a"))

	require.NoError(t, Upsert(p, rec("b", "/b")))
	assert.Equal(t, []domain.WebappDeploymentRecord{rec("a", "/a"), rec("b", "/b")}, p.Webapps)
}

func TestUpsert_ReplacesRecordForSameItem(t *testing.T) {
	p := newProfile(rec("a", "/a"))

	require.NoError(t, Upsert(p, rec("a", "/a2")))

	require.Len(t, p.Webapps, 1)
	assert.Equal(t, "a", p.Webapps[0].WorkspaceItem)
	assert.Equal(t, "/a2", p.Webapps[0].ContextPath)
}

func TestUpsert_SameItemMayKeepContextPath(t *testing.T) {
	p := newProfile(rec("a", "/a"), rec("b", "/b"))

	require.NoError(t, Upsert(p, rec("a", "/a")))
	assert.Equal(t, []domain.WebappDeploymentRecord{rec("b", "/b"), rec("a", "/a")}, p.Webapps)
}

func TestUpsert_DuplicateContextPath(t *testing.T) {
	p := newProfile(rec("a", "/a2"))
	before := append([]domain.WebappDeploymentRecord(nil), p.Webapps...)

	err := Upsert(p, rec("b", "/a2"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateContextPath)
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "/a2", vErr.Value)
	assert.Equal(t, before, p.Webapps)
}

func TestUpsert_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		record  domain.WebappDeploymentRecord
		wantErr error
	}{
		{"empty context path", rec("a", ""), domain.ErrEmptyContextPath},
		{"malformed context path", rec("a", "a"), domain.ErrMalformedContextPath},
		{"missing item", domain.WebappDeploymentRecord{DocBase: "/x", ContextPath: "/x"}, domain.ErrMissingWorkspaceItem},
		{"missing doc base", domain.WebappDeploymentRecord{WorkspaceItem: "a", ContextPath: "/a"}, domain.ErrMissingDocBase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProfile(rec("z", "/z"))
			err := Upsert(p, tt.record)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, []domain.WebappDeploymentRecord{rec("z", "/z")}, p.Webapps)
		})
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	p := newProfile()

	require.NoError(t, Upsert(p, rec("a", "/a")))
	once := append([]domain.WebappDeploymentRecord(nil), p.Webapps...)
	require.NoError(t, Upsert(p, rec("a", "/a")))

	assert.Equal(t, once, p.Webapps)
}

func TestRemove(t *testing.T) {
	p := newProfile(rec("a", "/a"), rec("b", "/b"))

	assert.True(t, Remove(p, "a"))
	assert.False(t, Remove(p, "a"))
	assert.Equal(t, []domain.WebappDeploymentRecord{rec("b", "/b")}, p.Webapps)
}

// =============================================================================
// FindOrCreateProfile Tests
// =============================================================================

func TestFindOrCreateProfile_Creates(t *testing.T) {
	store := newStubProfileStore()

	p, created, err := FindOrCreateProfile(context.Background(), store, testKey, domain.ProfileDefaults{})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 8080, p.Port)
	assert.Empty(t, p.Webapps)
	assert.Equal(t, 1, store.registered)
}

func TestFindOrCreateProfile_ReusesWithoutReset(t *testing.T) {
	store := newStubProfileStore()
	existing := newProfile(rec("a", "/a"))
	existing.Port = 9090
	existing.VMOptions = "-Xmx1g"
	store.profiles[testKey] = existing

	p, created, err := FindOrCreateProfile(context.Background(), store, testKey, domain.ProfileDefaults{Port: 8080})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, existing, p)
	assert.Equal(t, 9090, p.Port)
	assert.Equal(t, "-Xmx1g", p.VMOptions)
	assert.Len(t, p.Webapps, 1)
	assert.Equal(t, 0, store.registered)
}

func TestFindOrCreateProfile_LookupError(t *testing.T) {
	store := newStubProfileStore()
	store.findErr = errors.New("disk I/O error")

	_, _, err := FindOrCreateProfile(context.Background(), store, testKey, domain.ProfileDefaults{})
	assert.EqualError(t, err, "disk I/O error")
	assert.Equal(t, 0, store.registered)
}

func TestFindOrCreateProfile_InvalidDefaults(t *testing.T) {
	store := newStubProfileStore()

	_, _, err := FindOrCreateProfile(context.Background(), store, testKey, domain.ProfileDefaults{Port: 70000})
	assert.ErrorIs(t, err, domain.ErrInvalidPort)
	assert.Equal(t, 0, store.registered)
}
