package session

import (
	"context"
	"errors"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProfileFetcher struct {
	mock.Mock
}

func (m *MockProfileFetcher) FetchProfile(ctx context.Context, auth gateway.Auth) (domain.Profile, error) {
	args := m.Called(ctx, auth)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func newMemorySession(t *testing.T, fetcher ProfileFetcher, opts ...Option) (*Session, Storage) {
	t.Helper()
	storage, err := NewStorage(StorageTypeMemory)
	require.NoError(t, err)
	return New(storage, fetcher, opts...), storage
}

var ada = domain.Profile{CustomerID: "c-1", FirstName: "Ada", LastName: "Lovelace"}

func TestSession_LoginFetchesProfile(t *testing.T) {
	fetcher := &MockProfileFetcher{}
	s, _ := newMemorySession(t, fetcher)
	ctx := context.Background()

	fetcher.On("FetchProfile", ctx, gateway.Auth{Token: "tok"}).Return(ada, nil).Once()

	require.NoError(t, s.Login(ctx, "tok", "c-1"))

	token, _ := s.Token(ctx)
	customerID, _ := s.CustomerID(ctx)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "c-1", customerID)
	assert.Equal(t, ada, s.Profile())
	assert.Empty(t, s.Err())
}

func TestSession_LogoutClearsEverything(t *testing.T) {
	fetcher := &MockProfileFetcher{}
	jar, _ := cookiejar.New(nil)
	origin, _ := url.Parse("http://localhost:8080")
	s, _ := newMemorySession(t, fetcher, WithCookieJar(jar, origin))
	ctx := context.Background()

	fetcher.On("FetchProfile", ctx, mock.Anything).Return(ada, nil).Once()
	require.NoError(t, s.Login(ctx, "tok", "c-1"))
	require.NoError(t, s.StartImpersonating(ctx, "c-9"))
	require.Len(t, jar.Cookies(origin), 1)

	require.NoError(t, s.Logout(ctx))

	token, _ := s.Token(ctx)
	impersonating, _ := s.Impersonating(ctx)
	assert.Empty(t, token)
	assert.Empty(t, impersonating)
	assert.Equal(t, domain.Profile{}, s.Profile())
	assert.Empty(t, jar.Cookies(origin))

	// anything authenticated after logout takes the unauthenticated path
	assert.ErrorIs(t, s.Refresh(ctx), ErrUnauthenticated)
	fetcher.AssertNumberOfCalls(t, "FetchProfile", 1)
}

func TestSession_RefreshUnauthorizedClearsCredentials(t *testing.T) {
	fetcher := &MockProfileFetcher{}
	s, storage := newMemorySession(t, fetcher)
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, TokenKey, "expired"))
	require.NoError(t, storage.Set(ctx, CustomerIDKey, "c-1"))

	fetcher.On("FetchProfile", ctx, gateway.Auth{Token: "expired"}).Return(domain.Profile{}, domain.ErrUnauthenticated).Once()

	err := s.Load(ctx)

	assert.ErrorIs(t, err, ErrUnauthenticated)
	token, _ := s.Token(ctx)
	customerID, _ := s.CustomerID(ctx)
	assert.Empty(t, token)
	assert.Empty(t, customerID)
}

func TestSession_RefreshOtherFailureKeepsCredentials(t *testing.T) {
	fetcher := &MockProfileFetcher{}
	s, storage := newMemorySession(t, fetcher)
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, TokenKey, "tok"))

	fetcher.On("FetchProfile", ctx, gateway.Auth{Token: "tok"}).Return(domain.Profile{}, errors.New("boom")).Once()

	err := s.Refresh(ctx)

	require.Error(t, err)
	assert.Equal(t, "Failed to fetch user info", s.Err())
	token, _ := s.Token(ctx)
	assert.Equal(t, "tok", token)
}

func TestSession_ImpersonationIsOptIn(t *testing.T) {
	fetcher := &MockProfileFetcher{}
	s, storage := newMemorySession(t, fetcher)
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, TokenKey, "tok"))

	auth, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, gateway.Auth{Token: "tok"}, auth)

	assert.ErrorIs(t, s.StartImpersonating(ctx, ""), ErrEmptyIdentity)
	require.NoError(t, s.StartImpersonating(ctx, "c-9"))
	auth, _ = s.Credentials(ctx)
	assert.Equal(t, "c-9", auth.ImpersonationID)

	require.NoError(t, s.StopImpersonating(ctx))
	auth, _ = s.Credentials(ctx)
	assert.Empty(t, auth.ImpersonationID)
}

func TestSession_LoadWithoutToken(t *testing.T) {
	fetcher := &MockProfileFetcher{}
	s, _ := newMemorySession(t, fetcher)

	require.NoError(t, s.Load(context.Background()))
	fetcher.AssertNotCalled(t, "FetchProfile", mock.Anything, mock.Anything)
}

func TestSession_Context(t *testing.T) {
	s, _ := newMemorySession(t, &MockProfileFetcher{})
	ctx := NewContext(context.Background(), s)

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, s, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestNewStorage(t *testing.T) {
	_, err := NewStorage(StorageTypeRedis)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewStorage("disk")
	assert.ErrorIs(t, err, ErrInvalidStorageType)

	storage, err := NewStorage(StorageTypeMemory)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, "k", "v"))
	v, _ := storage.Get(ctx, "k")
	assert.Equal(t, "v", v)
	require.NoError(t, storage.Delete(ctx, "k"))
	v, _ = storage.Get(ctx, "k")
	assert.Empty(t, v)
}
