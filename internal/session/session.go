package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/gateway"
)

// Storage keys, shared with the browser app's local storage layout.
const (
	TokenKey       = "authToken"
	CustomerIDKey  = "customerId"
	ImpersonateKey = "impersonateUserId"
)

var (
	ErrUnauthenticated = domain.ErrUnauthenticated
	ErrEmptyIdentity   = errors.New("impersonation id is empty")
)

const fetchFailedMessage = "Failed to fetch user info"

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, auth gateway.Auth) (domain.Profile, error)
}

// Session is the single source of truth for who is acting. Only its own
// methods write to the durable Storage.
type Session struct {
	storage Storage
	fetcher ProfileFetcher

	jar    http.CookieJar
	jarURL *url.URL

	mu      sync.RWMutex
	profile domain.Profile
	errMsg  string
}

type Option func(*Session)

// WithCookieJar mirrors the bearer token into an authToken cookie for origin.
func WithCookieJar(jar http.CookieJar, origin *url.URL) Option {
	return func(s *Session) {
		s.jar = jar
		s.jarURL = origin
	}
}

func New(storage Storage, fetcher ProfileFetcher, opts ...Option) *Session {
	s := &Session{storage: storage, fetcher: fetcher}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores a persisted session and refreshes its profile when a token exists.
func (s *Session) Load(ctx context.Context) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	s.mirrorCookie(token)
	return s.Refresh(ctx)
}

// Login persists the credentials, then fetches the profile. A failed fetch is
// recorded and returned but never retried.
func (s *Session) Login(ctx context.Context, token, customerID string) error {
	if err := s.storage.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.storage.Set(ctx, CustomerIDKey, customerID); err != nil {
		return fmt.Errorf("persist customer id: %w", err)
	}
	s.mirrorCookie(token)
	return s.Refresh(ctx)
}

// Logout clears durable storage, the session cookie and the in-memory profile.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.storage.Delete(ctx, TokenKey, CustomerIDKey, ImpersonateKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.mirrorCookie("")

	s.mu.Lock()
	s.profile = domain.Profile{}
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

func (s *Session) Token(ctx context.Context) (string, error) {
	return s.storage.Get(ctx, TokenKey)
}

func (s *Session) CustomerID(ctx context.Context) (string, error) {
	return s.storage.Get(ctx, CustomerIDKey)
}

func (s *Session) StartImpersonating(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyIdentity
	}
	return s.storage.Set(ctx, ImpersonateKey, id)
}

func (s *Session) StopImpersonating(ctx context.Context) error {
	return s.storage.Delete(ctx, ImpersonateKey)
}

// Impersonating returns the identity being acted as, or "".
func (s *Session) Impersonating(ctx context.Context) (string, error) {
	return s.storage.Get(ctx, ImpersonateKey)
}

// Credentials is the identity every outbound call should carry.
func (s *Session) Credentials(ctx context.Context) (gateway.Auth, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return gateway.Auth{}, err
	}
	impersonation, err := s.Impersonating(ctx)
	if err != nil {
		return gateway.Auth{}, err
	}
	return gateway.Auth{Token: token, ImpersonationID: impersonation}, nil
}

// Refresh re-fetches the profile. A 401 clears the stored token and customer
// id; any other failure keeps them and records a generic message.
func (s *Session) Refresh(ctx context.Context) error {
	auth, err := s.Credentials(ctx)
	if err != nil {
		return err
	}
	if auth.Token == "" {
		return ErrUnauthenticated
	}

	profile, err := s.fetcher.FetchProfile(ctx, auth)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			if clearErr := s.storage.Delete(ctx, TokenKey, CustomerIDKey); clearErr != nil {
				log.Printf("[session] failed to clear credentials: %v", clearErr)
			}
			s.mirrorCookie("")
			s.mu.Lock()
			s.profile = domain.Profile{}
			s.errMsg = ""
			s.mu.Unlock()
			return ErrUnauthenticated
		}

		s.mu.Lock()
		s.errMsg = fetchFailedMessage
		s.mu.Unlock()
		return fmt.Errorf("fetch profile: %w", err)
	}

	s.mu.Lock()
	s.profile = profile
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

func (s *Session) Profile() domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Err is the last profile fetch failure shown to the user, or "".
func (s *Session) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *Session) mirrorCookie(token string) {
	if s.jar == nil || s.jarURL == nil {
		return
	}
	cookie := &http.Cookie{Name: TokenKey, Value: url.QueryEscape(token), Path: "/"}
	if token == "" {
		cookie.MaxAge = -1
	}
	s.jar.SetCookies(s.jarURL, []*http.Cookie{cookie})
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
