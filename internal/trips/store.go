package trips

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/gateway"
)

const fetchFailedMessage = "Failed to fetch trips"

type Fetcher interface {
	FetchTrips(ctx context.Context, auth gateway.Auth) ([]domain.Booking, error)
}

// Identity supplies the credentials each fetch is made with.
type Identity interface {
	Credentials(ctx context.Context) (gateway.Auth, error)
}

// Store caches the signed-in user's bookings. The cached list is only ever
// replaced whole; a failed refresh keeps the previous list.
type Store struct {
	fetcher  Fetcher
	identity Identity
	now      func() time.Time

	group singleflight.Group

	mu     sync.RWMutex
	trips  []domain.Booking
	loaded bool
	errMsg string
}

type Option func(*Store)

// WithSeed preloads a list fetched elsewhere, so the first read does not hit the network.
func WithSeed(bookings []domain.Booking) Option {
	return func(s *Store) {
		s.trips = sortTrips(bookings)
		s.loaded = true
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(fetcher Fetcher, identity Identity, opts ...Option) *Store {
	s := &Store{fetcher: fetcher, identity: identity, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureLoaded fetches once when the store was not seeded.
func (s *Store) EnsureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh re-fetches the whole list. Concurrent callers share one upstream call.
func (s *Store) Refresh(ctx context.Context) error {
	ch := s.group.DoChan("trips", func() (interface{}, error) {
		return nil, s.fetch(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (s *Store) fetch(ctx context.Context) error {
	auth, err := s.identity.Credentials(ctx)
	if err != nil {
		s.fail(err)
		return err
	}

	bookings, err := s.fetcher.FetchTrips(ctx, auth)
	if err != nil {
		s.fail(err)
		return err
	}

	sorted := sortTrips(bookings)

	s.mu.Lock()
	s.trips = sorted
	s.loaded = true
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

func (s *Store) fail(err error) {
	log.Printf("[trips] refresh failed: %v", err)

	msg := fetchFailedMessage
	var ue *gateway.UpstreamError
	if errors.As(err, &ue) && ue.Message != "" {
		msg = ue.Message
	}

	s.mu.Lock()
	s.loaded = true
	s.errMsg = msg
	s.mu.Unlock()
}

// Trips returns a copy of the cached list in display order.
func (s *Store) Trips() []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Booking, len(s.trips))
	copy(out, s.trips)
	return out
}

// GetTrip reports false when no cached booking has the id.
func (s *Store) GetTrip(id string) (domain.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.trips {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Booking{}, false
}

// Visible drops bookings the user chose to ignore.
func (s *Store) Visible() []domain.Booking {
	all := s.Trips()
	out := all[:0]
	for _, b := range all {
		if !b.IsIgnored {
			out = append(out, b)
		}
	}
	return out
}

// Err is the last refresh failure, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Year selects a slice of trips by trip date.
type Year struct {
	Label string
	Value int
}

var (
	Upcoming  = Year{Label: "Upcoming"}
	PastYears = Year{Label: "Past Years"}
)

func CalendarYear(y int) Year {
	return Year{Label: strconv.Itoa(y), Value: y}
}

// Years lists the filters worth offering for the cached trips.
func (s *Store) Years() []Year {
	years := distinctYears(s.Trips())
	switch len(years) {
	case 0:
		return []Year{Upcoming}
	case 1:
		return []Year{Upcoming, CalendarYear(years[0])}
	default:
		return []Year{Upcoming, CalendarYear(years[len(years)-1]), PastYears}
	}
}

// Filter returns the cached trips matching y, in display order.
func (s *Store) Filter(y Year) []domain.Booking {
	all := s.Trips()
	now := s.now()

	var keep func(time.Time) bool
	switch y {
	case Upcoming:
		keep = func(t time.Time) bool { return t.After(now) }
	case PastYears:
		years := distinctYears(all)
		if len(years) == 0 {
			return nil
		}
		latest := years[len(years)-1]
		keep = func(t time.Time) bool { return t.Year() < latest }
	default:
		keep = func(t time.Time) bool { return t.Year() == y.Value }
	}

	var out []domain.Booking
	for _, b := range all {
		if date, ok := b.TripDate(); ok && keep(date) {
			out = append(out, b)
		}
	}
	return out
}

func distinctYears(bookings []domain.Booking) []int {
	seen := make(map[int]struct{})
	var years []int
	for _, b := range bookings {
		date, ok := b.TripDate()
		if !ok {
			continue
		}
		if _, dup := seen[date.Year()]; dup {
			continue
		}
		seen[date.Year()] = struct{}{}
		years = append(years, date.Year())
	}
	sort.Ints(years)
	return years
}

// sortTrips orders by potential savings, highest first, then by trip date, earliest first.
// Undated trips sort after dated ones with equal savings.
func sortTrips(bookings []domain.Booking) []domain.Booking {
	out := make([]domain.Booking, len(bookings))
	copy(out, bookings)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].PotentialSavings().Cents(), out[j].PotentialSavings().Cents()
		if si != sj {
			return si > sj
		}
		di, okI := out[i].TripDate()
		dj, okJ := out[j].TripDate()
		switch {
		case okI && okJ:
			return di.Before(dj)
		case okI:
			return true
		default:
			return false
		}
	})
	return out
}
