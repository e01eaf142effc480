package admission

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLedger serializes CreateWithinQuota on a mutex, standing in for the
// owner row lock.
type memLedger struct {
	mu       sync.Mutex
	bookings map[string]booking.Booking
	lastList booking.ListFilter
}

func newMemLedger() *memLedger {
	return &memLedger{bookings: map[string]booking.Booking{}}
}

func (l *memLedger) CreateWithinQuota(_ context.Context, b booking.Booking, quota int) (booking.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if quota > 0 {
		n := 0
		for _, x := range l.bookings {
			if x.UserID == b.UserID {
				n++
			}
		}
		if n >= quota {
			return booking.Booking{}, booking.ErrQuotaExceeded
		}
	}
	l.bookings[b.ID] = b
	return b, nil
}

func (l *memLedger) GetByID(_ context.Context, id string) (booking.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.bookings[id]
	if !ok {
		return booking.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (l *memLedger) List(_ context.Context, f booking.ListFilter) ([]booking.Booking, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastList = f
	var out []booking.Booking
	for _, b := range l.bookings {
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if f.ProviderID != nil && b.ProviderID != *f.ProviderID {
			continue
		}
		out = append(out, b)
	}
	return out, len(out), nil
}

func (l *memLedger) Update(_ context.Context, id string, p booking.Patch) (booking.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.bookings[id]
	if !ok {
		return booking.Booking{}, booking.ErrNotFound
	}
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.ProviderID != nil {
		b.ProviderID = *p.ProviderID
	}
	l.bookings[id] = b
	return b, nil
}

func (l *memLedger) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.bookings[id]; !ok {
		return booking.ErrNotFound
	}
	delete(l.bookings, id)
	return nil
}

type fakeProviders map[string]provider.Provider

func (f fakeProviders) GetByID(_ context.Context, id string) (provider.Provider, error) {
	p, ok := f[id]
	if !ok {
		return provider.Provider{}, provider.ErrNotFound
	}
	return p, nil
}

var (
	alice = user.Actor{ID: "alice", Role: user.RoleUser}
	bob   = user.Actor{ID: "bob", Role: user.RoleUser}
	admin = user.Actor{ID: "root", Role: user.RoleAdmin}
)

func newService() (*Service, *memLedger) {
	ledger := newMemLedger()
	providers := fakeProviders{
		"p1": {ID: "p1", Name: "Hertz", Address: "1 Main St", Tel: "0812345678"},
		"p2": {ID: "p2", Name: "Avis", Address: "2 Side Rd", Tel: "0898765432"},
	}
	return NewService(ledger, providers, nil, nil), ledger
}

func create(t *testing.T, s *Service, actor user.Actor, providerID string) booking.Booking {
	t.Helper()

	b, err := s.Create(context.Background(), actor, providerID, booking.CreateRequest{Date: "2025-03-10T09:00:00Z"})
	require.NoError(t, err)
	return b
}

func TestCreate_EmbedsProviderSummary(t *testing.T) {
	s, _ := newService()

	b := create(t, s, alice, "p1")

	assert.Equal(t, "alice", b.UserID)
	assert.Equal(t, "p1", b.ProviderID)
	require.NotNil(t, b.Provider)
	assert.Equal(t, "Hertz", b.Provider.Name)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), b.Date)
}

func TestCreate_QuotaForUsers(t *testing.T) {
	s, _ := newService()

	for range booking.MaxActivePerUser {
		create(t, s, alice, "p1")
	}

	_, err := s.Create(context.Background(), alice, "p2", booking.CreateRequest{Date: "2025-03-10T09:00:00Z"})
	assert.ErrorIs(t, err, booking.ErrQuotaExceeded)

	// quota is per user
	create(t, s, bob, "p1")
}

func TestCreate_QuotaAppliesToAdmins(t *testing.T) {
	s, ledger := newService()

	for range booking.MaxActivePerUser {
		create(t, s, admin, "p1")
	}

	_, err := s.Create(context.Background(), admin, "p1", booking.CreateRequest{Date: "2030-01-01T10:00:00Z"})
	assert.ErrorIs(t, err, booking.ErrQuotaExceeded)
	assert.Len(t, ledger.bookings, booking.MaxActivePerUser)
}

func TestCreate_ConcurrentAttemptsNeverExceedQuota(t *testing.T) {
	s, ledger := newService()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Create(context.Background(), alice, "p1", booking.CreateRequest{Date: "2025-03-10T09:00:00Z"})
		}()
	}
	wg.Wait()

	assert.Len(t, ledger.bookings, booking.MaxActivePerUser)
}

func TestCreate_Rejections(t *testing.T) {
	s, _ := newService()

	_, err := s.Create(context.Background(), alice, "p404", booking.CreateRequest{Date: "2025-03-10T09:00:00Z"})
	assert.ErrorIs(t, err, provider.ErrNotFound)

	_, err = s.Create(context.Background(), alice, "p1", booking.CreateRequest{Date: "tomorrow"})
	assert.ErrorIs(t, err, booking.ErrInvalidDate)
}

func TestList_ScopesNonAdminsToOwnBookings(t *testing.T) {
	s, ledger := newService()
	create(t, s, alice, "p1")
	create(t, s, bob, "p1")
	create(t, s, bob, "p2")

	got, total, err := s.List(context.Background(), alice, nil, Page{Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "alice", got[0].UserID)
	require.NotNil(t, ledger.lastList.UserID)
	assert.Equal(t, "alice", *ledger.lastList.UserID)

	_, total, err = s.List(context.Background(), admin, nil, Page{Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Nil(t, ledger.lastList.UserID)

	p2 := "p2"
	_, total, err = s.List(context.Background(), admin, &p2, Page{Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	missing := "p404"
	_, _, err = s.List(context.Background(), bob, &missing, Page{Limit: 25})
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestOwnership(t *testing.T) {
	s, _ := newService()
	b := create(t, s, alice, "p1")
	ctx := context.Background()
	newDate := "2025-04-01T10:00:00Z"

	tests := []struct {
		name    string
		actor   user.Actor
		wantErr error
	}{
		{name: "owner", actor: alice},
		{name: "admin", actor: admin},
		{name: "stranger", actor: bob, wantErr: booking.ErrForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Get(ctx, tc.actor, b.ID)
			assert.ErrorIs(t, err, tc.wantErr)

			_, err = s.Update(ctx, tc.actor, b.ID, booking.UpdateRequest{Date: &newDate})
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	err := s.Delete(ctx, bob, b.ID)
	assert.ErrorIs(t, err, booking.ErrForbidden)

	require.NoError(t, s.Delete(ctx, alice, b.ID))
	_, err = s.Get(ctx, alice, b.ID)
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestUpdate_Validation(t *testing.T) {
	s, _ := newService()
	b := create(t, s, alice, "p1")
	ctx := context.Background()

	_, err := s.Update(ctx, alice, b.ID, booking.UpdateRequest{})
	assert.ErrorIs(t, err, booking.ErrEmptyUpdate)

	bad := "next week"
	_, err = s.Update(ctx, alice, b.ID, booking.UpdateRequest{Date: &bad})
	assert.ErrorIs(t, err, booking.ErrInvalidDate)

	missing := "p404"
	_, err = s.Update(ctx, alice, b.ID, booking.UpdateRequest{ProviderID: &missing})
	assert.ErrorIs(t, err, provider.ErrNotFound)

	p2 := "p2"
	got, err := s.Update(ctx, alice, b.ID, booking.UpdateRequest{ProviderID: &p2})
	require.NoError(t, err)
	assert.Equal(t, "p2", got.ProviderID)

	_, err = s.Update(ctx, alice, "nope", booking.UpdateRequest{ProviderID: &p2})
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestDelete_FreesQuota(t *testing.T) {
	s, _ := newService()
	var last booking.Booking
	for range booking.MaxActivePerUser {
		last = create(t, s, alice, "p1")
	}

	require.NoError(t, s.Delete(context.Background(), alice, last.ID))

	b := create(t, s, alice, "p2")
	assert.Equal(t, "p2", b.ProviderID, fmt.Sprintf("booking %s", b.ID))
}
