package admission

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/observability"
)

type Ledger interface {
	CreateWithinQuota(ctx context.Context, b booking.Booking, quota int) (booking.Booking, error)
	GetByID(ctx context.Context, id string) (booking.Booking, error)
	List(ctx context.Context, f booking.ListFilter) ([]booking.Booking, int, error)
	Update(ctx context.Context, id string, p booking.Patch) (booking.Booking, error)
	Delete(ctx context.Context, id string) error
}

type Providers interface {
	GetByID(ctx context.Context, id string) (provider.Provider, error)
}

// Service admits, lists and mutates bookings on behalf of an authenticated
// actor. Non-admins only ever see or touch their own bookings.
type Service struct {
	ledger    Ledger
	providers Providers
	log       *slog.Logger
	prom      *observability.Prom
}

func NewService(ledger Ledger, providers Providers, log *slog.Logger, prom *observability.Prom) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{ledger: ledger, providers: providers, log: log, prom: prom}
}

type Page struct {
	Limit  int
	Offset int
}

// Create books providerID for the actor. Each user, administrators included,
// is limited to booking.MaxActivePerUser bookings; the count and insert happen
// atomically.
func (s *Service) Create(ctx context.Context, actor user.Actor, providerID string, req booking.CreateRequest) (booking.Booking, error) {
	date, err := booking.ParseDate(req.Date)
	if err != nil {
		return booking.Booking{}, err
	}

	p, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return booking.Booking{}, err
	}

	b, err := s.ledger.CreateWithinQuota(ctx, booking.New(actor.ID, p.ID, date), booking.MaxActivePerUser)
	if err != nil {
		if errors.Is(err, booking.ErrQuotaExceeded) {
			s.prom.IncQuotaRejection()
			s.log.InfoContext(ctx, "booking.quota_exceeded", "user_id", actor.ID)
		}
		return booking.Booking{}, err
	}

	summary := p.Summary()
	b.Provider = &summary

	s.prom.IncBookingCreated()
	s.log.InfoContext(ctx, "booking.created", "booking_id", b.ID, "user_id", actor.ID, "provider_id", p.ID)
	return b, nil
}

// List returns every booking for admins and only the actor's own otherwise,
// optionally narrowed to one provider.
func (s *Service) List(ctx context.Context, actor user.Actor, providerID *string, page Page) ([]booking.Booking, int, error) {
	f := booking.ListFilter{ProviderID: providerID, Limit: page.Limit, Offset: page.Offset}
	if !actor.IsAdmin() {
		f.UserID = &actor.ID
	}

	if providerID != nil {
		if _, err := s.providers.GetByID(ctx, *providerID); err != nil {
			return nil, 0, err
		}
	}

	return s.ledger.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, actor user.Actor, id string) (booking.Booking, error) {
	return s.authorized(ctx, actor, id)
}

func (s *Service) Update(ctx context.Context, actor user.Actor, id string, req booking.UpdateRequest) (booking.Booking, error) {
	if _, err := s.authorized(ctx, actor, id); err != nil {
		return booking.Booking{}, err
	}

	patch, err := s.validatePatch(ctx, req)
	if err != nil {
		return booking.Booking{}, err
	}

	b, err := s.ledger.Update(ctx, id, patch)
	if err != nil {
		return booking.Booking{}, err
	}

	s.log.InfoContext(ctx, "booking.updated", "booking_id", id, "actor_id", actor.ID)
	return b, nil
}

func (s *Service) Delete(ctx context.Context, actor user.Actor, id string) error {
	if _, err := s.authorized(ctx, actor, id); err != nil {
		return err
	}

	if err := s.ledger.Delete(ctx, id); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "booking.deleted", "booking_id", id, "actor_id", actor.ID)
	return nil
}

// authorized loads the booking and checks the actor owns it or is an admin.
func (s *Service) authorized(ctx context.Context, actor user.Actor, id string) (booking.Booking, error) {
	b, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return booking.Booking{}, err
	}
	if b.UserID != actor.ID && !actor.IsAdmin() {
		return booking.Booking{}, booking.ErrForbidden
	}
	return b, nil
}

func (s *Service) validatePatch(ctx context.Context, req booking.UpdateRequest) (booking.Patch, error) {
	if req.Date == nil && req.ProviderID == nil {
		return booking.Patch{}, booking.ErrEmptyUpdate
	}

	var patch booking.Patch
	if req.Date != nil {
		d, err := booking.ParseDate(*req.Date)
		if err != nil {
			return booking.Patch{}, err
		}
		patch.Date = &d
	}

	if req.ProviderID != nil {
		if _, err := s.providers.GetByID(ctx, *req.ProviderID); err != nil {
			return booking.Patch{}, err
		}
		patch.ProviderID = req.ProviderID
	}
	return patch, nil
}
