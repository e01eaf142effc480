package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/notifications"
	"github.com/geocoder89/rentalhub/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/geocoder89/rentalhub/internal/reminder")

var errUnresolved = errors.New("booking owner or provider no longer exists")

const markTimeout = 5 * time.Second

// Ledger is the booking storage the sweep reads from and marks.
type Ledger interface {
	ListDue(ctx context.Context, from, to time.Time) ([]booking.DueBooking, error)
	MarkReminderSent(ctx context.Context, id string) (bool, error)
}

type Config struct {
	Location    *time.Location
	Concurrency int
}

type Failure struct {
	BookingID string `json:"bookingId"`
	Stage     string `json:"stage"`
	Error     string `json:"error"`
}

type Result struct {
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	Found       int       `json:"found"`
	Sent        int       `json:"sent"`
	Failed      int       `json:"failed"`
	Count       int       `json:"count"`
	Success     bool      `json:"success"`
	Failures    []Failure `json:"failures,omitempty"`
}

type Service struct {
	ledger   Ledger
	notifier notifications.Notifier
	cfg      Config
	log      *slog.Logger
	now      func() time.Time

	prom  *observability.Prom
	stats *observability.SweepStats
}

func NewService(ledger Ledger, notifier notifications.Notifier, cfg Config, log *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		ledger:   ledger,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// WithMetrics attaches optional Prometheus collectors and in-process stats.
func (s *Service) WithMetrics(prom *observability.Prom, stats *observability.SweepStats) *Service {
	s.prom = prom
	s.stats = stats
	return s
}

// Sweep sends one reminder for every booking scheduled tomorrow that has not
// had one yet. A booking's flag is set right after its own send succeeds, so
// a failure partway through leaves the rest eligible for the next sweep.
// Per-booking failures are reported in the Result; only a failed selection
// returns an error.
func (s *Service) Sweep(ctx context.Context) (Result, error) {
	started := s.now()
	start, end := Window(started, s.cfg.Location)

	ctx, span := tracer.Start(ctx, "reminder.sweep", trace.WithAttributes(
		attribute.String("window.start", start.Format(time.RFC3339)),
		attribute.String("window.end", end.Format(time.RFC3339)),
	))
	defer span.End()

	res := Result{WindowStart: start, WindowEnd: end}

	due, err := s.ledger.ListDue(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select due bookings")
		s.log.ErrorContext(ctx, "reminder.sweep_failed", "err", err, "window_start", start, "window_end", end)
		s.observe(started, res, err)
		return res, fmt.Errorf("select due bookings: %w", err)
	}
	res.Found = len(due)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for _, d := range due {
		g.Go(func() error {
			f := s.dispatch(ctx, d)

			mu.Lock()
			defer mu.Unlock()
			if f != nil {
				res.Failed++
				res.Failures = append(res.Failures, *f)
				return nil
			}
			res.Sent++
			return nil
		})
	}
	_ = g.Wait()

	res.Count = res.Sent
	res.Success = true

	span.SetAttributes(
		attribute.Int("reminders.found", res.Found),
		attribute.Int("reminders.sent", res.Sent),
		attribute.Int("reminders.failed", res.Failed),
	)
	s.log.InfoContext(ctx, "reminder.sweep_done",
		"window_start", start,
		"window_end", end,
		"found", res.Found,
		"sent", res.Sent,
		"failed", res.Failed,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	s.observe(started, res, nil)
	return res, nil
}

func (s *Service) dispatch(ctx context.Context, d booking.DueBooking) *Failure {
	ctx, span := tracer.Start(ctx, "reminder.dispatch", trace.WithAttributes(
		attribute.String("booking.id", d.ID),
	))
	defer span.End()

	fail := func(stage string, err error) *Failure {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		s.log.WarnContext(ctx, "reminder.failed", "booking_id", d.ID, "stage", stage, "err", err)
		return &Failure{BookingID: d.ID, Stage: stage, Error: err.Error()}
	}

	if err := ctx.Err(); err != nil {
		return fail("canceled", err)
	}

	msg, err := Render(d, s.cfg.Location)
	if err != nil {
		if errors.Is(err, errUnresolved) {
			return fail("resolve", err)
		}
		return fail("render", err)
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		return fail("send", err)
	}

	// the email is out; persist the flag even if the sweep is being cancelled
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()

	flipped, err := s.ledger.MarkReminderSent(markCtx, d.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "reminder.mark_failed", "booking_id", d.ID, "err", err)
		return fail("mark", err)
	}
	if !flipped {
		s.log.WarnContext(ctx, "reminder.already_marked", "booking_id", d.ID)
	}

	s.log.InfoContext(ctx, "reminder.sent", "booking_id", d.ID, "user_id", d.UserID)
	return nil
}

func (s *Service) observe(started time.Time, res Result, err error) {
	d := time.Since(started)
	s.prom.ObserveSweep(d, res.Sent, res.Failed, err)
	if s.stats != nil {
		s.stats.Record(started, d, res.Sent, res.Failed, err)
	}
}
