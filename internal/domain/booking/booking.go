package booking

import (
	"errors"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/google/uuid"
)

// MaxActivePerUser is the number of bookings each user, administrators
// included, may hold at once.
const MaxActivePerUser = 3

type Booking struct {
	ID           string            `json:"id"`
	Date         time.Time         `json:"date"`
	UserID       string            `json:"userId"`
	ProviderID   string            `json:"providerId"`
	ReminderSent bool              `json:"reminderSent"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Provider     *provider.Summary `json:"provider,omitempty"`
}

var (
	ErrNotFound      = errors.New("booking not found")
	ErrForbidden     = errors.New("not authorized to access this booking")
	ErrQuotaExceeded = errors.New("booking quota exceeded")
	ErrInvalidDate   = errors.New("date must be an RFC3339 timestamp")
	ErrEmptyUpdate   = errors.New("nothing to update")
)

type CreateRequest struct {
	Date string `json:"date" binding:"required"`
}

type UpdateRequest struct {
	Date       *string `json:"date"`
	ProviderID *string `json:"providerId" binding:"omitempty,uuid"`
}

// Patch is a validated UpdateRequest.
type Patch struct {
	Date       *time.Time
	ProviderID *string
}

type ListFilter struct {
	UserID     *string
	ProviderID *string
	Limit      int
	Offset     int
}

// DueBooking is a booking selected for a reminder, joined with its owner and
// provider. Joined fields are nil when the referenced row no longer exists.
type DueBooking struct {
	ID              string
	Date            time.Time
	UserID          string
	UserName        *string
	UserEmail       *string
	ProviderID      string
	ProviderName    *string
	ProviderAddress *string
	ProviderTel     *string
}

// Resolved reports whether both the owner and the provider were found.
func (d DueBooking) Resolved() bool {
	return d.UserEmail != nil && *d.UserEmail != "" && d.ProviderName != nil
}

func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t.UTC(), nil
}

func New(userID, providerID string, date time.Time) Booking {
	now := time.Now().UTC()

	return Booking{
		ID:         uuid.NewString(),
		Date:       date,
		UserID:     userID,
		ProviderID: providerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
