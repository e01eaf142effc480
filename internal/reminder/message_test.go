package reminder

import (
	"testing"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func dueBooking(id string, date time.Time, email string) booking.DueBooking {
	return booking.DueBooking{
		ID:              id,
		Date:            date,
		UserID:          "u-" + id,
		UserName:        ptr("Ann"),
		UserEmail:       ptr(email),
		ProviderID:      "p1",
		ProviderName:    ptr("Hertz"),
		ProviderAddress: ptr("1 Main St"),
		ProviderTel:     ptr("0812345678"),
	}
}

func TestRender(t *testing.T) {
	d := dueBooking("b1", time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC), "ann@example.com")

	msg, err := Render(d, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", msg.To)
	assert.Equal(t, "Reminder: Your rental car booking is tomorrow - Monday, March 10, 2025", msg.Subject)
	assert.Contains(t, msg.HTML, "<strong>Date:</strong> Monday, March 10, 2025")
	assert.Contains(t, msg.HTML, "<strong>Time:</strong> 09:30 AM")
	assert.Contains(t, msg.HTML, "<strong>Provider:</strong> Hertz")
	assert.Contains(t, msg.HTML, "<strong>Address:</strong> 1 Main St")
	assert.Contains(t, msg.HTML, "<strong>Telephone:</strong> 0812345678")
}

func TestRender_FormatsInLocation(t *testing.T) {
	ict := time.FixedZone("ICT", 7*60*60)
	d := dueBooking("b1", time.Date(2025, 3, 10, 18, 15, 0, 0, time.UTC), "ann@example.com")

	msg, err := Render(d, ict)
	require.NoError(t, err)

	assert.Contains(t, msg.Subject, "Tuesday, March 11, 2025")
	assert.Contains(t, msg.HTML, "01:15 AM")
}

func TestRender_EscapesHTML(t *testing.T) {
	d := dueBooking("b1", time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC), "ann@example.com")
	d.ProviderName = ptr("<b>A&B</b>")

	msg, err := Render(d, time.UTC)
	require.NoError(t, err)

	assert.Contains(t, msg.HTML, "&lt;b&gt;A&amp;B&lt;/b&gt;")
}

func TestRender_Unresolved(t *testing.T) {
	d := dueBooking("b1", time.Now(), "ann@example.com")
	d.UserEmail = nil

	_, err := Render(d, time.UTC)
	assert.ErrorIs(t, err, errUnresolved)
}
