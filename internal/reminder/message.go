package reminder

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/notifications"
)

const (
	dateLayout = "Monday, January 2, 2006"
	timeLayout = "03:04 PM"
)

var reminderTmpl = template.Must(template.New("reminder").Parse(`<h1>Rental Car Booking Reminder</h1>
<p>Hello {{.Name}},</p>
<p>This is a friendly reminder that you have a rental car booking tomorrow.</p>
<h2>Booking Details</h2>
<ul>
  <li><strong>Date:</strong> {{.Date}}</li>
  <li><strong>Time:</strong> {{.Time}}</li>
  <li><strong>Provider:</strong> {{.ProviderName}}</li>
  <li><strong>Address:</strong> {{.ProviderAddress}}</li>
  <li><strong>Telephone:</strong> {{.ProviderTel}}</li>
</ul>
<p>Please arrive on time. If you need to change or cancel your booking, please sign in to your account.</p>
<p>Thank you for choosing our service!</p>`))

type reminderView struct {
	Name            string
	Date            string
	Time            string
	ProviderName    string
	ProviderAddress string
	ProviderTel     string
}

func subject(date time.Time, loc *time.Location) string {
	return "Reminder: Your rental car booking is tomorrow - " + date.In(loc).Format(dateLayout)
}

// Render builds the reminder email for a resolved booking, formatting its
// date and time in loc.
func Render(d booking.DueBooking, loc *time.Location) (notifications.Message, error) {
	if !d.Resolved() {
		return notifications.Message{}, errUnresolved
	}
	if loc == nil {
		loc = time.UTC
	}

	local := d.Date.In(loc)
	view := reminderView{
		Name:            deref(d.UserName),
		Date:            local.Format(dateLayout),
		Time:            local.Format(timeLayout),
		ProviderName:    deref(d.ProviderName),
		ProviderAddress: deref(d.ProviderAddress),
		ProviderTel:     deref(d.ProviderTel),
	}

	var buf bytes.Buffer
	if err := reminderTmpl.Execute(&buf, view); err != nil {
		return notifications.Message{}, fmt.Errorf("render reminder: %w", err)
	}

	return notifications.Message{
		To:      *d.UserEmail,
		ToName:  view.Name,
		Subject: subject(d.Date, loc),
		HTML:    buf.String(),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
