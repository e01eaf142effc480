package account

import (
	"bytes"
	"html/template"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/notifications"
)

var resetTmpl = template.Must(template.New("reset").Parse(`<p>Hello {{.Name}},</p>
<p>You are receiving this email because you (or someone else) requested a password reset.</p>
<p>Send a PUT request with your new password to:</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
<p>This link expires at {{.Expires}}.</p>`))

func resetMessage(u user.User, url string, expiresAt time.Time) (notifications.Message, error) {
	var buf bytes.Buffer
	err := resetTmpl.Execute(&buf, map[string]string{
		"Name":    u.Name,
		"URL":     url,
		"Expires": expiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return notifications.Message{}, err
	}

	return notifications.Message{
		To:      u.Email,
		ToName:  u.Name,
		Subject: "Password reset token",
		HTML:    buf.String(),
	}, nil
}
