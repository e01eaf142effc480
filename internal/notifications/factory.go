package notifications

import (
	"log/slog"
	"time"
)

type GatewayConfig struct {
	SMTP    SMTPConfig
	Timeout time.Duration

	// OnStateChange receives breaker transitions, e.g. to export a gauge.
	OnStateChange func(State)
}

// NewGateway returns the notifier used by both processes: SMTP when a host is
// configured, otherwise a LogNotifier. Either way it is wrapped in a
// ProtectedNotifier.
func NewGateway(cfg GatewayConfig, log *slog.Logger) Notifier {
	if log == nil {
		log = slog.Default()
	}

	var inner Notifier
	if cfg.SMTP.Host != "" {
		inner = NewSMTPNotifier(cfg.SMTP)
	} else {
		log.Warn("SMTP_HOST not set; notifications are logged only")
		inner = NewLogNotifier(log)
	}

	return NewProtectedNotifier(inner, ProtectedNotifierConfig{
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
	})
}
