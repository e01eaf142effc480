package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	calls  int
	sendFn func(ctx context.Context, msg Message) error
}

func (f *fakeNotifier) Send(ctx context.Context, msg Message) error {
	f.calls++
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return nil
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &fakeNotifier{sendFn: func(context.Context, Message) error { return errors.New("smtp 554") }}
	var states []State
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
		OnStateChange:    func(s State) { states = append(states, s) },
	})

	assert.Error(t, n.Send(context.Background(), Message{To: "a@example.com"}))
	assert.Equal(t, StateClosed, n.State())
	assert.Error(t, n.Send(context.Background(), Message{To: "a@example.com"}))
	assert.Equal(t, StateOpen, n.State())

	err := n.Send(context.Background(), Message{To: "a@example.com"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, []State{StateOpen}, states)
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	fail := true
	inner := &fakeNotifier{sendFn: func(context.Context, Message) error {
		if fail {
			return errors.New("down")
		}
		return nil
	}}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	require.Error(t, n.Send(context.Background(), Message{}))
	require.Equal(t, StateOpen, n.State())

	now = now.Add(30 * time.Second)
	assert.ErrorIs(t, n.Send(context.Background(), Message{}), ErrCircuitOpen)

	now = now.Add(31 * time.Second)
	fail = false
	assert.NoError(t, n.Send(context.Background(), Message{}))
	assert.Equal(t, StateClosed, n.State())
}

func TestProtectedNotifier_HalfOpenFailureReopens(t *testing.T) {
	inner := &fakeNotifier{sendFn: func(context.Context, Message) error { return errors.New("down") }}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	require.Error(t, n.Send(context.Background(), Message{}))

	now = now.Add(2 * time.Minute)
	require.Error(t, n.Send(context.Background(), Message{}))
	assert.Equal(t, StateOpen, n.State())
	assert.ErrorIs(t, n.Send(context.Background(), Message{}), ErrCircuitOpen)
}

func TestProtectedNotifier_Timeout(t *testing.T) {
	slow := NewLogNotifier(nil)
	slow.Delay = time.Second
	n := NewProtectedNotifier(slow, ProtectedNotifierConfig{Timeout: 20 * time.Millisecond})

	err := n.Send(context.Background(), Message{To: "a@example.com"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProtectedNotifier_LateSuccessIsNotAFailure(t *testing.T) {
	inner := &fakeNotifier{sendFn: func(context.Context, Message) error {
		time.Sleep(30 * time.Millisecond)
		return nil
	}}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{Timeout: 10 * time.Millisecond, FailureThreshold: 1})

	err := n.Send(context.Background(), Message{To: "a@example.com"})

	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, StateClosed, n.State())
}

func TestLogNotifier_SimulatedFailure(t *testing.T) {
	n := NewLogNotifier(nil)
	n.Fail = true

	assert.ErrorIs(t, n.Send(context.Background(), Message{}), ErrSendFailed)
}

func TestSMTPNotifier_BuildMessage(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "no-reply@example.com"})

	m := n.buildMessage(Message{To: "a@example.com", Subject: "Hello", HTML: "<p>hi</p>"})

	assert.Equal(t, []string{"no-reply@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"a@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Hello"}, m.GetHeader("Subject"))
}

func TestNewGateway_FallsBackToLogNotifier(t *testing.T) {
	var states []State
	n := NewGateway(GatewayConfig{
		Timeout:       time.Second,
		OnStateChange: func(s State) { states = append(states, s) },
	}, nil)

	p, ok := n.(*ProtectedNotifier)
	if !ok {
		t.Fatalf("expected *ProtectedNotifier, got %T", n)
	}
	if _, ok := p.inner.(*LogNotifier); !ok {
		t.Fatalf("expected log notifier inside, got %T", p.inner)
	}
	if err := n.Send(context.Background(), Message{To: "a@example.com", Subject: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(states) != 0 {
		t.Fatalf("unexpected state changes %v", states)
	}
}
