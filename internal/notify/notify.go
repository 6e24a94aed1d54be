// Package notify delivers user-facing notifications for ledger events.
// Delivery is best effort: the ledger logs failures and never waits on them
// for correctness.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Notification types carried in the data payload under the "type" key.
const (
	TypeGroupInvite  = "GROUP_INVITE"
	TypeExpenseAdded = "EXPENSE_ADDED"
	TypeSplitPaid    = "SPLIT_PAID"
)

// Notifier sends a notification to a user account.
type Notifier interface {
	SendPushNotification(ctx context.Context, userID, title, body string, data map[string]string) error
}

// LogNotifier writes notifications to the structured log. It is the default
// notifier when no delivery channel is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendPushNotification logs the notification.
func (n *LogNotifier) SendPushNotification(ctx context.Context, userID, title, body string, data map[string]string) error {
	n.logger.InfoContext(ctx, "Notification",
		"user_id", userID,
		"title", title,
		"body", body,
		"type", data["type"],
	)
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

// SendPushNotification delivers to every notifier, even after a failure.
func (m Multi) SendPushNotification(ctx context.Context, userID, title, body string, data map[string]string) error {
	var errs []error
	for _, n := range m {
		if err := n.SendPushNotification(ctx, userID, title, body, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async delivers notifications on background goroutines. Each delivery gets
// its own timeout and is detached from the caller's cancellation.
type Async struct {
	next    Notifier
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewAsync wraps next. A non-positive timeout defaults to ten seconds.
func NewAsync(next Notifier, timeout time.Duration, logger *slog.Logger) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Async{next: next, timeout: timeout, logger: logger}
}

// SendPushNotification schedules delivery and returns immediately.
func (a *Async) SendPushNotification(ctx context.Context, userID, title, body string, data map[string]string) error {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		if err := a.next.SendPushNotification(ctx, userID, title, body, data); err != nil {
			a.logger.Warn("Notification delivery failed",
				"user_id", userID,
				"type", data["type"],
				"error", err,
			)
		}
	}()
	return nil
}

// Wait blocks until every scheduled delivery has finished.
func (a *Async) Wait() {
	a.wg.Wait()
}
