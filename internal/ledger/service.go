// Package ledger implements the shared-group expense ledger: group membership,
// expense splitting, running member balances and settlements.
//
// Every mutating operation runs as a single storage transaction. Balances are
// read-modify-written under row locks taken inside that transaction, so
// concurrent expenses and settlements on the same group serialise per member.
// Notifications are sent only after commit and never affect the outcome.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
)

// Service is the ledger's entry point.
type Service struct {
	store    storage.Store
	notifier notify.Notifier
	logger   *slog.Logger
	currency currency.Unit
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the notification channel. Defaults to a LogNotifier.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCurrency sets the display currency used in notifications. Defaults to INR.
func WithCurrency(unit currency.Unit) Option {
	return func(s *Service) { s.currency = unit }
}

// New creates a ledger over store.
func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   slog.Default(),
		currency: currency.MustParseISO("INR"),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger)
	}
	return s
}

// fail classifies err, counts it and logs it.
func (s *Service) fail(op string, err error, notFound *Error, attrs ...any) error {
	err = classify(err, notFound)
	kind := KindOf(err)
	metrics.OperationErrors.WithLabelValues(op, string(kind)).Inc()

	attrs = append(attrs, "code", CodeOf(err), "error", err)
	if kind == KindPersistence {
		s.logger.Error(op+" failed", attrs...)
	} else {
		s.logger.Warn(op+" failed", attrs...)
	}
	return err
}

// notify sends a notification and logs delivery failures.
func (s *Service) notify(ctx context.Context, userID, title, body string, data map[string]string) {
	if err := s.notifier.SendPushNotification(ctx, userID, title, body, data); err != nil {
		s.logger.Warn("Notification failed", "user_id", userID, "type", data["type"], "error", err)
	}
}
