package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/mmynk/splitledger/internal/models"
)

type recorded struct {
	userID, title, body string
	data                map[string]string
}

type recorder struct {
	mu   sync.Mutex
	sent []recorded
	err  error
}

func (r *recorder) SendPushNotification(_ context.Context, userID, title, body string, data map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, recorded{userID, title, body, data})
	return r.err
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &recorder{err: boom}
	b := &recorder{}

	err := Multi{a, b}.SendPushNotification(context.Background(), "u1", "t", "b", nil)
	require.ErrorIs(t, err, boom)
	assert.Len(t, a.sent, 1)
	assert.Len(t, b.sent, 1)
}

func TestAsync_SwallowsFailures(t *testing.T) {
	r := &recorder{err: errors.New("smtp down")}
	async := NewAsync(r, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	err := async.SendPushNotification(ctx, "u1", "Invite", "join us", map[string]string{"type": TypeGroupInvite})
	cancel()
	require.NoError(t, err)

	async.Wait()
	require.Len(t, r.sent, 1)
	assert.Equal(t, TypeGroupInvite, r.sent[0].data["type"])
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(nil)
	assert.NoError(t, n.SendPushNotification(context.Background(), "u1", "t", "b", nil))
}

type stubUsers map[string]*models.User

func (s stubUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return s[id], nil
}

func TestMailNotifier(t *testing.T) {
	users := stubUsers{"u1": {ID: "u1", Email: "alice@example.com", DisplayName: "Alice"}}
	n := NewMailNotifier(MailConfig{Host: "localhost", Port: 25, From: "ledger@example.com"}, users)

	var got *gomail.Message
	n.send = func(m *gomail.Message) error {
		got = m
		return nil
	}

	err := n.SendPushNotification(context.Background(), "u1", "You were added", "Bob added you to Flat",
		map[string]string{"type": TypeGroupInvite})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"You were added"}, got.GetHeader("Subject"))
	assert.Equal(t, []string{TypeGroupInvite}, got.GetHeader("X-Splitledger-Type"))
	require.Len(t, got.GetHeader("To"), 1)
	assert.Contains(t, got.GetHeader("To")[0], "alice@example.com")

	err = n.SendPushNotification(context.Background(), "missing", "t", "b", nil)
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	inr, err := ParseCurrency("")
	require.NoError(t, err)
	assert.Equal(t, "INR 1250.50", FormatAmount(inr, decimal.RequireFromString("1250.5")))

	jpy, err := ParseCurrency("JPY")
	require.NoError(t, err)
	assert.Equal(t, "JPY 300", FormatAmount(jpy, decimal.NewFromInt(300)))

	_, err = ParseCurrency("NOPE")
	assert.Error(t, err)
}
