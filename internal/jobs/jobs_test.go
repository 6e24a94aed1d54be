package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/ledger"
)

type fakeReconciler struct {
	calls  atomic.Int32
	repair atomic.Bool
	err    error
}

func (f *fakeReconciler) ReconcileAll(_ context.Context, repair bool) ([]*ledger.ReconcileReport, error) {
	f.calls.Add(1)
	f.repair.Store(repair)
	return []*ledger.ReconcileReport{{GroupID: "g1"}}, f.err
}

func TestNewScheduler(t *testing.T) {
	f := &fakeReconciler{}

	s, err := NewScheduler(f, "@every 1h", true)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())

	s, err = NewScheduler(f, "", false)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Entries())

	_, err = NewScheduler(f, "not a schedule", false)
	assert.Error(t, err)
}

func TestRunReconcile(t *testing.T) {
	f := &fakeReconciler{err: errors.New("group g2: boom")}
	s, err := NewScheduler(f, "", true)
	require.NoError(t, err)

	s.RunReconcile()
	assert.Equal(t, int32(1), f.calls.Load())
	assert.True(t, f.repair.Load())

	s.Start()
	s.Stop()
}
