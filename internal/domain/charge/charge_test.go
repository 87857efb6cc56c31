package charge_test

import (
	"testing"
	"time"

	"github.com/fredcarvalho/notafiscal/internal/domain/charge"
	"github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingCharge(t *testing.T) *charge.Charge {
	t.Helper()
	c, err := charge.New(uuid.New(), uuid.New().String(), 2500, time.Hour)
	require.NoError(t, err)
	return c
}

func TestNew_Valid(t *testing.T) {
	c := newPendingCharge(t)
	assert.Equal(t, charge.StatusPending, c.Status)
	assert.Equal(t, int64(2500), c.AmountCents)
	assert.False(t, c.LocalFallback)
	assert.True(t, c.ExpiresAt.After(time.Now()))
}

func TestNew_Invalid(t *testing.T) {
	_, err := charge.New(uuid.Nil, "cid", 2500, time.Hour)
	assert.Error(t, err)

	_, err = charge.New(uuid.New(), "", 2500, time.Hour)
	assert.Error(t, err)

	_, err = charge.New(uuid.New(), "cid", 0, time.Hour)
	assert.Error(t, err)
}

func TestActive(t *testing.T) {
	c := newPendingCharge(t)
	now := time.Now()

	assert.True(t, c.Active(now))
	assert.False(t, c.Active(c.ExpiresAt.Add(time.Second)))

	require.NoError(t, c.MarkPaid(now))
	assert.False(t, c.Active(now))
}

func TestMarkPaid(t *testing.T) {
	c := newPendingCharge(t)
	paidAt := time.Now()
	require.NoError(t, c.MarkPaid(paidAt))

	assert.Equal(t, charge.StatusPaid, c.Status)
	require.NotNil(t, c.PaidAt)
	assert.Equal(t, paidAt, *c.PaidAt)
}

func TestTerminalRejectsFurtherMoves(t *testing.T) {
	c := newPendingCharge(t)
	require.NoError(t, c.MarkExpired())

	assert.ErrorIs(t, c.MarkPaid(time.Now()), errors.ErrChargeTerminal)
	assert.ErrorIs(t, c.MarkCancelled(), errors.ErrChargeTerminal)
	assert.ErrorIs(t, c.MarkFailed(), errors.ErrChargeTerminal)
	// amount untouched through it all
	assert.Equal(t, int64(2500), c.AmountCents)
}
