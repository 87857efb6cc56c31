package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func fastConfig() Config {
	return Config{MaxAttempts: 3, Delay: time.Millisecond, Fixed: true}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func() error {
		attempts++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, attempts)
}

func TestDoIf_NonRetryableSurfacesImmediately(t *testing.T) {
	attempts := 0
	err := DoIf(context.Background(), fastConfig(),
		func(err error) bool { return errors.Is(err, errTransient) },
		func() error {
			attempts++
			return errPermanent
		})
	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, attempts)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	got, err := DoWithResult(context.Background(), fastConfig(),
		func(error) bool { return true },
		func() (int, error) {
			attempts++
			if attempts < 2 {
				return 0, errTransient
			}
			return 42, nil
		})
	assert.NoError(t, err)
	assert.Equal(t, 42, got)
}
