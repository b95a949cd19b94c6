package retry

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

func TestNewPolicyOverridesAndClamps(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, BackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	p = NewPolicy("bogus", 0, 0, -1)
	assert.Equal(t, DefaultPolicy(), p)
	require.NoError(t, p.Validate())
}

func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(BackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	linear := NewPolicy(BackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5)
	exp := NewPolicy(BackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5)

	cases := []struct {
		name    string
		p       Policy
		attempt int
		want    time.Duration
	}{
		{"fixed", fixed, 3, 100 * time.Millisecond},
		{"linear 1", linear, 1, 100 * time.Millisecond},
		{"linear 2", linear, 2, 200 * time.Millisecond},
		{"linear capped", linear, 3, 250 * time.Millisecond},
		{"exp 1", exp, 1, 50 * time.Millisecond},
		{"exp 2", exp, 2, 100 * time.Millisecond},
		{"exp capped", exp, 3, 160 * time.Millisecond},
		{"no retry", exp, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.p.Delay(tc.attempt))
		})
	}
}

func TestDoRetriesTransientFailures(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.NetworkError("connection reset").Build()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentFailure(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.ValidationError("bad subject").Build()
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return stdErrors.New("timeout")
	})
	require.EqualError(t, err, "timeout")
	assert.Equal(t, 3, calls)
}

func TestZeroPolicyAttemptsOnce(t *testing.T) {
	calls := 0
	_ = Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return stdErrors.New("down")
	})
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContext(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return stdErrors.New("down")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
