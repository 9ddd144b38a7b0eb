package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want any
	}{
		{"empty", Config{}, Noop{}},
		{"none", Config{Strategy: StrategyNone}, Noop{}},
		{"time", Config{Strategy: StrategyTime, MinDelay: time.Second}, &TimeBased{}},
		{"threshold", Config{Strategy: StrategyThreshold, MaxCallsPerSecond: 2}, &Threshold{}},
		{"window", Config{Strategy: StrategyWindow, MaxRequests: 3, Window: time.Minute}, &SlidingWindow{}},
		{"bucket", Config{Strategy: StrategyBucket, RPS: 1, Burst: 1}, &TokenBucket{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.want, g)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Strategy: "leaky"})
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	_, err = New(Config{Strategy: StrategyWindow})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Config{Strategy: StrategyRedis, MaxRequests: 1, Window: time.Second})
	assert.ErrorIs(t, err, ErrInvalidConfig, "redis без клиента")
}

func TestDynamic_Update(t *testing.T) {
	clock := newFakeClock()
	d, err := NewDynamic(Config{}, WithClock(clock.Now))
	require.NoError(t, err)

	dec, err := d.Check(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyNone, dec.Strategy)

	require.NoError(t, d.Update(Config{Strategy: StrategyWindow, MaxRequests: 1, Window: time.Minute}))
	assert.Equal(t, StrategyWindow, d.Config().Strategy)

	dec, _ = d.Check(context.Background(), nil)
	assert.False(t, dec.Limited)
	dec, _ = d.Check(context.Background(), nil)
	assert.True(t, dec.Limited)

	err = d.Update(Config{Strategy: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Equal(t, StrategyWindow, d.Config().Strategy, "при ошибке конфигурация не меняется")
}
