// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/config"
)

func TestNewTelemetry_DisabledIsNoop(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), config.OtelConfig{Enabled: false}, config.AppConfig{})
	require.NoError(t, err)
	require.NoError(t, tel.Shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "account.approve")
	assert.Empty(t, TraceIDFromContext(ctx))
	EndSpan(span, errors.New("boom"))
}

func TestSampleRate(t *testing.T) {
	assert.InDelta(t, defaultSampleRate, sampleRate(0), 1e-9)
	assert.InDelta(t, defaultSampleRate, sampleRate(1.5), 1e-9)
	assert.InDelta(t, 0.25, sampleRate(0.25), 1e-9)
	assert.InDelta(t, 1.0, sampleRate(1), 1e-9)
}

func TestWithJitter(t *testing.T) {
	assert.Equal(t, time.Duration(0), withJitter(0))
	assert.Equal(t, 3*time.Nanosecond, withJitter(3*time.Nanosecond))

	base := 7 * time.Minute
	for range 20 {
		got := withJitter(base)
		assert.GreaterOrEqual(t, got, base)
		assert.Less(t, got, base+time.Minute)
	}
}
