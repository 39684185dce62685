package tts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	name  string
	calls *[]string
	err   error
	audio Audio
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Synthesize(context.Context, string) (Audio, error) {
	*f.calls = append(*f.calls, f.name)
	return f.audio, f.err
}

func newTestGateway(backends []Backend, sleeps *[]time.Duration, opts ...Option) *Gateway {
	g := NewGateway(backends, zap.NewNop(), opts...)
	g.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return g
}

func TestGateway_RotatesOnRateLimitThenGivesUp(t *testing.T) {
	var calls []string
	var sleeps []time.Duration
	g := newTestGateway([]Backend{
		&fakeBackend{name: "fast", calls: &calls, err: ErrRateLimited},
		&fakeBackend{name: "plain", calls: &calls, err: ErrRateLimited},
		&fakeBackend{name: "transformers", calls: &calls, err: ErrRateLimited},
	}, &sleeps)

	a, err := g.Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, a.Empty())
	assert.Equal(t, []string{"fast", "plain", "transformers"}, calls)
	assert.Equal(t, []time.Duration{DefaultDelay, DefaultDelay}, sleeps)
}

func TestGateway_RotationWrapsAround(t *testing.T) {
	var calls []string
	var sleeps []time.Duration
	g := newTestGateway([]Backend{
		&fakeBackend{name: "a", calls: &calls, err: ErrRateLimited},
		&fakeBackend{name: "b", calls: &calls, err: ErrRateLimited},
	}, &sleeps, WithRetries(5), WithDelay(time.Millisecond))

	_, err := g.Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a", "b", "a"}, calls)
	assert.Len(t, sleeps, 4)
}

func TestGateway_SucceedsAfterRotation(t *testing.T) {
	var calls []string
	var sleeps []time.Duration
	g := newTestGateway([]Backend{
		&fakeBackend{name: "fast", calls: &calls, err: ErrRateLimited},
		&fakeBackend{name: "plain", calls: &calls, audio: Audio{Data: []byte("RIFF"), Format: "wav"}},
	}, &sleeps)

	a, err := g.Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(a.Data))
	assert.Equal(t, []string{"fast", "plain"}, calls)
}

func TestGateway_OtherErrorsStopImmediately(t *testing.T) {
	var calls []string
	var sleeps []time.Duration
	boom := errors.New("500 Internal Server Error")
	g := newTestGateway([]Backend{
		&fakeBackend{name: "fast", calls: &calls, err: boom},
		&fakeBackend{name: "plain", calls: &calls},
	}, &sleeps)

	_, err := g.Synthesize(context.Background(), "hello")
	require.Error(t, err)
	var se *SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "fast", se.Backend)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"fast"}, calls)
	assert.Empty(t, sleeps)
}

func TestGateway_NoBackends(t *testing.T) {
	_, err := NewGateway(nil, nil).Synthesize(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoBackends)
}

func TestGateway_CancelledWhileWaiting(t *testing.T) {
	var calls []string
	g := NewGateway([]Backend{
		&fakeBackend{name: "a", calls: &calls, err: ErrRateLimited},
	}, nil, WithDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Synthesize(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, calls)
}
