package tts

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultRetries = 3
	DefaultDelay   = 5 * time.Second
)

type Option func(*Gateway)

func WithRetries(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.retries = n
		}
	}
}

func WithDelay(d time.Duration) Option {
	return func(g *Gateway) {
		if d >= 0 {
			g.delay = d
		}
	}
}

// Gateway tries backends in order, moving to the next one whenever the
// current one is rate limited.
type Gateway struct {
	backends []Backend
	retries  int
	delay    time.Duration
	log      *zap.Logger
	sleep    func(context.Context, time.Duration) error
}

func NewGateway(backends []Backend, log *zap.Logger, opts ...Option) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gateway{
		backends: backends,
		retries:  DefaultRetries,
		delay:    DefaultDelay,
		log:      log,
		sleep:    sleepCtx,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Synthesize makes up to retries attempts starting at the first backend.
// A rate-limited attempt rotates to the next backend after the delay;
// any other failure is returned at once as a *SynthesisError. Running out
// of attempts yields empty audio and a nil error.
func (g *Gateway) Synthesize(ctx context.Context, text string) (Audio, error) {
	if len(g.backends) == 0 {
		return Audio{}, ErrNoBackends
	}
	i := 0
	for attempt := 1; attempt <= g.retries; attempt++ {
		b := g.backends[i]
		a, err := b.Synthesize(ctx, text)
		if err == nil {
			g.log.Debug("speech synthesized", zap.String("backend", b.Name()), zap.Int("attempt", attempt), zap.Int("bytes", len(a.Data)))
			return a, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return Audio{}, &SynthesisError{Backend: b.Name(), Err: err}
		}
		i = (i + 1) % len(g.backends)
		g.log.Warn("tts rate limited, rotating",
			zap.String("backend", b.Name()),
			zap.Int("attempt", attempt),
			zap.String("next", g.backends[i].Name()),
			zap.Duration("delay", g.delay),
		)
		if attempt == g.retries {
			break
		}
		if err := g.sleep(ctx, g.delay); err != nil {
			return Audio{}, err
		}
	}
	g.log.Warn("tts retries exhausted", zap.Int("retries", g.retries))
	return Audio{}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
