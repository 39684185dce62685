// Package tts narrates question text through hosted Gradio text-to-speech
// spaces. A Gateway rotates across backends when one is rate limited, and
// CachedNarrator keeps the resulting audio in the blob store.
package tts

import (
	"context"
	"errors"
	"fmt"
)

// ErrRateLimited is returned by a backend answering HTTP 429.
var ErrRateLimited = errors.New("tts: rate limited")

var ErrNoBackends = errors.New("tts: no backends configured")

// Audio is one synthesized clip. The zero value means "no audio".
type Audio struct {
	Data   []byte
	Format string // file extension without the dot, e.g. "wav"
}

func (a Audio) Empty() bool { return len(a.Data) == 0 }

type Backend interface {
	Name() string
	Synthesize(ctx context.Context, text string) (Audio, error)
}

// SynthesisError wraps a non rate-limit failure of a single backend.
type SynthesisError struct {
	Backend string
	Err     error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("tts: backend %s: %v", e.Backend, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
