package tts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/exam-simulator/internal/storage"
)

const (
	// AudioPrefix is the blob key prefix and URL path for cached narration.
	AudioPrefix = "audio/"
	// indexPrefix holds one small blob per clip naming its stored format.
	// It lives outside AudioPrefix so the audio route never serves it.
	indexPrefix = "audio-index/"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}

type NarratorOption func(*CachedNarrator)

// WithPublicURL makes Narrate return absolute URLs rooted at base.
func WithPublicURL(base string) NarratorOption {
	return func(n *CachedNarrator) { n.publicURL = strings.TrimRight(base, "/") }
}

// CachedNarrator serves narration from the blob store, synthesizing only
// on a miss. It returns "<public url>/audio/<sha256>.<ext>" URLs; without a
// public URL they are root-relative.
type CachedNarrator struct {
	synth     Synthesizer
	blobs     storage.BlobStore
	log       *zap.Logger
	publicURL string
}

func NewCachedNarrator(synth Synthesizer, blobs storage.BlobStore, log *zap.Logger, opts ...NarratorOption) *CachedNarrator {
	if log == nil {
		log = zap.NewNop()
	}
	n := &CachedNarrator{synth: synth, blobs: blobs, log: log}
	for _, o := range opts {
		o(n)
	}
	return n
}

func (n *CachedNarrator) Narrate(ctx context.Context, text string) string {
	if text == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:])

	if key, ok := n.lookup(hash); ok {
		return n.url(key)
	}

	a, err := n.synth.Synthesize(ctx, text)
	if err != nil {
		n.log.Warn("narration failed", zap.Error(err))
		return ""
	}
	if a.Empty() {
		return ""
	}
	if a.Format == "" {
		a.Format = "wav"
	}
	key, err := n.blobs.Put(AudioPrefix+hash+"."+a.Format, bytes.NewReader(a.Data))
	if err != nil {
		n.log.Error("audio cache store", zap.Error(err))
		return ""
	}
	if _, err := n.blobs.Put(indexPrefix+hash, strings.NewReader(a.Format)); err != nil {
		n.log.Warn("audio cache index", zap.String("key", key), zap.Error(err))
	}
	return n.url(key)
}

// lookup resolves a hash to its stored clip through the format index.
func (n *CachedNarrator) lookup(hash string) (string, bool) {
	rc, err := n.blobs.Get(indexPrefix + hash)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			n.log.Warn("audio cache lookup", zap.Error(err))
		}
		return "", false
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, 16))
	if err != nil {
		n.log.Warn("audio cache lookup", zap.Error(err))
		return "", false
	}
	format := strings.TrimSpace(string(b))
	if format == "" || strings.ContainsAny(format, `/\.`) {
		return "", false
	}
	key := AudioPrefix + hash + "." + format
	ok, err := n.blobs.Exists(key)
	if err != nil {
		n.log.Warn("audio cache lookup", zap.Error(err))
		return "", false
	}
	return key, ok
}

func (n *CachedNarrator) url(key string) string {
	return n.publicURL + "/" + key
}
