package http

import (
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/exam-simulator/internal/storage"
	"github.com/mind-engage/exam-simulator/internal/tts"
)

var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

// MountAudio serves cached narration clips.
func MountAudio(r chi.Router, bs storage.BlobStore) {
	// GET /audio/*   -> returns the blob at audio/<whatever follows /audio/>
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if name == "" || strings.Contains(name, "..") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		rc, err := bs.Get(tts.AudioPrefix + name)
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "blob read error", http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		ct, ok := audioTypes[path.Ext(name)]
		if !ok {
			ct = mime.TypeByExtension(path.Ext(name))
		}
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
		_, _ = io.Copy(w, rc)
	})
}
