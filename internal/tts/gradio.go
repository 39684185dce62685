package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const maxAudioBytes = 32 << 20

// GradioConfig names one Gradio space and the endpoint to call on it.
type GradioConfig struct {
	Name    string
	BaseURL string
	API     string // endpoint name without the leading slash

	// Extended spaces take [language, repo_id, text, sid, speed]; plain
	// ones take [text].
	Extended bool
	Language string
	Voice    string
	Speaker  string
	Speed    float64
}

type GradioBackend struct {
	cfg  GradioConfig
	http *http.Client
}

func NewGradioBackend(cfg GradioConfig, hc *http.Client) *GradioBackend {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.API == "" {
		cfg.API = "predict"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Name == "" {
		cfg.Name = cfg.BaseURL
	}
	return &GradioBackend{cfg: cfg, http: hc}
}

// NewHTTPClient returns a client for calling Hugging Face spaces. A non-empty
// token is sent as a bearer token on every request.
func NewHTTPClient(token string, timeout time.Duration) *http.Client {
	base := &http.Client{Timeout: timeout}
	if token == "" {
		return base
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	hc.Timeout = timeout
	return hc
}

func (b *GradioBackend) Name() string { return b.cfg.Name }

func (b *GradioBackend) Synthesize(ctx context.Context, text string) (Audio, error) {
	body, err := json.Marshal(map[string]any{"data": b.inputs(text)})
	if err != nil {
		return Audio{}, err
	}
	endpoint := b.cfg.BaseURL + "/run/" + strings.TrimPrefix(b.cfg.API, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Audio{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return Audio{}, err
	}
	defer resp.Body.Close()
	if err := statusErr("predict", resp); err != nil {
		return Audio{}, err
	}

	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Audio{}, fmt.Errorf("decode predict response: %w", err)
	}
	if len(out.Data) == 0 {
		return Audio{}, errors.New("predict response has no outputs")
	}
	ref, err := parseFileRef(out.Data[0])
	if err != nil {
		return Audio{}, err
	}
	return b.fetch(ctx, ref)
}

func (b *GradioBackend) inputs(text string) []any {
	if !b.cfg.Extended {
		return []any{text}
	}
	return []any{b.cfg.Language, b.cfg.Voice, text, b.cfg.Speaker, b.cfg.Speed}
}

// parseFileRef accepts the shapes Gradio uses for file outputs: a bare path
// string, or an object carrying url, path or name.
func parseFileRef(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", errors.New("predict returned an empty file reference")
		}
		return s, nil
	}
	var obj struct {
		URL  string `json:"url"`
		Path string `json:"path"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("unexpected predict output: %s", string(raw))
	}
	for _, v := range []string{obj.URL, obj.Path, obj.Name} {
		if v != "" {
			return v, nil
		}
	}
	return "", errors.New("predict output carries no file reference")
}

func (b *GradioBackend) fetch(ctx context.Context, ref string) (Audio, error) {
	fileURL := ref
	if u, err := url.Parse(ref); err != nil || u.Scheme == "" {
		fileURL = b.cfg.BaseURL + "/file=" + ref
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return Audio{}, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return Audio{}, err
	}
	defer resp.Body.Close()
	if err := statusErr("fetch audio", resp); err != nil {
		return Audio{}, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return Audio{}, err
	}
	return Audio{Data: data, Format: formatOf(ref)}, nil
}

func formatOf(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		ref = u.Path
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(ref)), ".")
	if ext == "" {
		return "wav"
	}
	return ext
}

func statusErr(op string, resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode/100 == 2 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return fmt.Errorf("%s: %s: %s", op, resp.Status, strings.TrimSpace(string(b)))
}
