package exam

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// QuestionSource lists and loads question sets.
type QuestionSource interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, set string) ([]Question, error)
}

// Narrator turns text into a playable audio URL. An empty URL means no
// audio; narration is best-effort and never fails the caller.
type Narrator interface {
	Narrate(ctx context.Context, text string) string
}

// ReportArchive keeps finished reports beyond the session's lifetime.
type ReportArchive interface {
	Save(ctx context.Context, r Report) error
	Get(ctx context.Context, sessionID string) (Report, error)
}

// EventSink records session lifecycle events.
type EventSink interface {
	Append(ctx context.Context, typ, key string, data any) error
}

const (
	EventSessionStarted   = "SessionStarted"
	EventSessionFinished  = "SessionFinished"
	EventSessionAbandoned = "SessionAbandoned"
)

// Step is a view plus the narration URL for it, if any.
type Step struct {
	SessionID string `json:"session_id"`
	View
	Audio string `json:"audio,omitempty"`
}

// Answered is the outcome of Service.Answer.
type Answered struct {
	Feedback
	Audio string `json:"audio,omitempty"`
}

type StartRequest struct {
	Set        string `json:"set"`
	Mode       string `json:"mode"`
	Limit      int    `json:"limit"`
	StartIndex int    `json:"start_index"`
	Audio      bool   `json:"audio"`
}

type ServiceOption func(*Service)

func WithNarrator(n Narrator) ServiceOption    { return func(s *Service) { s.narrator = n } }
func WithArchive(a ReportArchive) ServiceOption { return func(s *Service) { s.archive = a } }
func WithEvents(e EventSink) ServiceOption      { return func(s *Service) { s.events = e } }
func WithClock(c Clock) ServiceOption           { return func(s *Service) { s.now = c } }

type Service struct {
	sets     QuestionSource
	sessions *Registry
	narrator Narrator
	archive  ReportArchive
	events   EventSink
	log      *zap.Logger
	now      Clock
}

func NewService(sets QuestionSource, sessions *Registry, log *zap.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{sets: sets, sessions: sessions, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Sets(ctx context.Context) ([]string, error) {
	return s.sets.List(ctx)
}

func (s *Service) Start(ctx context.Context, req StartRequest) (Step, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return Step{}, err
	}
	qs, err := s.sets.Load(ctx, req.Set)
	if err != nil {
		return Step{}, fmt.Errorf("load %q: %w", req.Set, err)
	}
	sess, err := Start(NewID(), req.Set, qs, Options{
		Mode:       mode,
		Limit:      req.Limit,
		StartIndex: req.StartIndex,
		Audio:      req.Audio,
	}, s.now)
	if err != nil {
		return Step{}, err
	}
	s.sessions.Put(sess)
	s.log.Info("session started",
		zap.String("session_id", sess.ID()),
		zap.String("set", req.Set),
		zap.String("mode", string(mode)),
		zap.Int("limit", sess.Limit()),
		zap.Int("questions", len(qs)),
	)
	s.emit(ctx, EventSessionStarted, sess.ID(), map[string]any{
		"set": req.Set, "mode": mode, "limit": sess.Limit(),
	})
	return s.step(ctx, sess, sess.Current()), nil
}

func (s *Service) Current(ctx context.Context, id string) (Step, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Step{}, err
	}
	return s.step(ctx, sess, sess.Current()), nil
}

func (s *Service) Answer(ctx context.Context, id, choice string) (Answered, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Answered{}, err
	}
	fb, err := sess.Answer(choice)
	if err != nil {
		return Answered{}, err
	}
	out := Answered{Feedback: fb}
	if sess.Narrated() {
		out.Audio = s.narrate(ctx, fb.Message)
	}
	return out, nil
}

func (s *Service) Next(ctx context.Context, id string) (Step, error) {
	return s.navigate(ctx, id, (*Session).Next)
}

func (s *Service) Previous(ctx context.Context, id string) (Step, error) {
	return s.navigate(ctx, id, (*Session).Previous)
}

func (s *Service) navigate(ctx context.Context, id string, move func(*Session) (View, error)) (Step, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Step{}, err
	}
	v, err := move(sess)
	if err != nil {
		return Step{}, err
	}
	return s.step(ctx, sess, v), nil
}

func (s *Service) Explanation(_ context.Context, id string) (string, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return "", err
	}
	return sess.Explanation(), nil
}

func (s *Service) Elapsed(_ context.Context, id string) (time.Duration, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return 0, err
	}
	return sess.Elapsed(), nil
}

// Finish freezes the report and archives it. Archive or event-log failures
// are logged only; the caller always gets the report.
func (s *Service) Finish(ctx context.Context, id string) (Report, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Report{}, err
	}
	r, transitioned, err := sess.finish()
	if err != nil {
		return Report{}, err
	}
	if !transitioned {
		return r, nil
	}
	s.log.Info("session finished",
		zap.String("session_id", id),
		zap.Int("correct", r.CorrectCount),
		zap.Int("total", r.Total),
		zap.Float64("score", r.Score),
		zap.Duration("elapsed", r.Elapsed),
	)
	if s.archive != nil {
		if err := s.archive.Save(ctx, r); err != nil {
			s.log.Error("archive report", zap.String("session_id", id), zap.Error(err))
		}
	}
	s.emit(ctx, EventSessionFinished, id, map[string]any{
		"set": r.Set, "score": r.Score, "correct": r.CorrectCount, "total": r.Total,
	})
	return r, nil
}

// Report returns a finished session's report, falling back to the archive
// once the session itself has been dropped.
func (s *Service) Report(ctx context.Context, id string) (Report, error) {
	if sess, err := s.sessions.Get(id); err == nil {
		if sess.State() != StateFinished {
			return Report{}, ErrNotFinished
		}
		return sess.Finish()
	}
	if s.archive == nil {
		return Report{}, ErrSessionNotFound
	}
	return s.archive.Get(ctx, id)
}

// Abandon drops the session; it is the "return to home" action.
func (s *Service) Abandon(ctx context.Context, id string) error {
	if !s.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	s.emit(ctx, EventSessionAbandoned, id, nil)
	return nil
}

// SweepIdle drops sessions idle for longer than idle.
func (s *Service) SweepIdle(idle time.Duration) int {
	dropped := s.sessions.Sweep(s.now(), idle)
	if len(dropped) > 0 {
		s.log.Info("idle sessions dropped", zap.Int("count", len(dropped)), zap.Duration("idle", idle))
	}
	return len(dropped)
}

func (s *Service) step(ctx context.Context, sess *Session, v View) Step {
	st := Step{SessionID: sess.ID(), View: v}
	if sess.Narrated() && len(v.Options) > 0 {
		q, _ := sess.CurrentQuestion()
		st.Audio = s.narrate(ctx, q.Question+" "+strings.Join(q.Options, " "))
	}
	return st
}

func (s *Service) narrate(ctx context.Context, text string) string {
	if s.narrator == nil {
		return ""
	}
	return s.narrator.Narrate(ctx, text)
}

func (s *Service) emit(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, typ, key, data); err != nil {
		s.log.Warn("event log append", zap.String("type", typ), zap.String("key", key), zap.Error(err))
	}
}
