package exam

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Clock is injected so tests can control elapsed time.
type Clock func() time.Time

// Session walks one question sequence. The zero value is NotStarted; use
// Start to obtain a running session.
type Session struct {
	mu sync.Mutex

	id        string
	set       string
	questions []Question
	index     int
	mode      Mode
	limit     int
	audio     bool
	state     State
	now       Clock

	startedAt  time.Time
	finishedAt time.Time
	lastUsed   time.Time
	report     *Report
}

// Start copies questions into a new in-progress session. User answers are
// cleared, the limit is derived from the mode and an out-of-range start
// index falls back to the first question.
func Start(id, set string, questions []Question, opts Options, now Clock) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	switch opts.Mode {
	case "":
		opts.Mode = ModeTraining
	case ModeTraining, ModeTimed:
	default:
		return nil, ErrInvalidMode
	}
	if now == nil {
		now = time.Now
	}

	qs := make([]Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		q.UserAnswer = nil
		qs[i] = q
	}

	limit := len(qs)
	if opts.Mode == ModeTimed && opts.Limit > 0 && opts.Limit < limit {
		limit = opts.Limit
	}
	start := opts.StartIndex
	if start < 0 || start >= limit {
		start = 0
	}

	t := now()
	return &Session{
		id:        id,
		set:       set,
		questions: qs,
		index:     start,
		mode:      opts.Mode,
		limit:     limit,
		audio:     opts.Audio,
		state:     StateInProgress,
		now:       now,
		startedAt: t,
		lastUsed:  t,
	}, nil
}

func (s *Session) ID() string  { return s.id }
func (s *Session) Set() string { return s.set }
func (s *Session) Mode() Mode  { return s.mode }
func (s *Session) Limit() int  { return s.limit }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == "" {
		return StateNotStarted
	}
	return s.state
}

func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Narrated reports whether questions and feedback should be spoken. Timed
// sessions are never narrated.
func (s *Session) Narrated() bool {
	return s.audio && s.mode == ModeTraining
}

// Current returns the view at the current index.
func (s *Session) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.view()
}

// CurrentQuestion returns a copy of the active record.
func (s *Session) CurrentQuestion() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 || s.index >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.index], true
}

// Answer records choice on the current question. An empty choice leaves
// the record untouched; any other choice that does not match the key is
// recorded and graded incorrect.
func (s *Session) Answer(choice string) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRunning(); err != nil {
		return Feedback{}, err
	}
	s.touch()
	if choice == "" {
		return Feedback{}, ErrNoSelection
	}
	q := &s.questions[s.index]
	c := choice
	q.UserAnswer = &c
	return feedbackFor(*q, choice), nil
}

func feedbackFor(q Question, choice string) Feedback {
	switch {
	case q.Correct == NoCorrectAnswer:
		return Feedback{Message: "Incorrect. No correct answer is recorded for this question."}
	case q.IsCorrect(choice):
		return Feedback{Correct: true, Message: fmt.Sprintf("Correct! The answer is: %s", q.Correct)}
	default:
		return Feedback{Message: fmt.Sprintf("Incorrect. The correct answer is: %s", q.Correct)}
	}
}

// Next moves forward one question, saturating at the last one.
func (s *Session) Next() (View, error) {
	return s.move(1)
}

// Previous moves back one question, saturating at the first one.
func (s *Session) Previous() (View, error) {
	return s.move(-1)
}

func (s *Session) move(delta int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRunning(); err != nil {
		return View{}, err
	}
	s.touch()
	s.index = clamp(s.index+delta, 0, s.limit-1)
	return s.view(), nil
}

// Explanation returns the stored explanation of the current question.
func (s *Session) Explanation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.index < 0 || s.index >= len(s.questions) || s.questions[s.index].Explanation == "" {
		return NoExplanation
	}
	return s.questions[s.index].Explanation
}

// Elapsed is the wall time since Start, frozen once the session finishes.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateFinished:
		return s.finishedAt.Sub(s.startedAt)
	case StateInProgress:
		return s.now().Sub(s.startedAt)
	default:
		return 0
	}
}

// Finish scores the first limit questions and freezes the report. Calling
// it again returns the same report.
func (s *Session) Finish() (Report, error) {
	r, _, err := s.finish()
	return r, err
}

// finish is Finish plus whether this call made the transition.
func (s *Session) finish() (Report, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report != nil {
		return *s.report, false, nil
	}
	if s.state != StateInProgress {
		return Report{}, false, ErrNotStarted
	}
	s.touch()
	s.finishedAt = s.now()
	r := buildReport(s.id, s.set, s.mode, s.questions[:s.limit])
	r.StartedAt = s.startedAt
	r.FinishedAt = s.finishedAt
	r.Elapsed = s.finishedAt.Sub(s.startedAt)
	s.report = &r
	s.state = StateFinished
	return r, true, nil
}

// LastUsed is the time of the most recent operation.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func buildReport(id, set string, mode Mode, qs []Question) Report {
	r := Report{SessionID: id, Set: set, Mode: mode, Total: len(qs), Items: make([]ReportItem, 0, len(qs))}
	for i, q := range qs {
		item := ReportItem{
			Number:        i + 1,
			Question:      q.Question,
			UserAnswer:    "N/A",
			CorrectAnswer: q.Correct,
			Explanation:   q.Explanation,
		}
		if item.CorrectAnswer == NoCorrectAnswer {
			item.CorrectAnswer = "No correct answer provided."
		}
		if item.Explanation == "" {
			item.Explanation = NoExplanation
		}
		if q.UserAnswer != nil {
			item.UserAnswer = *q.UserAnswer
			item.Correct = q.IsCorrect(*q.UserAnswer)
		}
		if item.Correct {
			r.CorrectCount++
		}
		r.Items = append(r.Items, item)
	}
	r.Score = Score(r.CorrectCount, r.Total)
	return r
}

// Score is correct/total as a percentage rounded to two decimals.
func Score(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*10000) / 100
}

// FormatElapsed renders d as MM:SS. Minutes keep counting past 59.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func (s *Session) view() View {
	if s.index < 0 || s.index >= s.limit {
		return View{Index: s.index, Total: s.limit, Text: "No more questions.", Options: []string{}}
	}
	q := s.questions[s.index]
	last := s.index == s.limit-1
	v := View{
		Index:       s.index,
		Number:      s.index + 1,
		Total:       s.limit,
		Text:        fmt.Sprintf("Question %d: %s", s.index+1, q.Question),
		Options:     append([]string(nil), q.Options...),
		UserAnswer:  q.UserAnswer,
		CanNext:     !last,
		CanPrevious: s.index > 0,
	}
	if s.mode == ModeTimed && last {
		v.ReadyToFinish = true
	}
	return v
}

func (s *Session) checkRunning() error {
	switch s.state {
	case StateInProgress:
		return nil
	case StateFinished:
		return ErrFinished
	default:
		return ErrNotStarted
	}
}

func (s *Session) touch() {
	if s.now != nil {
		s.lastUsed = s.now()
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
