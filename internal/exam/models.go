package exam

import "time"

// NoCorrectAnswer marks a question whose source gave no keyed option.
// Every answer to such a question is scored incorrect.
const NoCorrectAnswer = ""

// NoExplanation is shown when a question carries no explanation.
const NoExplanation = "No explanation available for this question."

type Question struct {
	Question    string   `json:"question" yaml:"question"`
	Options     []string `json:"options" yaml:"options"`
	Correct     string   `json:"correct" yaml:"correct"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`

	// UserAnswer is set by Session.Answer; nil means unanswered.
	UserAnswer *string `json:"user_answer,omitempty" yaml:"-"`
}

// HasOption reports whether choice is one of the listed options.
func (q Question) HasOption(choice string) bool {
	for _, o := range q.Options {
		if o == choice {
			return true
		}
	}
	return false
}

// IsCorrect reports whether choice earns the point for q.
func (q Question) IsCorrect(choice string) bool {
	return q.Correct != NoCorrectAnswer && choice == q.Correct
}

type Mode string

const (
	ModeTraining Mode = "training"
	ModeTimed    Mode = "timed"
)

// ParseMode accepts the two modes plus "exam", the name the timed mode had
// in earlier releases.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeTraining):
		return ModeTraining, nil
	case string(ModeTimed), "exam":
		return ModeTimed, nil
	default:
		return "", ErrInvalidMode
	}
}

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
)

type Options struct {
	Mode       Mode
	Limit      int // timed mode only; <= 0 means all questions
	StartIndex int
	Audio      bool
}

// View is what a client renders for the current position.
type View struct {
	Index         int      `json:"index"`
	Number        int      `json:"number"`
	Total         int      `json:"total"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	UserAnswer    *string  `json:"user_answer,omitempty"`
	CanNext       bool     `json:"can_next"`
	CanPrevious   bool     `json:"can_previous"`
	ReadyToFinish bool     `json:"ready_to_finish"`
}

type Feedback struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

type ReportItem struct {
	Number        int    `json:"number"`
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Correct       bool   `json:"correct"`
}

type Report struct {
	SessionID    string        `json:"session_id"`
	Set          string        `json:"set"`
	Mode         Mode          `json:"mode"`
	Items        []ReportItem  `json:"items"`
	CorrectCount int           `json:"correct_count"`
	Total        int           `json:"total"`
	Score        float64       `json:"score"` // percent, two decimals
	Elapsed      time.Duration `json:"elapsed"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
}
