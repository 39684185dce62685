// Package questionset reads exam question sets from a directory.
//
// A set is identified by its file's base name. Three formats are
// recognised: JSON and YAML arrays of question objects, and the Markdown
// ".set" format where each question starts with "## " and the correct
// option is ticked with "- [x]".
package questionset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/exam-simulator/internal/exam"
)

var (
	ErrNotFound  = errors.New("questionset: set not found")
	ErrEmpty     = errors.New("questionset: set has no questions")
	ErrMalformed = errors.New("questionset: malformed set")
)

// Extensions in lookup order. When a set exists in several formats the
// first one wins.
var Extensions = []string{".json", ".yaml", ".yml", ".set"}

type decoder func([]byte) ([]exam.Question, error)

var decoders = map[string]decoder{
	".json": decodeJSON,
	".yaml": decodeYAML,
	".yml":  decodeYAML,
	".set":  decodeMarkdown,
}

type Store struct {
	dir string
	log *zap.Logger
}

func NewStore(dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, log: log}
}

func (s *Store) Dir() string { return s.dir }

// List returns the sorted identifiers of every recognised file. Extensions
// match exactly, as Load resolves them: "x.JSON" is not a set.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("questionset: read %s: %w", s.dir, err)
	}
	seen := map[string]struct{}{}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if _, ok := decoders[ext]; !ok {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ext)
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads and validates a set. A missing file is ErrNotFound, an empty
// one ErrEmpty; a record whose correct answer matches none of its options
// makes the whole set ErrMalformed.
func (s *Store) Load(ctx context.Context, id string) ([]exam.Question, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	for _, ext := range Extensions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.dir, id+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("questionset: read %s: %w", path, err)
		}
		qs, err := Parse(ext, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		s.log.Debug("question set loaded", zap.String("set", id), zap.String("file", path), zap.Int("questions", len(qs)))
		return qs, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// Parse decodes data in the format named by ext, then normalises and
// validates the records.
func Parse(ext string, data []byte) ([]exam.Question, error) {
	dec, ok := decoders[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMalformed, ext)
	}
	qs, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(qs) == 0 {
		return nil, ErrEmpty
	}
	for i := range qs {
		normalize(&qs[i])
		if err := Validate(qs[i]); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrMalformed, i+1, err)
		}
		if qs[i].Explanation == "" {
			qs[i].Explanation = exam.NoExplanation
		}
	}
	return qs, nil
}

// Validate checks one record. An empty correct answer is allowed and
// marks the question as unkeyed.
func Validate(q exam.Question) error {
	if q.Question == "" {
		return errors.New("empty question text")
	}
	if len(q.Options) == 0 {
		return errors.New("no options")
	}
	if q.Correct != exam.NoCorrectAnswer && !q.HasOption(q.Correct) {
		return fmt.Errorf("correct answer %q is not one of the options", q.Correct)
	}
	return nil
}

func normalize(q *exam.Question) {
	q.Question = clean(q.Question)
	q.Correct = clean(q.Correct)
	q.Explanation = clean(q.Explanation)
	opts := q.Options[:0]
	for _, o := range q.Options {
		if o = clean(o); o != "" {
			opts = append(opts, o)
		}
	}
	q.Options = opts
	q.UserAnswer = nil
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}

func decodeJSON(data []byte) ([]exam.Question, error) {
	var qs []exam.Question
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&qs); err != nil {
		return nil, err
	}
	return qs, nil
}

func decodeYAML(data []byte) ([]exam.Question, error) {
	var qs []exam.Question
	if err := yaml.Unmarshal(data, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}
