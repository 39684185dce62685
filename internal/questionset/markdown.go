package questionset

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/mind-engage/exam-simulator/internal/exam"
)

var checkboxPrefixes = []string{"- [ ] ", "- [x] ", "- [X] "}

// decodeMarkdown reads the ".set" format:
//
//	## Which service stores objects?
//	- [ ] EC2
//	- [x] S3
//
// Text before the first heading is ignored. A question without a ticked
// option gets exam.NoCorrectAnswer.
func decodeMarkdown(data []byte) ([]exam.Question, error) {
	var (
		out []exam.Question
		cur *exam.Question
	)
	flush := func() {
		if cur != nil {
			out = append(out, *cur)
		}
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "## ") {
			flush()
			cur = &exam.Question{Question: strings.TrimSpace(strings.TrimPrefix(line, "## "))}
			continue
		}
		if cur == nil || line == "" {
			continue
		}
		ticked := strings.HasPrefix(line, "- [x]") || strings.HasPrefix(line, "- [X]")
		opt := stripCheckbox(line)
		cur.Options = append(cur.Options, opt)
		if ticked && cur.Correct == exam.NoCorrectAnswer {
			cur.Correct = opt
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

func stripCheckbox(line string) string {
	for _, p := range checkboxPrefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimPrefix(line, p))
		}
	}
	return line
}
