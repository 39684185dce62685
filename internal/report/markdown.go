package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mind-engage/exam-simulator/internal/exam"
)

// Markdown writes the plain report shown at the end of an exam.
func Markdown(w io.Writer, r exam.Report) error {
	bw := bufio.NewWriter(w)
	for _, it := range r.Items {
		fmt.Fprintf(bw, "**Question %d:** %s\n\n", it.Number, it.Question)
		fmt.Fprintf(bw, "- **Your Answer:** %s\n", it.UserAnswer)
		fmt.Fprintf(bw, "- **Correct Answer:** %s\n", it.CorrectAnswer)
		fmt.Fprintf(bw, "- **Explanation:** %s\n\n", it.Explanation)
		bw.WriteString("---\n\n")
	}
	fmt.Fprintf(bw, "**Overall Score:** %s\n", Summary(r))
	return bw.Flush()
}
