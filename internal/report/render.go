// Package report renders finished exam reports and archives them in SQL.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mind-engage/exam-simulator/internal/exam"
)

type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatXLSX     Format = "xlsx"
	FormatJSON     Format = "json"
)

var ErrUnknownFormat = errors.New("report: unknown format")

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Filename is the download name for a report in this format.
func (f Format) Filename(r exam.Report) string {
	name := r.Set
	if name == "" {
		name = "report"
	}
	return fmt.Sprintf("%s-%s.%s", name, r.SessionID, f)
}

// Render writes r to w in format f. JSON is left to the caller.
func Render(w io.Writer, f Format, r exam.Report) error {
	switch f {
	case FormatMarkdown:
		return Markdown(w, r)
	case FormatHTML:
		return HTML(w, r)
	case FormatPDF:
		return PDF(w, r)
	case FormatXLSX:
		return XLSX(w, r)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// Summary is the one-line score string shared by every format.
func Summary(r exam.Report) string {
	return fmt.Sprintf("%.2f%% (%d out of %d correct)", r.Score, r.CorrectCount, r.Total)
}
