package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/mind-engage/exam-simulator/internal/exam"
)

// PDF writes a printable A4 version of the report.
func PDF(w io.Writer, r exam.Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.Set+" results", true)
	pdf.SetCreator("examsim", true)
	if !r.FinishedAt.IsZero() {
		pdf.SetCreationDate(r.FinishedAt)
		pdf.SetModificationDate(r.FinishedAt)
	}
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(r.Set), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Mode: %s    Time: %s", r.Mode, exam.FormatElapsed(r.Elapsed))), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, it := range r.Items {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("Question %d: %s", it.Number, it.Question)), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
		if it.Correct {
			pdf.SetTextColor(26, 127, 55)
		} else {
			pdf.SetTextColor(207, 34, 46)
		}
		pdf.MultiCell(0, 5, tr("Your Answer: "+it.UserAnswer), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, 5, tr("Correct Answer: "+it.CorrectAnswer), "", "L", false)
		pdf.MultiCell(0, 5, tr("Explanation: "+it.Explanation), "", "L", false)
		pdf.Ln(3)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr("Overall Score: "+Summary(r)), "T", 1, "L", false, 0, "")
	return pdf.Output(w)
}
