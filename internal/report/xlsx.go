package report

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/exam-simulator/internal/exam"
)

const sheet = "Report"

// XLSX writes one row per question followed by a score row.
func XLSX(w io.Writer, r exam.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := []any{"#", "Question", "Your Answer", "Correct Answer", "Correct", "Explanation"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}

	for i, it := range r.Items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{it.Number, it.Question, it.UserAnswer, it.CorrectAnswer, it.Correct, it.Explanation}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, len(r.Items)+3)
	if err != nil {
		return err
	}
	score := []any{"Overall Score", Summary(r), nil, nil, r.CorrectCount, exam.FormatElapsed(r.Elapsed)}
	if err := f.SetSheetRow(sheet, cell, &score); err != nil {
		return err
	}

	for col, width := range map[string]float64{"A": 5, "B": 60, "C": 30, "D": 30, "E": 10, "F": 60} {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return f.Write(w)
}
