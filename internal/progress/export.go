package progress

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

const exportSheet = "Sheet1"

var exportHeader = []any{"Completed At", "Resource", "Quiz", "Score", "Total Questions", "Percentage", "Grade"}

// Titles resolves ids to display names for the export. Unknown ids fall back
// to the id itself.
type Titles struct {
	Resources map[string]string
	Quizzes   map[string]string
}

func (t Titles) resource(id string) string {
	if name, ok := t.Resources[id]; ok {
		return name
	}
	return id
}

func (t Titles) quiz(id string) string {
	if name, ok := t.Quizzes[id]; ok {
		return name
	}
	return id
}

// WriteXLSX writes one row per attempt, oldest first, as an .xlsx workbook.
func WriteXLSX(w io.Writer, attempts []quiz.UserProgress, titles Titles) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetCellStyle(exportSheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, a := range attempts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		pct := Percentage(a.Score, a.TotalQuestions)
		row := []any{
			a.CompletedAt.UTC().Format("2006-01-02 15:04:05"),
			titles.resource(a.ResourceID),
			titles.quiz(a.QuizID),
			a.Score,
			a.TotalQuestions,
			pct,
			Grade(pct),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "C", 24); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
