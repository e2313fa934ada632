package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/examforge/question-engine/internal/domain"
)

// WriteExcel writes the question bank as an XLSX workbook: one Questions
// sheet plus a Categories summary sheet.
func WriteExcel(path string, t *Taxonomy) error {
	f := excelize.NewFile()
	defer f.Close()

	const questionsSheet = "Questions"
	f.SetSheetName("Sheet1", questionsSheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return domain.IOError("create excel style", err)
	}

	for i, col := range csvHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(questionsSheet, cell, col)
	}
	endCell, _ := excelize.CoordinatesToCellName(len(csvHeader), 1)
	f.SetCellStyle(questionsSheet, "A1", endCell, headerStyle)
	f.SetColWidth(questionsSheet, "B", "B", 60)
	f.SetColWidth(questionsSheet, "C", "F", 30)

	for rowIdx, q := range sortQuestions(t.Questions) {
		for colIdx, v := range csvRow(q) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(questionsSheet, cell, v)
		}
	}

	const categoriesSheet = "Categories"
	if _, err := f.NewSheet(categoriesSheet); err != nil {
		return domain.IOError("create categories sheet", err)
	}
	for i, col := range []string{"id", "name", "type", "questions"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(categoriesSheet, cell, col)
	}
	f.SetCellStyle(categoriesSheet, "A1", "D1", headerStyle)
	f.SetColWidth(categoriesSheet, "A", "B", 40)

	for i, c := range t.flatten() {
		row := i + 2
		f.SetCellValue(categoriesSheet, fmt.Sprintf("A%d", row), c.ID)
		f.SetCellValue(categoriesSheet, fmt.Sprintf("B%d", row), c.Name)
		f.SetCellValue(categoriesSheet, fmt.Sprintf("C%d", row), string(c.Type))
		f.SetCellValue(categoriesSheet, fmt.Sprintf("D%d", row), c.Metadata.QuestionCount)
	}

	if err := f.SaveAs(path); err != nil {
		return domain.IOError("save excel file", err)
	}
	return nil
}

// baseName strips the extension and directory from a source path for use in
// output file names.
func baseName(path string) string {
	name := path
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
