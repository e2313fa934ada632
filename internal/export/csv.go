package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/examforge/question-engine/internal/domain"
)

// csvHeader is the fixed column layout of CSV exports. Options beyond four
// are joined into the last option column.
var csvHeader = []string{
	"number", "question", "option_a", "option_b", "option_c", "option_d",
	"correct_answer", "explanation", "subject", "topics", "difficulty",
	"marks_positive", "marks_negative", "page",
}

// WriteCSV writes the question set as a flat CSV file at path.
func WriteCSV(path string, questions []domain.ExtractedQuestion) error {
	f, err := os.Create(path)
	if err != nil {
		return domain.IOError("create csv file", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return domain.IOError("write csv header", err)
	}

	for _, q := range sortQuestions(questions) {
		if err := w.Write(csvRow(q)); err != nil {
			return domain.IOError("write csv row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return domain.IOError("flush csv", err)
	}
	return nil
}

func csvRow(q domain.ExtractedQuestion) []string {
	opts := make([]string, 4)
	for i, o := range q.Options {
		if i < 3 {
			opts[i] = o.Original
		} else if i == 3 {
			opts[3] = o.Original
		} else {
			opts[3] += " | " + o.Original
		}
	}

	correct := ""
	if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
		correct = string(rune('A' + q.CorrectAnswer))
	}

	return []string{
		fmt.Sprintf("%d", q.Number),
		q.Text.Original,
		opts[0], opts[1], opts[2], opts[3],
		correct,
		q.Explanation.Original,
		q.Subject,
		strings.Join(q.Topics, "; "),
		string(q.Difficulty),
		fmt.Sprintf("%g", q.Marks.Positive),
		fmt.Sprintf("%g", q.Marks.Negative),
		fmt.Sprintf("%d", q.Metadata.PageNumber),
	}
}
