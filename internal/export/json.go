package export

import (
	"encoding/json"
	"os"
	"time"

	"github.com/examforge/question-engine/internal/domain"
)

// RawExport is the categorized database document: full question records plus
// the category tree, with document-level provenance.
type RawExport struct {
	Metadata RawMetadata `json:"metadata"`
	Database RawDatabase `json:"database"`
}

// RawMetadata carries document-level provenance for a raw export.
type RawMetadata struct {
	GeneratedAt    time.Time `json:"generatedAt"`
	SourceFile     string    `json:"sourceFile"`
	ExamName       string    `json:"examName,omitempty"`
	ExamType       string    `json:"examType,omitempty"`
	Year           int       `json:"year,omitempty"`
	TotalQuestions int       `json:"totalQuestions"`
}

// RawDatabase is the category tree plus the question records it references.
type RawDatabase struct {
	Categories     []*domain.QuestionCategory `json:"categories"`
	Questions      []domain.ExtractedQuestion `json:"questions"`
	TotalQuestions int                        `json:"totalQuestions"`
}

// AppExport is the consumer-facing document: simplified question objects,
// test skeletons, and a flat category summary.
type AppExport struct {
	Questions  []AppQuestion  `json:"questions"`
	Tests      []TestSkeleton `json:"tests"`
	Categories []AppCategory  `json:"categories"`
}

// AppQuestion is the simplified question shape consumed by client apps.
// CorrectAnswer stays a zero-based option index, -1 when unknown.
type AppQuestion struct {
	ID            string            `json:"id"`
	Number        int               `json:"number"`
	Text          string            `json:"text"`
	Options       []string          `json:"options"`
	CorrectAnswer int               `json:"correctAnswer"`
	Explanation   string            `json:"explanation,omitempty"`
	Subject       string            `json:"subject"`
	Topics        []string          `json:"topics,omitempty"`
	Difficulty    string            `json:"difficulty,omitempty"`
	Marks         domain.Marks      `json:"marks"`
	Translations  map[string]string `json:"translations,omitempty"`
}

// TestSkeleton is a ready-to-take test definition grouping question ids.
type TestSkeleton struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Subject       string   `json:"subject,omitempty"`
	DurationMin   int      `json:"durationMinutes"`
	QuestionIDs   []string `json:"questionIds"`
	TotalMarks    float64  `json:"totalMarks"`
	NegativeMarks bool     `json:"negativeMarks"`
}

// AppCategory is a flat category summary for client navigation.
type AppCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// BuildRawExport assembles the categorized database document.
func BuildRawExport(t *Taxonomy, sourceFile string, generatedAt time.Time) *RawExport {
	meta := RawMetadata{
		GeneratedAt:    generatedAt,
		SourceFile:     sourceFile,
		TotalQuestions: t.TotalQuestions(),
	}
	if t.Structure != nil {
		meta.ExamName = t.Structure.ExamName
		meta.ExamType = t.Structure.ExamType
		meta.Year = t.Structure.Year
	}

	return &RawExport{
		Metadata: meta,
		Database: RawDatabase{
			Categories:     t.Categories,
			Questions:      sortQuestions(t.Questions),
			TotalQuestions: t.TotalQuestions(),
		},
	}
}

// BuildAppExport assembles the consumer-facing document. One test skeleton
// is produced per section-level category with at least one question, plus a
// full-paper test per paper.
func BuildAppExport(t *Taxonomy) *AppExport {
	app := &AppExport{}

	for _, q := range sortQuestions(t.Questions) {
		app.Questions = append(app.Questions, toAppQuestion(q))
	}

	for _, c := range t.flatten() {
		app.Categories = append(app.Categories, AppCategory{
			ID:    c.ID,
			Name:  c.Name,
			Type:  string(c.Type),
			Count: c.Metadata.QuestionCount,
		})

		if (c.Type == domain.CategorySection || c.Type == domain.CategoryPaperType) && len(c.QuestionIDs) > 0 {
			app.Tests = append(app.Tests, buildTest(c, t.Questions))
		}
	}

	return app
}

func toAppQuestion(q domain.ExtractedQuestion) AppQuestion {
	options := make([]string, len(q.Options))
	for i, o := range q.Options {
		options[i] = o.Original
	}
	return AppQuestion{
		ID:            q.ID.String(),
		Number:        q.Number,
		Text:          q.Text.Original,
		Options:       options,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation.Original,
		Subject:       q.Subject,
		Topics:        q.Topics,
		Difficulty:    string(q.Difficulty),
		Marks:         q.Marks,
		Translations:  q.Text.Translations,
	}
}

// estimatedSecondsPerQuestion is the duration fallback used when a question
// carries no estimate.
const estimatedSecondsPerQuestion = 90

func buildTest(c *domain.QuestionCategory, questions []domain.ExtractedQuestion) TestSkeleton {
	byID := make(map[string]domain.ExtractedQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID.String()] = q
	}

	test := TestSkeleton{
		ID:          "test-" + c.ID,
		Name:        c.Name,
		QuestionIDs: c.QuestionIDs,
	}

	seconds := 0
	for _, id := range c.QuestionIDs {
		q, ok := byID[id]
		if !ok {
			continue
		}
		test.TotalMarks += q.Marks.Positive
		if q.Marks.Negative != 0 {
			test.NegativeMarks = true
		}
		if q.EstimatedSeconds > 0 {
			seconds += q.EstimatedSeconds
		} else {
			seconds += estimatedSecondsPerQuestion
		}
		if test.Subject == "" {
			test.Subject = q.Subject
		}
	}
	test.DurationMin = (seconds + 59) / 60

	return test
}

// WriteJSON marshals v with indentation and writes it to path.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.IOError("marshal export", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.IOError("write export file", err)
	}
	return nil
}
