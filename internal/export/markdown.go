package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/examforge/question-engine/internal/domain"
)

// WriteMarkdown writes the question bank as a human-readable Markdown
// document grouped by subject.
func WriteMarkdown(path string, t *Taxonomy) error {
	var b strings.Builder

	title := "Question Bank"
	if t.Structure != nil && t.Structure.ExamName != "" {
		title = t.Structure.ExamName
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if t.Structure != nil {
		if t.Structure.ExamType != "" {
			fmt.Fprintf(&b, "**Exam type:** %s  \n", t.Structure.ExamType)
		}
		if t.Structure.Year > 0 {
			fmt.Fprintf(&b, "**Year:** %d  \n", t.Structure.Year)
		}
	}
	fmt.Fprintf(&b, "**Questions:** %d\n\n", t.TotalQuestions())

	bySubject := make(map[string][]domain.ExtractedQuestion)
	var subjects []string
	for _, q := range sortQuestions(t.Questions) {
		subject := q.Subject
		if subject == "" {
			subject = domain.DefaultSubject
		}
		if _, seen := bySubject[subject]; !seen {
			subjects = append(subjects, subject)
		}
		bySubject[subject] = append(bySubject[subject], q)
	}

	for _, subject := range subjects {
		fmt.Fprintf(&b, "## %s\n\n", subject)
		for _, q := range bySubject[subject] {
			writeMarkdownQuestion(&b, q)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return domain.IOError("write markdown file", err)
	}
	return nil
}

func writeMarkdownQuestion(b *strings.Builder, q domain.ExtractedQuestion) {
	fmt.Fprintf(b, "### Q%d. %s\n\n", q.Number, q.Text.Original)

	for i, o := range q.Options {
		marker := " "
		if i == q.CorrectAnswer {
			marker = "x"
		}
		fmt.Fprintf(b, "- [%s] %c) %s\n", marker, 'A'+i, o.Original)
	}
	b.WriteString("\n")

	if q.Explanation.Original != "" {
		fmt.Fprintf(b, "> %s\n\n", q.Explanation.Original)
	}

	var tags []string
	if q.Difficulty != "" {
		tags = append(tags, string(q.Difficulty))
	}
	if q.Marks.Positive != 0 {
		tags = append(tags, fmt.Sprintf("+%g/%g marks", q.Marks.Positive, q.Marks.Negative))
	}
	tags = append(tags, fmt.Sprintf("page %d", q.Metadata.PageNumber))
	fmt.Fprintf(b, "*%s*\n\n", strings.Join(tags, " · "))
}
