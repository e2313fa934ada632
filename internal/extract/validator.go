package extract

import (
	"fmt"
	"strings"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

// Issue is one validation finding for a question.
type Issue struct {
	QuestionNumber int
	Message        string
	Severity       domain.Severity
}

// Validator applies pass/fail checks to each question. A question failing a
// check but at or above the confidence floor is kept with a warning; one
// below the floor is dropped with an error.
type Validator struct {
	minConfidence float64
	logger        *observability.Logger
}

// NewValidator creates a validator with the configured confidence floor.
func NewValidator(minConfidence float64, logger *observability.Logger) *Validator {
	return &Validator{
		minConfidence: minConfidence,
		logger:        logger.WithComponent("validator"),
	}
}

// Validate checks each question and returns the kept set plus every finding.
// Kept questions are frozen from this point on.
func (v *Validator) Validate(questions []domain.ExtractedQuestion) ([]domain.ExtractedQuestion, []Issue) {
	var kept []domain.ExtractedQuestion
	var issues []Issue

	for _, q := range questions {
		findings := v.check(&q)

		if q.Metadata.Confidence < v.minConfidence {
			issues = append(issues, Issue{
				QuestionNumber: q.Number,
				Message: fmt.Sprintf("question %d dropped: confidence %.2f below floor %.2f",
					q.Number, q.Metadata.Confidence, v.minConfidence),
				Severity: domain.SeverityError,
			})
			v.logger.Warn().
				Int("number", q.Number).
				Float64("confidence", q.Metadata.Confidence).
				Msg("Dropped question below confidence floor")
			continue
		}

		for _, f := range findings {
			issues = append(issues, Issue{
				QuestionNumber: q.Number,
				Message:        fmt.Sprintf("question %d: %s", q.Number, f),
				Severity:       domain.SeverityWarning,
			})
		}

		kept = append(kept, q)
	}

	return kept, issues
}

// check returns the individual findings for one question.
func (v *Validator) check(q *domain.ExtractedQuestion) []string {
	var findings []string

	if strings.TrimSpace(q.Text.Original) == "" {
		findings = append(findings, "missing question text")
	}
	if q.Number < 1 {
		findings = append(findings, fmt.Sprintf("invalid question number %d", q.Number))
	}
	if len(q.Options) == 1 {
		findings = append(findings, "fewer than two options")
	}
	if q.CorrectAnswer >= len(q.Options) {
		findings = append(findings, fmt.Sprintf("correct answer index %d out of range", q.CorrectAnswer))
	}
	if strings.TrimSpace(q.Subject) == "" {
		findings = append(findings, "missing subject")
	}

	return findings
}
