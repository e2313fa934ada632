package extract

import (
	"testing"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

func TestValidateConfidenceFloor(t *testing.T) {
	v := NewValidator(0.5, observability.Nop())

	confident := question(1, 1, "A fine question?", "a", "b")
	confident.Subject = "Physics"
	confident.Metadata.Confidence = 0.9

	doubtful := question(2, 1, "A shaky question?", "a", "b")
	doubtful.Subject = "Physics"
	doubtful.Metadata.Confidence = 0.3

	kept, issues := v.Validate([]domain.ExtractedQuestion{confident, doubtful})

	if len(kept) != 1 || kept[0].Number != 1 {
		t.Fatalf("expected only question 1 kept, got %d", len(kept))
	}

	var dropIssues int
	for _, issue := range issues {
		if issue.Severity == domain.SeverityError && issue.QuestionNumber == 2 {
			dropIssues++
		}
	}
	if dropIssues != 1 {
		t.Errorf("expected one drop recorded at error severity, got %d", dropIssues)
	}
}

func TestValidateAboveFloorFailuresKeepQuestion(t *testing.T) {
	v := NewValidator(0.5, observability.Nop())

	// Confident but flawed: single option, no subject, answer out of range.
	q := question(3, 1, "A flawed question?", "only option")
	q.CorrectAnswer = 5
	q.Metadata.Confidence = 0.8

	kept, issues := v.Validate([]domain.ExtractedQuestion{q})

	if len(kept) != 1 {
		t.Fatal("a confident question must be kept despite findings")
	}
	if len(issues) < 3 {
		t.Fatalf("expected at least 3 warnings, got %d: %v", len(issues), issues)
	}
	for _, issue := range issues {
		if issue.Severity != domain.SeverityWarning {
			t.Errorf("finding above the floor must be a warning, got %s", issue.Severity)
		}
	}
}

func TestValidateCleanQuestionNoIssues(t *testing.T) {
	v := NewValidator(0.5, observability.Nop())

	q := question(4, 2, "A clean question?", "a", "b", "c", "d")
	q.Subject = "Chemistry"
	q.CorrectAnswer = 1
	q.Metadata.Confidence = 0.95

	kept, issues := v.Validate([]domain.ExtractedQuestion{q})
	if len(kept) != 1 || len(issues) != 0 {
		t.Errorf("kept=%d issues=%v", len(kept), issues)
	}
}

func TestValidateUnknownAnswerAccepted(t *testing.T) {
	v := NewValidator(0.5, observability.Nop())

	q := question(5, 1, "Answer key missing?", "a", "b")
	q.Subject = "Biology"
	q.CorrectAnswer = -1
	q.Metadata.Confidence = 0.9

	_, issues := v.Validate([]domain.ExtractedQuestion{q})
	if len(issues) != 0 {
		t.Errorf("unknown correct answer must not be flagged, got %v", issues)
	}
}
