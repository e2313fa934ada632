package domain

import (
	"testing"
)

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		options  int
		complete bool
	}{
		{
			name:     "two options and terminated text",
			text:     "What is the capital of France?",
			options:  4,
			complete: true,
		},
		{
			name:     "text ending mid sentence",
			text:     "If a train travels at 60 km/h and",
			options:  4,
			complete: false,
		},
		{
			name:     "only one option",
			text:     "What is the capital of France?",
			options:  1,
			complete: false,
		},
		{
			name:     "no options",
			text:     "What is the capital of France?",
			options:  0,
			complete: false,
		},
		{
			name:     "empty text",
			text:     "",
			options:  4,
			complete: false,
		},
		{
			name:     "text ending with closing bracket",
			text:     "Evaluate (2 + 3)",
			options:  2,
			complete: true,
		},
		{
			name:     "text ending with colon",
			text:     "Match the following:",
			options:  4,
			complete: true,
		},
		{
			name:     "trailing whitespace ignored",
			text:     "What is 2 + 2?   ",
			options:  2,
			complete: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ExtractedQuestion{Text: LocalizedText{Original: tt.text}}
			for i := 0; i < tt.options; i++ {
				q.Options = append(q.Options, LocalizedText{Original: "option"})
			}
			if got := q.IsComplete(); got != tt.complete {
				t.Errorf("IsComplete() = %v, want %v", got, tt.complete)
			}
		})
	}
}

func TestCategoryAddQuestionDeduplicates(t *testing.T) {
	c := &QuestionCategory{ID: "subject-physics", Name: "Physics", Type: CategorySubject}

	c.AddQuestion("q1")
	c.AddQuestion("q2")
	c.AddQuestion("q1")

	if len(c.QuestionIDs) != 2 {
		t.Fatalf("expected 2 question ids, got %d", len(c.QuestionIDs))
	}
	if c.QuestionIDs[0] != "q1" || c.QuestionIDs[1] != "q2" {
		t.Errorf("insertion order not preserved: %v", c.QuestionIDs)
	}
	if c.Metadata.QuestionCount != 2 {
		t.Errorf("expected count 2, got %d", c.Metadata.QuestionCount)
	}
}

func TestLocalizedTextResolve(t *testing.T) {
	lt := LocalizedText{Original: "hello", SourceLanguage: "en"}
	lt.SetTranslation("hi", "namaste")

	if got := lt.Resolve("hi"); got != "namaste" {
		t.Errorf("Resolve(hi) = %q", got)
	}
	if got := lt.Resolve("fr"); got != "hello" {
		t.Errorf("Resolve(fr) should fall back to original, got %q", got)
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusPartialFailure, JobStatusFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []JobStatus{JobStatusPending, JobStatusProcessing} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
