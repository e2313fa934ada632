package extract

import (
	"testing"

	"github.com/google/uuid"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

func question(number, page int, text string, options ...string) domain.ExtractedQuestion {
	q := domain.ExtractedQuestion{
		ID:            uuid.New(),
		Number:        number,
		Text:          domain.LocalizedText{Original: text},
		CorrectAnswer: -1,
		Metadata: domain.QuestionMetadata{
			PageNumber: page,
			Confidence: 0.9,
		},
	}
	for _, o := range options {
		q.Options = append(q.Options, domain.LocalizedText{Original: o})
	}
	return q
}

func TestStitchSplitQuestion(t *testing.T) {
	s := NewStitcher(observability.Nop())

	// Question 7's stem ends mid-sentence on page 3; its options arrive on
	// page 4 under the same number.
	fragment := question(7, 3, "If a train travels at 60 km/h for 2 hours and")
	fragment.Metadata.Confidence = 0.95
	tail := question(7, 4, "then accelerates, what total distance does it cover?", "120 km", "150 km", "180 km", "200 km")
	tail.Metadata.Confidence = 0.85
	tail.CorrectAnswer = 2

	result := s.Stitch([]domain.ExtractedQuestion{fragment, tail})

	if len(result) != 1 {
		t.Fatalf("expected 1 stitched question, got %d", len(result))
	}
	got := result[0]

	want := "If a train travels at 60 km/h for 2 hours and then accelerates, what total distance does it cover?"
	if got.Text.Original != want {
		t.Errorf("text = %q, want %q", got.Text.Original, want)
	}
	if len(got.Options) != 4 {
		t.Errorf("options = %d, want 4", len(got.Options))
	}
	if got.CorrectAnswer != 2 {
		t.Errorf("correctAnswer = %d, want 2", got.CorrectAnswer)
	}
	if got.Metadata.Confidence != 0.85 {
		t.Errorf("confidence = %f, want the minimum 0.85", got.Metadata.Confidence)
	}
	if got.Metadata.PageNumber != 4 {
		t.Errorf("page = %d, want 4", got.Metadata.PageNumber)
	}
}

func TestStitchIncompleteWithoutNumberMatch(t *testing.T) {
	s := NewStitcher(observability.Nop())

	// The continuation was extracted with a fresh number; greedy stitching
	// still merges because the fragment is incomplete and pages are adjacent.
	fragment := question(12, 5, "The value of the definite integral from 0 to")
	cont := question(13, 6, "1 of x squared dx is which of the following?", "1/3", "1/2", "2/3", "1")

	result := s.Stitch([]domain.ExtractedQuestion{fragment, cont})

	if len(result) != 1 {
		t.Fatalf("expected merge, got %d questions", len(result))
	}
	if result[0].Number != 12 {
		t.Errorf("merged number = %d, want the fragment's 12", result[0].Number)
	}
}

func TestStitchDoesNotMergeAcrossGap(t *testing.T) {
	s := NewStitcher(observability.Nop())

	fragment := question(3, 2, "An unfinished question about")
	distant := question(4, 5, "A complete question on a distant page?", "yes", "no")

	result := s.Stitch([]domain.ExtractedQuestion{fragment, distant})

	if len(result) != 2 {
		t.Fatalf("expected no merge across non-adjacent pages, got %d", len(result))
	}
}

func TestStitchCompleteSequenceIsNoOp(t *testing.T) {
	s := NewStitcher(observability.Nop())

	input := []domain.ExtractedQuestion{
		question(1, 1, "First question?", "a", "b", "c", "d"),
		question(2, 1, "Second question?", "a", "b"),
		question(3, 2, "Third question?", "a", "b", "c"),
	}

	first := s.Stitch(input)
	if len(first) != 3 {
		t.Fatalf("complete questions must pass through, got %d", len(first))
	}

	second := s.Stitch(first)
	if len(second) != len(first) {
		t.Fatalf("stitching must be idempotent: %d then %d", len(first), len(second))
	}
	for i := range first {
		if second[i].Text.Original != first[i].Text.Original {
			t.Errorf("question %d changed on restitch", first[i].Number)
		}
		if len(second[i].Options) != len(first[i].Options) {
			t.Errorf("question %d option count changed on restitch", first[i].Number)
		}
	}
}

func TestStitchTrailingFragmentEmitted(t *testing.T) {
	s := NewStitcher(observability.Nop())

	input := []domain.ExtractedQuestion{
		question(1, 1, "Complete question?", "a", "b"),
		question(2, 2, "Trailing fragment with no continuation and"),
	}

	result := s.Stitch(input)
	if len(result) != 2 {
		t.Fatalf("trailing fragment must be emitted, got %d questions", len(result))
	}
	if result[1].Number != 2 {
		t.Errorf("trailing fragment number = %d", result[1].Number)
	}
}

func TestStitchThreePageChain(t *testing.T) {
	s := NewStitcher(observability.Nop())

	first := question(9, 1, "A question that starts and")
	second := question(9, 2, "keeps going without options and")
	third := question(9, 3, "finally ends here?", "a", "b", "c")

	result := s.Stitch([]domain.ExtractedQuestion{first, second, third})

	if len(result) != 1 {
		t.Fatalf("expected a single merged question, got %d", len(result))
	}
	if len(result[0].Options) != 3 {
		t.Errorf("options = %d, want 3", len(result[0].Options))
	}
	if result[0].Metadata.PageNumber != 3 {
		t.Errorf("final page = %d, want 3", result[0].Metadata.PageNumber)
	}
}

func TestDetectNumberGaps(t *testing.T) {
	tests := []struct {
		name    string
		numbers []int
		want    []int
	}{
		{name: "no gaps", numbers: []int{1, 2, 3, 4}, want: nil},
		{name: "single gap", numbers: []int{1, 2, 4, 5}, want: []int{3}},
		{name: "multi gap", numbers: []int{1, 5}, want: []int{2, 3, 4}},
		{name: "unsorted input", numbers: []int{4, 1, 2}, want: []int{3}},
		{name: "zero numbers ignored", numbers: []int{0, 1, 2}, want: nil},
		{name: "empty", numbers: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var questions []domain.ExtractedQuestion
			for _, n := range tt.numbers {
				questions = append(questions, question(n, 1, "q?", "a", "b"))
			}
			got := DetectNumberGaps(questions)
			if len(got) != len(tt.want) {
				t.Fatalf("gaps = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("gaps = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
