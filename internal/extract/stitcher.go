// Package extract turns per-page extraction results into a clean, validated
// question set: cross-page stitching, numbering checks, metadata enrichment
// and per-question validation.
package extract

import (
	"sort"
	"strings"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

// Stitcher merges questions that span page boundaries. The merge policy is
// deliberately greedy: an incomplete question adopts the next question on the
// immediately following page even without a number match.
type Stitcher struct {
	logger *observability.Logger
}

// NewStitcher creates a new stitcher.
func NewStitcher(logger *observability.Logger) *Stitcher {
	return &Stitcher{logger: logger.WithComponent("stitcher")}
}

// Stitch scans questions in page order and merges page-boundary fragments.
// Stitching an already-complete sequence is a no-op, so the operation is
// idempotent. A buffered fragment with no continuation by the end of the
// input is emitted as-is.
func (s *Stitcher) Stitch(questions []domain.ExtractedQuestion) []domain.ExtractedQuestion {
	if len(questions) == 0 {
		return questions
	}

	var result []domain.ExtractedQuestion
	var buffered *domain.ExtractedQuestion

	for i := range questions {
		q := questions[i]

		if buffered != nil {
			if s.isContinuation(buffered, &q) {
				merged := merge(*buffered, q)
				s.logger.Debug().
					Int("number", merged.Number).
					Int("page", q.Metadata.PageNumber).
					Msg("Stitched question continuation")

				if merged.IsComplete() {
					result = append(result, merged)
					buffered = nil
				} else {
					buffered = &merged
				}
				continue
			}

			result = append(result, *buffered)
			buffered = nil
		}

		if q.IsComplete() {
			result = append(result, q)
		} else {
			buffered = &q
		}
	}

	if buffered != nil {
		result = append(result, *buffered)
	}

	return result
}

// isContinuation decides whether next continues prev: either the same
// question number reappears on the immediately following page, or prev is
// incomplete and next sits on the immediately following page.
func (s *Stitcher) isContinuation(prev, next *domain.ExtractedQuestion) bool {
	if next.Metadata.PageNumber != prev.Metadata.PageNumber+1 {
		return false
	}
	if next.Number == prev.Number {
		return true
	}
	return !prev.IsComplete()
}

// merge combines a buffered fragment with its continuation. Text joins with
// a single space, options concatenate, and confidence takes the minimum of
// the two inputs since stitching is itself a source of uncertainty.
func merge(base, cont domain.ExtractedQuestion) domain.ExtractedQuestion {
	base.Text.Original = joinText(base.Text.Original, cont.Text.Original)
	base.Options = append(base.Options, cont.Options...)
	base.Explanation.Original = joinText(base.Explanation.Original, cont.Explanation.Original)

	if base.CorrectAnswer < 0 && cont.CorrectAnswer >= 0 {
		base.CorrectAnswer = cont.CorrectAnswer
	}
	if base.Subject == "" {
		base.Subject = cont.Subject
	}
	if base.Difficulty == "" {
		base.Difficulty = cont.Difficulty
	}
	if base.Marks.Positive == 0 && base.Marks.Negative == 0 {
		base.Marks = cont.Marks
	}
	base.Topics = mergeTopics(base.Topics, cont.Topics)

	if cont.Metadata.Confidence < base.Metadata.Confidence {
		base.Metadata.Confidence = cont.Metadata.Confidence
	}
	// advance the page so a chain spanning three pages keeps stitching
	base.Metadata.PageNumber = cont.Metadata.PageNumber

	return base
}

// joinText joins two fragments with exactly one space between them.
func joinText(a, b string) string {
	a = strings.TrimRight(a, " \t\n")
	b = strings.TrimLeft(b, " \t\n")
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

func mergeTopics(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, t := range a {
		seen[t] = true
	}
	for _, t := range b {
		if !seen[t] {
			a = append(a, t)
			seen[t] = true
		}
	}
	return a
}

// DetectNumberGaps sorts questions by number and returns every missing
// integer between consecutive numbers. Gaps are reported as warnings, not
// failures: sources legitimately skip or void questions.
func DetectNumberGaps(questions []domain.ExtractedQuestion) []int {
	numbers := make([]int, 0, len(questions))
	for _, q := range questions {
		if q.Number > 0 {
			numbers = append(numbers, q.Number)
		}
	}
	sort.Ints(numbers)

	var gaps []int
	for i := 1; i < len(numbers); i++ {
		for missing := numbers[i-1] + 1; missing < numbers[i]; missing++ {
			gaps = append(gaps, missing)
		}
	}
	return gaps
}

// SortByPage orders questions by page number then question number, the
// order stitching expects.
func SortByPage(questions []domain.ExtractedQuestion) {
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Metadata.PageNumber != questions[j].Metadata.PageNumber {
			return questions[i].Metadata.PageNumber < questions[j].Metadata.PageNumber
		}
		return questions[i].Number < questions[j].Number
	})
}

// SortByNumber orders questions by question number.
func SortByNumber(questions []domain.ExtractedQuestion) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Number < questions[j].Number
	})
}
