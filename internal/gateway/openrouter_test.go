package gateway

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examforge/question-engine/internal/domain"
)

func TestInferDocumentStructure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`{
			"exam_name": "State Civil Services Prelims",
			"exam_type": "civil_services",
			"year": 2022,
			"papers": [
				{
					"id": "paper-1",
					"name": "General Studies",
					"type": "objective",
					"start_page": 1,
					"end_page": 24,
					"subjects": ["History", "Geography"],
					"sections": [
						{"name": "History", "start_page": 1, "end_page": 12, "subject": "History"},
						{"name": "Geography", "start_page": 13, "end_page": 24, "subject": "Geography"}
					]
				}
			]
		}`)))
	})

	analyses := []domain.PageAnalysis{
		{PageNumber: 1, StructureType: domain.StructureQuestionsOnly},
		{PageNumber: 2, StructureType: domain.StructureQuestionsOnly},
	}

	ds, err := client.InferDocumentStructure(context.Background(), analyses)
	require.NoError(t, err)

	assert.Equal(t, "State Civil Services Prelims", ds.ExamName)
	assert.Equal(t, 2022, ds.Year)
	require.Len(t, ds.Papers, 1)
	assert.Equal(t, "paper-1", ds.Papers[0].ID)
	require.Len(t, ds.Papers[0].Sections, 2)
	assert.Equal(t, "Geography", ds.Papers[0].Sections[1].Subject)
}

func TestAssessDifficulty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`{"difficulty": "hard", "estimated_seconds": 180}`)))
	})

	got, err := client.AssessDifficulty(context.Background(), "Evaluate the integral", []string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, domain.DifficultyHard, got.Difficulty)
	assert.Equal(t, 180, got.EstimatedSeconds)
}

func TestClassifySubject(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`{"subject": "Chemistry", "topics": ["organic chemistry", "alkanes"]}`)))
	})

	got, err := client.ClassifySubject(context.Background(), "Name the first alkane.")
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", got.Subject)
	assert.Equal(t, []string{"organic chemistry", "alkanes"}, got.Topics)
}

func TestSummarizeAnalyses(t *testing.T) {
	analyses := []domain.PageAnalysis{
		{
			PageNumber:    1,
			DocumentType:  "question_paper",
			StructureType: domain.StructureInstructions,
			Languages:     []string{"en"},
			Elements: []domain.PageElement{
				{Type: domain.ElementHeader, Text: "SECTION A - PHYSICS"},
				{Type: domain.ElementInstruction, Text: "Answer all questions."},
			},
		},
		{
			PageNumber:    2,
			StructureType: domain.StructureQuestionsOnly,
			Elements: []domain.PageElement{
				{Type: domain.ElementQuestionText, Text: "Q1 ..."},
				{Type: domain.ElementQuestionText, Text: "Q2 ..."},
			},
		},
	}

	summary, err := summarizeAnalyses(analyses)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(summary), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "SECTION A - PHYSICS")
	assert.Contains(t, lines[1], `"question_text":2`)
	// image bytes must never reach the structure prompt
	assert.NotContains(t, summary, "base64")
}

func TestFormatExtractionContext(t *testing.T) {
	got := formatExtractionContext("Mock Exam", "mock", "Physics", []int{1, 2, 3}, "trailing text of previous page")

	assert.Contains(t, got, "Mock Exam")
	assert.Contains(t, got, "Physics")
	assert.Contains(t, got, "end at 3")
	assert.Contains(t, got, "trailing text of previous page")
}
