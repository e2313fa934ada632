package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/examforge/question-engine/internal/domain"
)

// FakeGateway is a deterministic in-memory Gateway used by tests and the
// "fake" provider. Hooks override individual operations; unset hooks fall
// back to scripted defaults. Call counters are safe for concurrent use.
type FakeGateway struct {
	mu sync.Mutex

	AnalyzePageFn    func(ctx context.Context, image domain.PageImage) (*domain.PageAnalysis, error)
	InferStructureFn func(ctx context.Context, analyses []domain.PageAnalysis) (*domain.DocumentStructure, error)
	ExtractFn        func(ctx context.Context, image domain.PageImage, ec domain.ExtractionContext) ([]domain.ExtractedQuestion, error)
	TranslateFn      func(ctx context.Context, text, sourceLang, targetLang, contextHint string) (string, error)
	RephraseFn       func(ctx context.Context, text, subject, style string) (string, error)
	AssessFn         func(ctx context.Context, question string, options []string) (*domain.DifficultyAssessment, error)
	ClassifyFn       func(ctx context.Context, question string) (*domain.SubjectClassification, error)

	AnalyzeCalls   int
	StructureCalls int
	ExtractCalls   int
	TranslateCalls int
	RephraseCalls  int
	AssessCalls    int
	ClassifyCalls  int
}

var _ domain.Gateway = (*FakeGateway)(nil)

// NewFakeGateway returns a fake with scripted defaults.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (f *FakeGateway) count(counter *int) {
	f.mu.Lock()
	*counter++
	f.mu.Unlock()
}

func (f *FakeGateway) AnalyzePage(ctx context.Context, image domain.PageImage) (*domain.PageAnalysis, error) {
	f.count(&f.AnalyzeCalls)
	if f.AnalyzePageFn != nil {
		return f.AnalyzePageFn(ctx, image)
	}
	return &domain.PageAnalysis{
		PageNumber:    image.PageNumber,
		DocumentType:  "question_paper",
		Languages:     []string{"en"},
		StructureType: domain.StructureQuestionsOnly,
		Elements: []domain.PageElement{
			{Type: domain.ElementQuestionText, Text: fmt.Sprintf("question on page %d", image.PageNumber), Confidence: 0.9},
		},
		Scanned:     true,
		Orientation: "portrait",
	}, nil
}

func (f *FakeGateway) InferDocumentStructure(ctx context.Context, analyses []domain.PageAnalysis) (*domain.DocumentStructure, error) {
	f.count(&f.StructureCalls)
	if f.InferStructureFn != nil {
		return f.InferStructureFn(ctx, analyses)
	}
	lastPage := 1
	if len(analyses) > 0 {
		lastPage = analyses[len(analyses)-1].PageNumber
	}
	return &domain.DocumentStructure{
		ExamName: "Sample Exam",
		ExamType: "mock",
		Year:     2024,
		Papers: []domain.PaperInfo{{
			ID:        "paper-1",
			Name:      "Paper 1",
			Type:      "objective",
			StartPage: 1,
			EndPage:   lastPage,
			Subjects:  []string{"General"},
		}},
	}, nil
}

func (f *FakeGateway) ExtractQuestions(ctx context.Context, image domain.PageImage, ec domain.ExtractionContext) ([]domain.ExtractedQuestion, error) {
	f.count(&f.ExtractCalls)
	if f.ExtractFn != nil {
		return f.ExtractFn(ctx, image, ec)
	}
	return nil, nil
}

func (f *FakeGateway) Translate(ctx context.Context, text, sourceLang, targetLang, contextHint string) (string, error) {
	f.count(&f.TranslateCalls)
	if f.TranslateFn != nil {
		return f.TranslateFn(ctx, text, sourceLang, targetLang, contextHint)
	}
	return fmt.Sprintf("[%s] %s", targetLang, text), nil
}

func (f *FakeGateway) Rephrase(ctx context.Context, text, subject, style string) (string, error) {
	f.count(&f.RephraseCalls)
	if f.RephraseFn != nil {
		return f.RephraseFn(ctx, text, subject, style)
	}
	return fmt.Sprintf("In other words: %s", text), nil
}

func (f *FakeGateway) AssessDifficulty(ctx context.Context, question string, options []string) (*domain.DifficultyAssessment, error) {
	f.count(&f.AssessCalls)
	if f.AssessFn != nil {
		return f.AssessFn(ctx, question, options)
	}
	return &domain.DifficultyAssessment{
		Difficulty:       domain.DifficultyMedium,
		EstimatedSeconds: 90,
	}, nil
}

func (f *FakeGateway) ClassifySubject(ctx context.Context, question string) (*domain.SubjectClassification, error) {
	f.count(&f.ClassifyCalls)
	if f.ClassifyFn != nil {
		return f.ClassifyFn(ctx, question)
	}
	return &domain.SubjectClassification{
		Subject: "General",
		Topics:  []string{"general knowledge"},
	}, nil
}
