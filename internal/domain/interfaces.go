package domain

import "context"

// Renderer defines the interface for converting a PDF into page images.
type Renderer interface {
	// Render rasterizes the PDF at the given DPI. maxPages <= 0 means all pages.
	Render(ctx context.Context, pdfPath string, dpi, maxPages int) ([]PageImage, error)

	// Cleanup releases any resources held from the last render.
	Cleanup() error
}

// ExtractionContext carries the cross-call memory the gateway itself never
// holds: everything the model needs to know about surrounding pages.
type ExtractionContext struct {
	ExamName        string
	ExamType        string
	Subject         string
	PreviousNumbers []int  // question numbers already seen on earlier pages
	PriorPageTail   string // trailing text of the previous page, for continuations
}

// DifficultyAssessment is the result of a difficulty estimate for a question.
type DifficultyAssessment struct {
	Difficulty       Difficulty
	EstimatedSeconds int
}

// SubjectClassification is the result of classifying a question's subject.
type SubjectClassification struct {
	Subject string
	Topics  []string
}

// Gateway is the single abstraction over the vision-language capability.
// Implementations must be stateless between calls; every operation is an
// idempotent request/response exchange.
type Gateway interface {
	AnalyzePage(ctx context.Context, image PageImage) (*PageAnalysis, error)
	InferDocumentStructure(ctx context.Context, analyses []PageAnalysis) (*DocumentStructure, error)
	ExtractQuestions(ctx context.Context, image PageImage, ec ExtractionContext) ([]ExtractedQuestion, error)
	Translate(ctx context.Context, text, sourceLang, targetLang, context string) (string, error)
	Rephrase(ctx context.Context, text, subject, style string) (string, error)
	AssessDifficulty(ctx context.Context, question string, options []string) (*DifficultyAssessment, error)
	ClassifySubject(ctx context.Context, question string) (*SubjectClassification, error)
}
