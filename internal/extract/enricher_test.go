package extract

import (
	"context"
	"testing"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/gateway"
	"github.com/examforge/question-engine/internal/observability"
)

func TestEnrichBackfillsMissingMetadata(t *testing.T) {
	fake := gateway.NewFakeGateway()
	fake.AssessFn = func(ctx context.Context, question string, options []string) (*domain.DifficultyAssessment, error) {
		return &domain.DifficultyAssessment{Difficulty: domain.DifficultyHard, EstimatedSeconds: 150}, nil
	}
	fake.ClassifyFn = func(ctx context.Context, question string) (*domain.SubjectClassification, error) {
		return &domain.SubjectClassification{Subject: "Mathematics", Topics: []string{"calculus"}}, nil
	}

	e := NewEnricher(fake, observability.Nop())

	classified := question(1, 1, "Already classified?", "a", "b")
	classified.Subject = "Physics"
	classified.Difficulty = domain.DifficultyEasy

	blank := question(2, 1, "Needs classification?", "a", "b")

	result := e.Enrich(context.Background(), []domain.ExtractedQuestion{classified, blank})

	if result[0].Subject != "Physics" || result[0].Difficulty != domain.DifficultyEasy {
		t.Error("pre-classified question must not be touched")
	}
	if result[1].Subject != "Mathematics" {
		t.Errorf("subject = %q", result[1].Subject)
	}
	if result[1].Difficulty != domain.DifficultyHard {
		t.Errorf("difficulty = %q", result[1].Difficulty)
	}
	if result[1].EstimatedSeconds != 150 {
		t.Errorf("estimatedSeconds = %d", result[1].EstimatedSeconds)
	}

	if fake.AssessCalls != 1 || fake.ClassifyCalls != 1 {
		t.Errorf("gateway calls: assess=%d classify=%d, want 1 each", fake.AssessCalls, fake.ClassifyCalls)
	}
}

func TestEnrichFallsBackOnGatewayFailure(t *testing.T) {
	fake := gateway.NewFakeGateway()
	fake.AssessFn = func(ctx context.Context, question string, options []string) (*domain.DifficultyAssessment, error) {
		return nil, domain.ModelUnavailableError("upstream down", nil)
	}
	fake.ClassifyFn = func(ctx context.Context, question string) (*domain.SubjectClassification, error) {
		return nil, domain.ModelUnavailableError("upstream down", nil)
	}

	e := NewEnricher(fake, observability.Nop())
	result := e.Enrich(context.Background(), []domain.ExtractedQuestion{question(1, 1, "q?", "a", "b")})

	if result[0].Difficulty != domain.DifficultyMedium {
		t.Errorf("difficulty fallback = %q, want medium", result[0].Difficulty)
	}
	if result[0].Subject != domain.DefaultSubject {
		t.Errorf("subject fallback = %q, want %q", result[0].Subject, domain.DefaultSubject)
	}
}
