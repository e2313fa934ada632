package extract

import (
	"context"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

// Enricher backfills difficulty and subject metadata for questions the
// extraction pass left unclassified. Enrichment failures fall back to
// documented defaults rather than aborting.
type Enricher struct {
	gateway domain.Gateway
	logger  *observability.Logger
}

// NewEnricher creates a new enricher.
func NewEnricher(gateway domain.Gateway, logger *observability.Logger) *Enricher {
	return &Enricher{
		gateway: gateway,
		logger:  logger.WithComponent("enricher"),
	}
}

// Enrich fills missing difficulty and subject classifications in place.
func (e *Enricher) Enrich(ctx context.Context, questions []domain.ExtractedQuestion) []domain.ExtractedQuestion {
	for i := range questions {
		q := &questions[i]

		if q.Difficulty == "" {
			e.assessDifficulty(ctx, q)
		}
		if q.Subject == "" {
			e.classifySubject(ctx, q)
		}
	}
	return questions
}

func (e *Enricher) assessDifficulty(ctx context.Context, q *domain.ExtractedQuestion) {
	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = opt.Original
	}

	assessment, err := e.gateway.AssessDifficulty(ctx, q.Text.Original, options)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Int("number", q.Number).
			Msg("Difficulty assessment failed, falling back to medium")
		q.Difficulty = domain.DifficultyMedium
		return
	}

	q.Difficulty = assessment.Difficulty
	if q.Difficulty == "" {
		q.Difficulty = domain.DifficultyMedium
	}
	if q.EstimatedSeconds == 0 {
		q.EstimatedSeconds = assessment.EstimatedSeconds
	}
}

func (e *Enricher) classifySubject(ctx context.Context, q *domain.ExtractedQuestion) {
	classification, err := e.gateway.ClassifySubject(ctx, q.Text.Original)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Int("number", q.Number).
			Msg("Subject classification failed, falling back to default")
		q.Subject = domain.DefaultSubject
		return
	}

	q.Subject = classification.Subject
	if q.Subject == "" {
		q.Subject = domain.DefaultSubject
	}
	if len(q.Topics) == 0 {
		q.Topics = classification.Topics
	}
}
