// Package translate provides memoized translation and rephrasing of question
// text via the model gateway.
package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/examforge/question-engine/internal/cache"
	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

// keyPrefixLen bounds how much text participates in the memo key. Long
// passages differing only past this prefix are rare in exam text, and the
// bound keeps keys cheap.
const keyPrefixLen = 64

// Style names for rephrasing. Selection is a pass-through configuration
// choice, never a pipeline decision.
const (
	StyleAcademic = "academic"
	StyleSimple   = "simple"
	StyleDetailed = "detailed"
)

// Service translates and rephrases text with memoized results: repeated
// calls for the same key never re-invoke the model.
type Service struct {
	gateway domain.Gateway
	memo    cache.Client
	ttl     time.Duration
	logger  *observability.Logger
}

// NewService creates a translation service backed by the given memo cache.
func NewService(gateway domain.Gateway, memo cache.Client, ttl time.Duration, logger *observability.Logger) *Service {
	if memo == nil {
		memo = cache.NewMemoryClient(0)
	}
	return &Service{
		gateway: gateway,
		memo:    memo,
		ttl:     ttl,
		logger:  logger.WithComponent("translate"),
	}
}

// Translate translates text between languages, memoized on
// (sourceLang, targetLang, text prefix).
func (s *Service) Translate(ctx context.Context, text, sourceLang, targetLang, contextHint string) (string, error) {
	if text == "" {
		return "", nil
	}

	key := memoKey("tr", sourceLang, targetLang, text)
	if cached, err := s.memo.Get(ctx, key); err == nil {
		return string(cached), nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Msg("Translation memo lookup failed")
	}

	translated, err := s.gateway.Translate(ctx, text, sourceLang, targetLang, contextHint)
	if err != nil {
		return "", err
	}

	if err := s.memo.Set(ctx, key, []byte(translated), s.ttl); err != nil {
		s.logger.Warn().Err(err).Msg("Translation memo store failed")
	}
	return translated, nil
}

// Rephrase produces a lexically distinct, semantically equivalent rendition
// of text, memoized on (text prefix, style).
func (s *Service) Rephrase(ctx context.Context, text, subject, style string) (string, error) {
	if text == "" {
		return "", nil
	}

	key := memoKey("rp", style, "", text)
	if cached, err := s.memo.Get(ctx, key); err == nil {
		return string(cached), nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Msg("Rephrase memo lookup failed")
	}

	rephrased, err := s.gateway.Rephrase(ctx, text, subject, style)
	if err != nil {
		return "", err
	}

	if err := s.memo.Set(ctx, key, []byte(rephrased), s.ttl); err != nil {
		s.logger.Warn().Err(err).Msg("Rephrase memo store failed")
	}
	return rephrased, nil
}

// TranslateQuestion translates a question's text, options and explanation
// into each target language, in place. Option count and question number are
// never altered. Per-field failures are reported but do not stop the rest
// of the question.
func (s *Service) TranslateQuestion(ctx context.Context, q *domain.ExtractedQuestion, targetLangs []string) []error {
	var errs []error

	sourceLang := q.Text.SourceLanguage
	if sourceLang == "" {
		sourceLang = "en"
	}
	hint := q.Subject

	for _, lang := range targetLangs {
		if lang == sourceLang {
			continue
		}

		if translated, err := s.Translate(ctx, q.Text.Original, sourceLang, lang, hint); err != nil {
			errs = append(errs, fmt.Errorf("question %d text to %s: %w", q.Number, lang, err))
		} else if translated != "" {
			q.Text.SetTranslation(lang, translated)
		}

		for i := range q.Options {
			if translated, err := s.Translate(ctx, q.Options[i].Original, sourceLang, lang, hint); err != nil {
				errs = append(errs, fmt.Errorf("question %d option %d to %s: %w", q.Number, i, lang, err))
			} else if translated != "" {
				q.Options[i].SetTranslation(lang, translated)
			}
		}

		if q.Explanation.Original != "" {
			if translated, err := s.Translate(ctx, q.Explanation.Original, sourceLang, lang, hint); err != nil {
				errs = append(errs, fmt.Errorf("question %d explanation to %s: %w", q.Number, lang, err))
			} else if translated != "" {
				q.Explanation.SetTranslation(lang, translated)
			}
		}
	}

	return errs
}

// RephraseExplanation replaces the question's explanation with an
// original-wording rendition in the configured style.
func (s *Service) RephraseExplanation(ctx context.Context, q *domain.ExtractedQuestion, style string) error {
	if q.Explanation.Original == "" {
		return nil
	}

	rephrased, err := s.Rephrase(ctx, q.Explanation.Original, q.Subject, style)
	if err != nil {
		return fmt.Errorf("question %d explanation rephrase: %w", q.Number, err)
	}
	if rephrased != "" {
		q.Explanation.Original = rephrased
	}
	return nil
}

// memoKey builds a stable cache key from the operation, language pair or
// style, and a bounded text prefix.
func memoKey(op, a, b, text string) string {
	prefix := text
	if len(prefix) > keyPrefixLen {
		prefix = prefix[:keyPrefixLen]
	}
	sum := sha256.Sum256([]byte(op + "|" + a + "|" + b + "|" + prefix))
	return op + ":" + hex.EncodeToString(sum[:16])
}
