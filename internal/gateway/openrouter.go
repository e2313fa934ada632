package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/examforge/question-engine/internal/domain"
)

// Wire shapes parsed from the model's free-text responses. Field names match
// what the prompts instruct the model to emit.

type pageAnalysisDTO struct {
	DocumentType  string           `json:"document_type"`
	Languages     []string         `json:"languages"`
	StructureType string           `json:"structure_type"`
	Elements      []pageElementDTO `json:"elements"`
	Scanned       bool             `json:"scanned"`
	Watermark     bool             `json:"watermark"`
	Orientation   string           `json:"orientation"`
}

type pageElementDTO struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type structureDTO struct {
	ExamName string     `json:"exam_name"`
	ExamType string     `json:"exam_type"`
	Year     int        `json:"year"`
	Papers   []paperDTO `json:"papers"`
}

type paperDTO struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Type          string       `json:"type"`
	StartPage     int          `json:"start_page"`
	EndPage       int          `json:"end_page"`
	Subjects      []string     `json:"subjects"`
	QuestionCount int          `json:"question_count"`
	Sections      []sectionDTO `json:"sections"`
}

type sectionDTO struct {
	Name          string `json:"name"`
	StartPage     int    `json:"start_page"`
	EndPage       int    `json:"end_page"`
	StartQuestion int    `json:"start_question"`
	EndQuestion   int    `json:"end_question"`
	Subject       string `json:"subject"`
}

type questionDTO struct {
	Number        int      `json:"number"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Subject       string   `json:"subject"`
	Topics        []string `json:"topics"`
	Difficulty    string   `json:"difficulty"`
	Marks         marksDTO `json:"marks"`
	Language      string   `json:"language"`
	Confidence    float64  `json:"confidence"`
}

type marksDTO struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
}

type difficultyDTO struct {
	Difficulty       string `json:"difficulty"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}

type subjectDTO struct {
	Subject string   `json:"subject"`
	Topics  []string `json:"topics"`
}

// AnalyzePage classifies one rendered page and lists its detected elements.
func (c *Client) AnalyzePage(ctx context.Context, image domain.PageImage) (*domain.PageAnalysis, error) {
	content, err := c.chat(ctx, visionMessage(analyzePagePrompt, image))
	if err != nil {
		return nil, err
	}

	var dto pageAnalysisDTO
	if err := decodeModelJSON(content, &dto); err != nil {
		return nil, err
	}

	analysis := &domain.PageAnalysis{
		PageNumber:    image.PageNumber,
		DocumentType:  dto.DocumentType,
		Languages:     dto.Languages,
		StructureType: domain.StructureType(dto.StructureType),
		Scanned:       dto.Scanned,
		Watermark:     dto.Watermark,
		Orientation:   dto.Orientation,
	}
	for _, el := range dto.Elements {
		analysis.Elements = append(analysis.Elements, domain.PageElement{
			Type:       domain.ElementType(el.Type),
			Text:       el.Text,
			Confidence: el.Confidence,
		})
	}

	c.logger.Debug().
		Int("page", image.PageNumber).
		Str("structure_type", string(analysis.StructureType)).
		Int("elements", len(analysis.Elements)).
		Msg("Analyzed page")

	return analysis, nil
}

// InferDocumentStructure derives the exam/paper/section hierarchy from the
// ordered, complete-as-possible set of page analyses.
func (c *Client) InferDocumentStructure(ctx context.Context, analyses []domain.PageAnalysis) (*domain.DocumentStructure, error) {
	summary, err := summarizeAnalyses(analyses)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(inferStructurePrompt, summary)
	content, err := c.chat(ctx, textMessage(prompt))
	if err != nil {
		return nil, err
	}

	var dto structureDTO
	if err := decodeModelJSON(content, &dto); err != nil {
		return nil, err
	}

	ds := &domain.DocumentStructure{
		ExamName: dto.ExamName,
		ExamType: dto.ExamType,
		Year:     dto.Year,
	}
	for _, p := range dto.Papers {
		paper := domain.PaperInfo{
			ID:            p.ID,
			Name:          p.Name,
			Type:          p.Type,
			StartPage:     p.StartPage,
			EndPage:       p.EndPage,
			Subjects:      p.Subjects,
			QuestionCount: p.QuestionCount,
		}
		for _, s := range p.Sections {
			paper.Sections = append(paper.Sections, domain.SectionInfo{
				Name:          s.Name,
				StartPage:     s.StartPage,
				EndPage:       s.EndPage,
				StartQuestion: s.StartQuestion,
				EndQuestion:   s.EndQuestion,
				Subject:       s.Subject,
			})
		}
		ds.Papers = append(ds.Papers, paper)
	}

	c.logger.Info().
		Str("exam_name", ds.ExamName).
		Int("papers", len(ds.Papers)).
		Msg("Inferred document structure")

	return ds, nil
}

// ExtractQuestions extracts raw questions from one page image. All memory of
// earlier pages arrives through ec.
func (c *Client) ExtractQuestions(ctx context.Context, image domain.PageImage, ec domain.ExtractionContext) ([]domain.ExtractedQuestion, error) {
	ctxText := formatExtractionContext(ec.ExamName, ec.ExamType, ec.Subject, ec.PreviousNumbers, ec.PriorPageTail)
	prompt := fmt.Sprintf(extractQuestionsPrompt, ctxText)

	content, err := c.chat(ctx, visionMessage(prompt, image))
	if err != nil {
		return nil, err
	}

	var dtos []questionDTO
	if err := decodeModelJSON(content, &dtos); err != nil {
		return nil, err
	}

	questions := make([]domain.ExtractedQuestion, 0, len(dtos))
	now := time.Now().UTC()
	for _, dto := range dtos {
		q := domain.ExtractedQuestion{
			ID:     uuid.New(),
			Number: dto.Number,
			Text: domain.LocalizedText{
				Original:       dto.Text,
				SourceLanguage: dto.Language,
			},
			CorrectAnswer: -1,
			Explanation: domain.LocalizedText{
				Original:       dto.Explanation,
				SourceLanguage: dto.Language,
			},
			Subject:    dto.Subject,
			Topics:     dto.Topics,
			Difficulty: domain.Difficulty(dto.Difficulty),
			Marks: domain.Marks{
				Positive: dto.Marks.Positive,
				Negative: dto.Marks.Negative,
			},
			Metadata: domain.QuestionMetadata{
				PageNumber:  image.PageNumber,
				ExamName:    ec.ExamName,
				ExamType:    ec.ExamType,
				Confidence:  dto.Confidence,
				ExtractedAt: now,
			},
		}
		for _, opt := range dto.Options {
			q.Options = append(q.Options, domain.LocalizedText{
				Original:       opt,
				SourceLanguage: dto.Language,
			})
		}
		if dto.CorrectAnswer != nil {
			q.CorrectAnswer = *dto.CorrectAnswer
		}
		questions = append(questions, q)
	}

	c.logger.Debug().
		Int("page", image.PageNumber).
		Int("questions", len(questions)).
		Msg("Extracted questions from page")

	return questions, nil
}

// Translate translates text between languages. contextHint carries optional
// subject/exam context for terminology.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang, contextHint string) (string, error) {
	hint := ""
	if contextHint != "" {
		hint = "Context: " + contextHint + "."
	}
	prompt := fmt.Sprintf(translatePrompt, sourceLang, targetLang, hint, text)

	content, err := c.chat(ctx, textMessage(prompt))
	if err != nil {
		return "", err
	}

	translated := stripFences(content)
	if strings.TrimSpace(translated) == "" {
		return "", domain.MalformedResponseError("empty translation response", nil)
	}
	return translated, nil
}

// Rephrase produces an original-wording rendition of an explanation.
func (c *Client) Rephrase(ctx context.Context, text, subject, style string) (string, error) {
	subjectLabel := subject
	if subjectLabel == "" {
		subjectLabel = "exam"
	}
	prompt := fmt.Sprintf(rephrasePrompt, subjectLabel, rephraseStyleClause(style), text)

	content, err := c.chat(ctx, textMessage(prompt))
	if err != nil {
		return "", err
	}

	rephrased := stripFences(content)
	if strings.TrimSpace(rephrased) == "" {
		return "", domain.MalformedResponseError("empty rephrase response", nil)
	}
	return rephrased, nil
}

// AssessDifficulty estimates a question's difficulty and time budget.
func (c *Client) AssessDifficulty(ctx context.Context, question string, options []string) (*domain.DifficultyAssessment, error) {
	var optLines strings.Builder
	for i, opt := range options {
		fmt.Fprintf(&optLines, "%c) %s\n", 'A'+i, opt)
	}
	prompt := fmt.Sprintf(assessDifficultyPrompt, question, optLines.String())

	content, err := c.chat(ctx, textMessage(prompt))
	if err != nil {
		return nil, err
	}

	var dto difficultyDTO
	if err := decodeModelJSON(content, &dto); err != nil {
		return nil, err
	}

	return &domain.DifficultyAssessment{
		Difficulty:       domain.Difficulty(dto.Difficulty),
		EstimatedSeconds: dto.EstimatedSeconds,
	}, nil
}

// ClassifySubject classifies a question's academic subject and topics.
func (c *Client) ClassifySubject(ctx context.Context, question string) (*domain.SubjectClassification, error) {
	prompt := fmt.Sprintf(classifySubjectPrompt, question)

	content, err := c.chat(ctx, textMessage(prompt))
	if err != nil {
		return nil, err
	}

	var dto subjectDTO
	if err := decodeModelJSON(content, &dto); err != nil {
		return nil, err
	}

	return &domain.SubjectClassification{
		Subject: dto.Subject,
		Topics:  dto.Topics,
	}, nil
}

// summarizeAnalyses renders page analyses as compact JSON lines for the
// structure-inference prompt. Image bytes never travel here.
func summarizeAnalyses(analyses []domain.PageAnalysis) (string, error) {
	type pageSummary struct {
		Page          int            `json:"page"`
		DocumentType  string         `json:"document_type"`
		StructureType string         `json:"structure_type"`
		Languages     []string       `json:"languages"`
		Headers       []string       `json:"headers,omitempty"`
		ElementCounts map[string]int `json:"element_counts"`
	}

	var b strings.Builder
	for _, a := range analyses {
		s := pageSummary{
			Page:          a.PageNumber,
			DocumentType:  a.DocumentType,
			StructureType: string(a.StructureType),
			Languages:     a.Languages,
			ElementCounts: map[string]int{},
		}
		for _, el := range a.Elements {
			s.ElementCounts[string(el.Type)]++
			if el.Type == domain.ElementHeader {
				s.Headers = append(s.Headers, el.Text)
			}
		}
		line, err := json.Marshal(s)
		if err != nil {
			return "", domain.ConversionError("failed to summarize page analysis", err)
		}
		b.Write(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}
