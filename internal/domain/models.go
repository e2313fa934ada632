package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a processing job.
type JobStatus string

const (
	JobStatusPending        JobStatus = "pending"
	JobStatusProcessing     JobStatus = "processing"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusPartialFailure JobStatus = "partial_failure"
	JobStatusFailed         JobStatus = "failed"
)

// IsTerminal reports whether the status is a final state.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusPartialFailure || s == JobStatusFailed
}

// Stage identifies a pipeline stage. Stages advance strictly forward.
type Stage string

const (
	StageIngestion          Stage = "ingestion"
	StagePageRendering      Stage = "page_rendering"
	StageVLMAnalysis        Stage = "vlm_analysis"
	StageStructureInference Stage = "structure_inference"
	StageQuestionExtraction Stage = "question_extraction"
	StageTranslation        Stage = "translation"
	StageValidation         Stage = "validation"
	StageExport             Stage = "export"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{
	StageIngestion,
	StagePageRendering,
	StageVLMAnalysis,
	StageStructureInference,
	StageQuestionExtraction,
	StageTranslation,
	StageValidation,
	StageExport,
}

// Severity classifies a recorded processing error.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// ProcessingError is one entry on a job's append-only error list.
type ProcessingError struct {
	Stage      Stage     `json:"stage"`
	PageNumber int       `json:"pageNumber,omitempty"` // 0 when not page-scoped
	Message    string    `json:"message"`
	Severity   Severity  `json:"severity"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProcessingJob is the job record for one submitted PDF. It is owned and
// mutated exclusively by the pipeline orchestrator.
type ProcessingJob struct {
	ID             uuid.UUID         `json:"jobId"`
	SourceFile     string            `json:"sourceFile"`
	Status         JobStatus         `json:"status"`
	Stage          Stage             `json:"currentStage"`
	Progress       float64           `json:"progress"` // 0-100, monotonically increasing
	TotalPages     int               `json:"totalPages"`
	ProcessedPages int               `json:"processedPages"`
	StartedAt      time.Time         `json:"startedAt"`
	CompletedAt    *time.Time        `json:"completedAt,omitempty"`
	Errors         []ProcessingError `json:"errors"`
	Result         *JobResult        `json:"result,omitempty"`
}

// JobResult summarises a terminal job's output.
type JobResult struct {
	QuestionCount int               `json:"questionCount"`
	DroppedPages  int               `json:"droppedPages"`
	OutputFiles   map[string]string `json:"outputFiles,omitempty"` // format -> path
}

// PageImage represents a single rendered PDF page. Immutable once produced.
type PageImage struct {
	PageNumber int
	Data       []byte
	Width      int
	Height     int
	DPI        int
}

// ElementType classifies a detected span of page content.
type ElementType string

const (
	ElementQuestionText ElementType = "question_text"
	ElementOption       ElementType = "option"
	ElementAnswer       ElementType = "answer"
	ElementExplanation  ElementType = "explanation"
	ElementHeader       ElementType = "header"
	ElementInstruction  ElementType = "instruction"
	ElementDiagram      ElementType = "diagram"
)

// PageElement is a typed span of text detected on a page.
type PageElement struct {
	Type       ElementType `json:"type"`
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
}

// StructureType classifies the overall layout of a page.
type StructureType string

const (
	StructureQuestionsOnly       StructureType = "questions_only"
	StructureQuestionsAndAnswers StructureType = "questions_with_answers"
	StructureAnswerKey           StructureType = "answer_key"
	StructureInstructions        StructureType = "instructions"
	StructureMixed               StructureType = "mixed"
)

// PageAnalysis is the structured description of one rendered page.
// Produced once per page by the model gateway; immutable.
type PageAnalysis struct {
	PageNumber    int           `json:"pageNumber"`
	DocumentType  string        `json:"documentType"`
	Languages     []string      `json:"languages"`
	StructureType StructureType `json:"structureType"`
	Elements      []PageElement `json:"elements"`
	Scanned       bool          `json:"scanned"`
	Watermark     bool          `json:"watermark"`
	Orientation   string        `json:"orientation"`
}

// SectionInfo describes one section within a paper.
type SectionInfo struct {
	Name          string `json:"name"`
	StartPage     int    `json:"startPage"`
	EndPage       int    `json:"endPage"`
	StartQuestion int    `json:"startQuestion"`
	EndQuestion   int    `json:"endQuestion"`
	Subject       string `json:"subject"`
}

// PaperInfo describes one paper within the exam document.
type PaperInfo struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Type          string        `json:"type"`
	StartPage     int           `json:"startPage"`
	EndPage       int           `json:"endPage"`
	Subjects      []string      `json:"subjects"`
	QuestionCount int           `json:"questionCount"`
	Sections      []SectionInfo `json:"sections"`
}

// DocumentStructure is the inferred exam -> paper -> section hierarchy.
// Produced once after all page analyses are available; read-only thereafter.
type DocumentStructure struct {
	ExamName string      `json:"examName"`
	ExamType string      `json:"examType"`
	Year     int         `json:"year"`
	Papers   []PaperInfo `json:"papers"`
}

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultSubject is the enrichment fallback when subject classification fails.
const DefaultSubject = "General"

// LocalizedText carries an original text plus any translations keyed by
// target language code.
type LocalizedText struct {
	Original       string            `json:"original"`
	SourceLanguage string            `json:"sourceLanguage,omitempty"`
	Translations   map[string]string `json:"translations,omitempty"`
}

// SetTranslation records a translation for the given language.
func (t *LocalizedText) SetTranslation(lang, text string) {
	if t.Translations == nil {
		t.Translations = make(map[string]string)
	}
	t.Translations[lang] = text
}

// Resolve returns the translation for lang, falling back to the original.
func (t LocalizedText) Resolve(lang string) string {
	if v, ok := t.Translations[lang]; ok && v != "" {
		return v
	}
	return t.Original
}

// Marks holds the positive/negative marking scheme for a question. Preserved
// verbatim through export for the downstream scoring layer.
type Marks struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
}

// QuestionMetadata carries per-question provenance.
type QuestionMetadata struct {
	PageNumber  int       `json:"pageNumber"`
	PaperID     string    `json:"paperId,omitempty"`
	SectionName string    `json:"sectionName,omitempty"`
	ExamName    string    `json:"examName,omitempty"`
	ExamType    string    `json:"examType,omitempty"`
	Year        int       `json:"year,omitempty"`
	Confidence  float64   `json:"confidence"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// ExtractedQuestion is a single exam question. Created by the extractor,
// mutated during stitching and enrichment, frozen after validation.
type ExtractedQuestion struct {
	ID               uuid.UUID        `json:"id"`
	Number           int              `json:"number"`
	Text             LocalizedText    `json:"text"`
	Options          []LocalizedText  `json:"options"`
	CorrectAnswer    int              `json:"correctAnswer"` // zero-based option index, -1 when unknown
	Explanation      LocalizedText    `json:"explanation"`
	Subject          string           `json:"subject"`
	Topics           []string         `json:"topics,omitempty"`
	Difficulty       Difficulty       `json:"difficulty,omitempty"`
	EstimatedSeconds int              `json:"estimatedSeconds,omitempty"`
	Marks            Marks            `json:"marks"`
	Metadata         QuestionMetadata `json:"metadata"`
}

// sentence terminators accepted when judging question completeness
const sentenceTerminators = ".?!:;)]\"'"

// IsComplete reports whether the question looks whole: at least two options
// and text ending in a sentence terminator.
func (q *ExtractedQuestion) IsComplete() bool {
	if len(q.Options) < 2 {
		return false
	}
	text := strings.TrimSpace(q.Text.Original)
	if text == "" {
		return false
	}
	return strings.ContainsRune(sentenceTerminators, rune(text[len(text)-1]))
}

// CategoryType identifies a taxonomy dimension.
type CategoryType string

const (
	CategoryExamType   CategoryType = "exam_type"
	CategoryPaperType  CategoryType = "paper_type"
	CategorySection    CategoryType = "section"
	CategorySubject    CategoryType = "subject"
	CategoryTopic      CategoryType = "topic"
	CategoryYear       CategoryType = "year"
	CategoryDifficulty CategoryType = "difficulty"
	CategorySource     CategoryType = "source"
)

// CategoryMetadata carries counts and provenance for a taxonomy node.
type CategoryMetadata struct {
	QuestionCount int    `json:"questionCount"`
	Source        string `json:"source,omitempty"`
}

// QuestionCategory is one node in the export taxonomy. Questions are
// referenced by identifier, never owned; a question may appear in several
// categories.
type QuestionCategory struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Type          CategoryType        `json:"type"`
	Metadata      CategoryMetadata    `json:"metadata"`
	QuestionIDs   []string            `json:"questionIds"`
	Subcategories []*QuestionCategory `json:"subcategories,omitempty"`
}

// AddQuestion appends a question id, keeping first-appearance order.
func (c *QuestionCategory) AddQuestion(id string) {
	for _, existing := range c.QuestionIDs {
		if existing == id {
			return
		}
	}
	c.QuestionIDs = append(c.QuestionIDs, id)
	c.Metadata.QuestionCount = len(c.QuestionIDs)
}
