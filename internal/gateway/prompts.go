package gateway

import (
	"fmt"
	"strings"
)

// Named prompt templates, one per gateway operation. Each instructs the
// model to answer with bare JSON; the tolerant parser still accepts fenced
// output.

const analyzePagePrompt = `You are an exam-document analyst. Examine this scanned exam page image.

Return ONLY a JSON object with this structure:
{
  "document_type": "question_paper|answer_key|solved_paper|instructions|other",
  "languages": ["en", "hi"],
  "structure_type": "questions_only|questions_with_answers|answer_key|instructions|mixed",
  "elements": [
    {"type": "question_text|option|answer|explanation|header|instruction|diagram", "text": "...", "confidence": 0.0-1.0}
  ],
  "scanned": true|false,
  "watermark": true|false,
  "orientation": "portrait|landscape"
}

Rules:
- List every question, option, answer and explanation fragment visible on the page as an element, in reading order.
- Use ISO 639-1 language codes.
- Confidence reflects how legible the span is, not how confident you are in the classification.
- Return bare JSON with no commentary.`

const inferStructurePrompt = `You are an exam-document analyst. Below are per-page analyses of a complete exam PDF, in page order. Infer the document's hierarchy.

Return ONLY a JSON object:
{
  "exam_name": "...",
  "exam_type": "...",
  "year": 2024,
  "papers": [
    {
      "id": "paper-1",
      "name": "...",
      "type": "...",
      "start_page": 1,
      "end_page": 10,
      "subjects": ["Physics"],
      "question_count": 30,
      "sections": [
        {"name": "Section A", "start_page": 1, "end_page": 5, "start_question": 1, "end_question": 15, "subject": "Physics"}
      ]
    }
  ]
}

Rules:
- Paper page ranges must partition the document; section ranges must be non-overlapping and increasing within a paper.
- Use year 0 when no year is evident.
- Return bare JSON with no commentary.

Page analyses:
%s`

const extractQuestionsPrompt = `You are an exam question extractor. Extract every exam question visible on this page image.

Context: %s

Return ONLY a JSON array:
[
  {
    "number": 7,
    "text": "...",
    "options": ["...", "..."],
    "correct_answer": 0,
    "explanation": "...",
    "subject": "...",
    "topics": ["..."],
    "difficulty": "easy|medium|hard",
    "marks": {"positive": 4, "negative": 1},
    "language": "en",
    "confidence": 0.0-1.0
  }
]

Rules:
- correct_answer is the zero-based option index; use -1 when the page does not reveal the answer.
- If a question is cut off at the page boundary, return the visible fragment as-is; do not invent missing text or options.
- If options continue from a previous page with no new question number, emit them under the number from the context's previous numbers when evident, otherwise number 0.
- Omit difficulty, subject or explanation when not evident; never guess marks.
- Return bare JSON with no commentary. Return [] when the page has no questions.`

const translatePrompt = `Translate the following text from %s to %s. Preserve question numbering, option structure, mathematical notation and factual content exactly. %s

Return ONLY the translated text with no commentary.

Text:
%s`

const rephraseStyleAcademic = "Use precise academic language with formal terminology."
const rephraseStyleSimple = "Use short sentences and plain vocabulary a school student follows easily."
const rephraseStyleDetailed = "Expand the reasoning step by step, keeping every fact intact."

const rephrasePrompt = `Rewrite the following %s explanation so the wording is original while the meaning, facts and key terms are preserved. Change sentence structure; do not paraphrase word-by-word. %s

Return ONLY the rewritten text with no commentary.

Text:
%s`

const assessDifficultyPrompt = `You are an exam-content reviewer. Assess the difficulty of this question for its target exam population.

Question: %s
Options:
%s

Return ONLY a JSON object:
{"difficulty": "easy|medium|hard", "estimated_seconds": 90}`

const classifySubjectPrompt = `You are an exam-content reviewer. Classify the academic subject of this question.

Question: %s

Return ONLY a JSON object:
{"subject": "...", "topics": ["...", "..."]}`

// rephraseStyleClause maps a configured style to its prompt clause.
func rephraseStyleClause(style string) string {
	switch style {
	case "simple":
		return rephraseStyleSimple
	case "detailed":
		return rephraseStyleDetailed
	default:
		return rephraseStyleAcademic
	}
}

// formatExtractionContext renders the cross-page context passed explicitly
// into every extraction call.
func formatExtractionContext(examName, examType, subject string, previousNumbers []int, priorTail string) string {
	var b strings.Builder
	if examName != "" {
		fmt.Fprintf(&b, "Exam: %s. ", examName)
	}
	if examType != "" {
		fmt.Fprintf(&b, "Exam type: %s. ", examType)
	}
	if subject != "" {
		fmt.Fprintf(&b, "Subject: %s. ", subject)
	}
	if len(previousNumbers) > 0 {
		last := previousNumbers[len(previousNumbers)-1]
		fmt.Fprintf(&b, "Question numbers seen on earlier pages end at %d. ", last)
	}
	if priorTail != "" {
		fmt.Fprintf(&b, "The previous page ended with: %q. ", priorTail)
	}
	if b.Len() == 0 {
		return "First page of an unidentified exam document."
	}
	return strings.TrimSpace(b.String())
}
