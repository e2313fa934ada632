package gateway

import (
	"encoding/json"
	"strings"

	"github.com/examforge/question-engine/internal/domain"
)

// decodeModelJSON is the single tolerant-parse routine for structured model
// output. The model sometimes wraps its answer in a code fence or pads it
// with prose; this strips the wrapping, locates the JSON boundaries and
// unmarshals into v. Outright parse failure is a malformed_response error,
// never a silent default.
func decodeModelJSON(content string, v any) error {
	cleaned := extractJSON(content)
	if cleaned == "" {
		return domain.MalformedResponseError("no JSON found in model response", nil)
	}

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return domain.MalformedResponseError("failed to parse model JSON", err)
	}
	return nil
}

// extractJSON strips code fences and returns the outermost JSON value in
// content, or "" when none is present.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	objStart := strings.Index(content, "{")
	arrStart := strings.Index(content, "[")

	start, endCh := objStart, "}"
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, endCh = arrStart, "]"
	}
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(content, endCh)
	if end <= start {
		return ""
	}

	return content[start : end+1]
}

// stripFences removes code-fence wrapping from a plain-text model response,
// used for translation and rephrasing output.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	// drop a language tag on the opening fence
	if idx := strings.Index(content, "\n"); idx != -1 && idx < 20 {
		content = content[idx+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
