package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/examforge/question-engine/internal/domain"
)

// pdfSignature is the magic prefix every PDF file starts with.
var pdfSignature = []byte("%PDF-")

// ValidatePDF validates that a path points to a readable PDF file. A failed
// signature check is fatal for the whole job, so it surfaces as an
// invalid_document error.
func ValidatePDF(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	defer file.Close()

	return ValidateSignature(file)
}

// ValidateSignature checks the %PDF- magic bytes at the start of r.
func ValidateSignature(r io.Reader) error {
	header := make([]byte, len(pdfSignature))
	if _, err := io.ReadFull(r, header); err != nil {
		return domain.InvalidDocumentError("file too short to be a PDF", err)
	}
	if !bytes.Equal(header, pdfSignature) {
		return domain.InvalidDocumentError("missing PDF signature", nil)
	}
	return nil
}
