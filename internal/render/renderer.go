// Package render converts exam PDFs into fixed-DPI page images.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

const jpegQuality = 85

// Renderer implements PDF to image conversion using go-fitz.
type Renderer struct {
	logger    *observability.Logger
	batchSize int
	doc       *fitz.Document
}

// NewRenderer creates a new page renderer. batchSize bounds how many pages
// are rasterized per batch; batching has no effect on output ordering.
func NewRenderer(logger *observability.Logger, batchSize int) *Renderer {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Renderer{
		logger:    logger.WithComponent("render"),
		batchSize: batchSize,
	}
}

// Render rasterizes the PDF at the given DPI into an ordered list of page
// images. maxPages <= 0 renders every page. Rendering failures are local and
// deterministic; they are reported, never retried.
func (r *Renderer) Render(ctx context.Context, pdfPath string, dpi, maxPages int) ([]domain.PageImage, error) {
	if err := ValidatePDF(pdfPath); err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = 300
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.ConversionError("failed to open PDF", err)
	}
	r.doc = doc

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.InvalidDocumentError("PDF has no pages", nil)
	}
	if maxPages > 0 && pageCount > maxPages {
		pageCount = maxPages
	}

	r.logger.Info().
		Str("pdf_path", pdfPath).
		Int("pages", pageCount).
		Int("dpi", dpi).
		Msg("Rendering PDF pages")

	images := make([]domain.PageImage, 0, pageCount)

	for batchStart := 0; batchStart < pageCount; batchStart += r.batchSize {
		batchEnd := batchStart + r.batchSize
		if batchEnd > pageCount {
			batchEnd = pageCount
		}

		for pageNum := batchStart; pageNum < batchEnd; pageNum++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			page, err := r.renderPage(pageNum, dpi)
			if err != nil {
				return nil, err
			}
			images = append(images, page)
		}

		r.logger.Debug().
			Int("batch_start", batchStart+1).
			Int("batch_end", batchEnd).
			Msg("Rendered page batch")
	}

	return images, nil
}

// renderPage rasterizes one zero-indexed page and encodes it as JPEG bytes.
func (r *Renderer) renderPage(pageNum, dpi int) (domain.PageImage, error) {
	img, err := r.doc.ImageDPI(pageNum, float64(dpi))
	if err != nil {
		return domain.PageImage{}, domain.ConversionError(
			fmt.Sprintf("failed to rasterize page %d", pageNum+1), err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return domain.PageImage{}, domain.ConversionError(
			fmt.Sprintf("failed to encode page %d", pageNum+1), err)
	}

	bounds := img.Bounds()
	return domain.PageImage{
		PageNumber: pageNum + 1,
		Data:       buf.Bytes(),
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		DPI:        dpi,
	}, nil
}

// Cleanup closes the underlying PDF document.
func (r *Renderer) Cleanup() error {
	if r.doc != nil {
		r.doc.Close()
		r.doc = nil
	}
	return nil
}
