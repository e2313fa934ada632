package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

// Exporter serialises a taxonomy into the configured output formats.
type Exporter struct {
	outputDir string
	formats   []string
	logger    *observability.Logger
}

// NewExporter creates an exporter writing the given formats under outputDir.
func NewExporter(outputDir string, formats []string, logger *observability.Logger) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		formats:   formats,
		logger:    logger.WithComponent("export"),
	}
}

// Export writes every configured format and returns format -> output path.
// The json format produces both the raw database document and the
// app-facing document.
func (e *Exporter) Export(t *Taxonomy, sourceFile string) (map[string]string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return nil, domain.IOError("create output directory", err)
	}

	base := baseName(sourceFile)
	now := time.Now().UTC()
	outputs := make(map[string]string)

	for _, format := range e.formats {
		var err error
		switch format {
		case "json":
			rawPath := filepath.Join(e.outputDir, base+"_database.json")
			appPath := filepath.Join(e.outputDir, base+"_app.json")
			if err = WriteJSON(rawPath, BuildRawExport(t, sourceFile, now)); err == nil {
				err = WriteJSON(appPath, BuildAppExport(t))
			}
			outputs["json"] = rawPath
			outputs["json_app"] = appPath
		case "csv":
			path := filepath.Join(e.outputDir, base+".csv")
			err = WriteCSV(path, t.Questions)
			outputs["csv"] = path
		case "markdown":
			path := filepath.Join(e.outputDir, base+".md")
			err = WriteMarkdown(path, t)
			outputs["markdown"] = path
		case "excel":
			path := filepath.Join(e.outputDir, base+".xlsx")
			err = WriteExcel(path, t)
			outputs["excel"] = path
		default:
			err = domain.ConfigError(fmt.Sprintf("unknown output format %q", format), nil)
		}

		if err != nil {
			return outputs, err
		}

		e.logger.Info().
			Str("format", format).
			Int("questions", t.TotalQuestions()).
			Msg("Export written")
	}

	return outputs, nil
}
