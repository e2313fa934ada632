package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/examforge/question-engine/internal/export"
	"github.com/examforge/question-engine/internal/observability"
	"github.com/examforge/question-engine/internal/store"
)

var (
	exportJobID     string
	exportFormats   []string
	exportOutputDir string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-export stored questions for a finished job",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportJobID, "job", "", "job id to export (required)")
	exportCmd.Flags().StringSliceVarP(&exportFormats, "formats", "f", nil, "output formats (overrides config)")
	exportCmd.Flags().StringVarP(&exportOutputDir, "output-dir", "o", "", "output directory (overrides config)")
	exportCmd.MarkFlagRequired("job")
}

func runExport(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	job, err := st.GetJob(ctx, exportJobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", exportJobID, err)
	}

	questions, err := st.ListQuestions(ctx, store.QuestionFilter{JobID: exportJobID})
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("job %s has no stored questions", exportJobID)
	}

	formats := cfg.Export.OutputFormats
	if len(exportFormats) > 0 {
		formats = exportFormats
	}
	outputDir := cfg.Export.OutputDir
	if exportOutputDir != "" {
		outputDir = exportOutputDir
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "question-engine",
	})

	// Document hierarchy is not persisted; a re-export groups by the flat
	// dimensions only.
	taxonomy := export.BuildTaxonomy(nil, questions)
	exporter := export.NewExporter(outputDir, formats, logger)

	outputs, err := exporter.Export(taxonomy, job.SourceFile)
	if err != nil {
		return err
	}

	color.Green("Exported %d questions", len(questions))
	for format, path := range outputs {
		fmt.Printf("  %-9s %s\n", format, path)
	}
	return nil
}
