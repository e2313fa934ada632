package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/pkg/engine"
)

var (
	processOutputDir string
	processFormats   []string
	processLanguages []string
	processMaxPages  int
	processDPI       int
	processQuiet     bool
)

var processCmd = &cobra.Command{
	Use:   "process <pdf>",
	Short: "Run the full extraction pipeline on a PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processOutputDir, "output-dir", "o", "", "output directory (overrides config)")
	processCmd.Flags().StringSliceVarP(&processFormats, "formats", "f", nil, "output formats: json, csv, excel, markdown")
	processCmd.Flags().StringSliceVarP(&processLanguages, "languages", "l", nil, "target translation languages")
	processCmd.Flags().IntVar(&processMaxPages, "max-pages", 0, "limit number of pages processed (0 = all)")
	processCmd.Flags().IntVar(&processDPI, "dpi", 0, "render resolution (overrides config)")
	processCmd.Flags().BoolVarP(&processQuiet, "quiet", "q", false, "suppress the progress bar")
}

func runProcess(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]

	if processOutputDir != "" {
		cfg.Export.OutputDir = processOutputDir
	}
	if len(processFormats) > 0 {
		cfg.Export.OutputFormats = processFormats
	}
	if len(processLanguages) > 0 {
		cfg.Translation.TargetLanguages = processLanguages
	}
	if processMaxPages > 0 {
		cfg.Pipeline.MaxPages = processMaxPages
	}
	if processDPI > 0 {
		cfg.Pipeline.DPI = processDPI
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Cyan("Processing %s", pdfPath)

	pending := eng.Orchestrator.ProcessAsync(pdfPath, 2*time.Hour)
	jobID := pending.ID.String()

	if !processQuiet {
		trackProgress(ctx, eng, jobID)
	}

	job, err := eng.WaitForTerminal(ctx, jobID, 250*time.Millisecond)
	if err != nil {
		return err
	}

	printSummary(job)
	if job.Status == domain.JobStatusFailed {
		return fmt.Errorf("job %s failed", jobID)
	}
	return nil
}

// trackProgress renders a progress bar until the job reaches a terminal
// state or the context is cancelled.
func trackProgress(ctx context.Context, eng *engine.Engine, jobID string) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("extracting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		job, ok := eng.Orchestrator.Job(jobID)
		if ok {
			bar.Describe(string(job.Stage))
			bar.Set(int(job.Progress))
			if job.Status.IsTerminal() {
				bar.Finish()
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func printSummary(job domain.ProcessingJob) {
	switch job.Status {
	case domain.JobStatusCompleted:
		color.Green("Completed: %d questions extracted", questionCount(job))
	case domain.JobStatusPartialFailure:
		color.Yellow("Completed with errors: %d questions extracted", questionCount(job))
	default:
		color.Red("Failed")
	}

	if job.Result != nil {
		for format, path := range job.Result.OutputFiles {
			fmt.Printf("  %-9s %s\n", format, path)
		}
	}

	warnings, errors := 0, 0
	for _, e := range job.Errors {
		if e.Severity == domain.SeverityWarning {
			warnings++
		} else {
			errors++
		}
	}
	if warnings+errors > 0 {
		fmt.Printf("  %d errors, %d warnings:\n", errors, warnings)
		for _, e := range job.Errors {
			line := fmt.Sprintf("    [%s] %s", e.Severity, e.Message)
			if e.Severity == domain.SeverityWarning {
				color.Yellow(line)
			} else {
				color.Red(line)
			}
		}
	}

	fmt.Printf("  pages: %d/%d  elapsed: %s\n",
		job.ProcessedPages, job.TotalPages, elapsed(job))
}

func questionCount(job domain.ProcessingJob) int {
	if job.Result == nil {
		return 0
	}
	return job.Result.QuestionCount
}

func elapsed(job domain.ProcessingJob) string {
	end := time.Now()
	if job.CompletedAt != nil {
		end = *job.CompletedAt
	}
	return end.Sub(job.StartedAt).Round(time.Second).String()
}
