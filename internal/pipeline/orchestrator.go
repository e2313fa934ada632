// Package pipeline drives a submitted PDF through rendering, analysis,
// extraction, translation, validation and export, tracking the job record
// and checkpointing after every stage.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/examforge/question-engine/internal/config"
	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/export"
	"github.com/examforge/question-engine/internal/extract"
	"github.com/examforge/question-engine/internal/observability"
	"github.com/examforge/question-engine/internal/render"
	"github.com/examforge/question-engine/internal/store"
	"github.com/examforge/question-engine/internal/translate"
)

// Stage completion marks on the 0-100 progress scale. Page analysis fills
// the span between rendering and analysis marks page by page.
var stageProgress = map[domain.Stage]float64{
	domain.StageIngestion:          5,
	domain.StagePageRendering:      15,
	domain.StageVLMAnalysis:        60,
	domain.StageStructureInference: 65,
	domain.StageQuestionExtraction: 80,
	domain.StageTranslation:        90,
	domain.StageValidation:         95,
	domain.StageExport:             100,
}

// Orchestrator owns job records and runs the extraction pipeline. All job
// mutation happens here; other components only ever read snapshots.
type Orchestrator struct {
	cfg         config.PipelineConfig
	translation config.TranslationConfig

	renderer    domain.Renderer
	gateway     domain.Gateway
	translator  *translate.Service
	exporter    *export.Exporter
	store       *store.Store
	checkpoints *Checkpointer
	logger      *observability.Logger

	mu   sync.RWMutex
	jobs map[string]*domain.ProcessingJob
}

// Options bundles the orchestrator's collaborators. Store may be nil when
// persistence is disabled.
type Options struct {
	Pipeline    config.PipelineConfig
	Translation config.TranslationConfig
	Renderer    domain.Renderer
	Gateway     domain.Gateway
	Translator  *translate.Service
	Exporter    *export.Exporter
	Store       *store.Store
	Checkpoints *Checkpointer
	Logger      *observability.Logger
}

// NewOrchestrator creates a pipeline orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	return &Orchestrator{
		cfg:         opts.Pipeline,
		translation: opts.Translation,
		renderer:    opts.Renderer,
		gateway:     opts.Gateway,
		translator:  opts.Translator,
		exporter:    opts.Exporter,
		store:       opts.Store,
		checkpoints: opts.Checkpoints,
		logger:      opts.Logger.WithComponent("pipeline"),
		jobs:        make(map[string]*domain.ProcessingJob),
	}
}

// Job returns a snapshot of the job record, or false if unknown.
func (o *Orchestrator) Job(id string) (domain.ProcessingJob, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	job, ok := o.jobs[id]
	if !ok {
		return domain.ProcessingJob{}, false
	}
	return snapshot(job), true
}

// Jobs returns snapshots of all known jobs, most recent first.
func (o *Orchestrator) Jobs() []domain.ProcessingJob {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]domain.ProcessingJob, 0, len(o.jobs))
	for _, job := range o.jobs {
		out = append(out, snapshot(job))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

func snapshot(job *domain.ProcessingJob) domain.ProcessingJob {
	cp := *job
	cp.Errors = append([]domain.ProcessingError(nil), job.Errors...)
	if job.Result != nil {
		r := *job.Result
		cp.Result = &r
	}
	return cp
}

// Process runs the full pipeline for one PDF and returns the terminal job
// record. The returned error is non-nil only when the job failed outright.
func (o *Orchestrator) Process(ctx context.Context, pdfPath string) (domain.ProcessingJob, error) {
	job := o.newJob(pdfPath)
	return o.processJob(ctx, job)
}

// ProcessAsync registers a job and runs it in the background, returning the
// pending job record immediately. Clients poll Job for progress.
func (o *Orchestrator) ProcessAsync(pdfPath string, timeout time.Duration) domain.ProcessingJob {
	job := o.newJob(pdfPath)
	pending := snapshot(job)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := o.processJob(ctx, job); err != nil {
			o.logger.Error().Err(err).Str("job_id", job.ID.String()).Msg("Background job failed")
		}
	}()

	return pending
}

func (o *Orchestrator) newJob(pdfPath string) *domain.ProcessingJob {
	job := &domain.ProcessingJob{
		ID:         uuid.New(),
		SourceFile: pdfPath,
		Status:     domain.JobStatusPending,
		Stage:      domain.StageIngestion,
		StartedAt:  time.Now().UTC(),
	}

	o.mu.Lock()
	o.jobs[job.ID.String()] = job
	o.mu.Unlock()

	return job
}

func (o *Orchestrator) processJob(ctx context.Context, job *domain.ProcessingJob) (domain.ProcessingJob, error) {
	logger := o.logger.WithJob(job.ID.String())
	logger.Info().Str("source", job.SourceFile).Msg("Job started")

	err := o.run(ctx, job, logger)
	if err != nil {
		o.mu.RLock()
		stage := job.Stage
		o.mu.RUnlock()
		o.addError(job, domain.ProcessingError{
			Stage:    stage,
			Message:  err.Error(),
			Severity: domain.SeverityCritical,
		})
		o.finish(ctx, job, domain.JobStatusFailed)
		logger.Error().Err(err).Msg("Job failed")
		return o.mustSnapshot(job.ID.String()), err
	}

	status := domain.JobStatusCompleted
	if hasErrorSeverity(job) {
		status = domain.JobStatusPartialFailure
	}
	o.finish(ctx, job, status)
	logger.Info().
		Str("status", string(status)).
		Int("questions", resultCount(job)).
		Msg("Job finished")
	return o.mustSnapshot(job.ID.String()), nil
}

func (o *Orchestrator) run(ctx context.Context, job *domain.ProcessingJob, logger *observability.Logger) error {
	// ingestion
	o.setStatus(job, domain.JobStatusProcessing)
	if err := render.ValidatePDF(job.SourceFile); err != nil {
		return err
	}
	o.completeStage(ctx, job, domain.StageIngestion, nil)

	// page rendering
	o.enterStage(job, domain.StagePageRendering)
	images, err := o.renderer.Render(ctx, job.SourceFile, o.cfg.DPI, o.cfg.MaxPages)
	if err != nil {
		return err
	}
	defer o.renderer.Cleanup()
	if len(images) == 0 {
		return domain.InvalidDocumentError("document has no pages", nil)
	}
	o.setTotalPages(job, len(images))
	o.completeStage(ctx, job, domain.StagePageRendering, nil)

	// page analysis
	o.enterStage(job, domain.StageVLMAnalysis)
	analyses, err := o.analyzePages(ctx, job, images, logger)
	if err != nil {
		return err
	}
	if len(analyses) == 0 {
		return domain.ModelUnavailableError("no pages could be analyzed", nil)
	}
	o.completeStage(ctx, job, domain.StageVLMAnalysis, &Checkpoint{Job: job, Analyses: analyses})

	// structure inference
	o.enterStage(job, domain.StageStructureInference)
	structure, err := o.gateway.InferDocumentStructure(ctx, analyses)
	if err != nil {
		o.addError(job, domain.ProcessingError{
			Stage:    domain.StageStructureInference,
			Message:  fmt.Sprintf("structure inference failed, continuing without hierarchy: %v", err),
			Severity: domain.SeverityWarning,
		})
		structure = nil
	}
	o.completeStage(ctx, job, domain.StageStructureInference, &Checkpoint{Job: job, Analyses: analyses, Structure: structure})

	// question extraction
	o.enterStage(job, domain.StageQuestionExtraction)
	questions := o.extractQuestions(ctx, job, images, analyses, structure, logger)
	o.completeStage(ctx, job, domain.StageQuestionExtraction, &Checkpoint{Job: job, Structure: structure, Questions: questions})

	// translation and rephrasing
	o.enterStage(job, domain.StageTranslation)
	o.translateQuestions(ctx, job, questions)
	o.completeStage(ctx, job, domain.StageTranslation, &Checkpoint{Job: job, Structure: structure, Questions: questions})

	// validation
	o.enterStage(job, domain.StageValidation)
	validator := extract.NewValidator(o.cfg.MinConfidenceScore, o.logger)
	kept, issues := validator.Validate(questions)
	for _, issue := range issues {
		o.addError(job, domain.ProcessingError{
			Stage:    domain.StageValidation,
			Message:  fmt.Sprintf("question %d: %s", issue.QuestionNumber, issue.Message),
			Severity: issue.Severity,
		})
	}
	o.completeStage(ctx, job, domain.StageValidation, &Checkpoint{Job: job, Structure: structure, Questions: kept})

	// export
	o.enterStage(job, domain.StageExport)
	taxonomy := export.BuildTaxonomy(structure, kept)
	outputs, err := o.exporter.Export(taxonomy, job.SourceFile)
	if err != nil {
		return err
	}

	if o.store != nil {
		if err := o.store.SaveQuestions(ctx, job.ID.String(), kept); err != nil {
			o.addError(job, domain.ProcessingError{
				Stage:    domain.StageExport,
				Message:  fmt.Sprintf("question store write failed: %v", err),
				Severity: domain.SeverityWarning,
			})
		}
	}

	o.mu.Lock()
	job.Result = &domain.JobResult{
		QuestionCount: len(kept),
		DroppedPages:  job.TotalPages - job.ProcessedPages,
		OutputFiles:   outputs,
	}
	o.mu.Unlock()
	o.completeStage(ctx, job, domain.StageExport, nil)

	return nil
}

// analyzePages runs page analysis in bounded concurrent batches. A page
// that exhausts its retries is recorded and dropped; only context
// cancellation aborts the stage.
func (o *Orchestrator) analyzePages(ctx context.Context, job *domain.ProcessingJob, images []domain.PageImage, logger *observability.Logger) ([]domain.PageAnalysis, error) {
	var (
		mu       sync.Mutex
		analyses []domain.PageAnalysis
	)

	base := stageProgress[domain.StagePageRendering]
	span := stageProgress[domain.StageVLMAnalysis] - base

	for start := 0; start < len(images); start += o.cfg.BatchSize {
		end := start + o.cfg.BatchSize
		if end > len(images) {
			end = len(images)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.cfg.MaxConcurrentPages)

		for _, img := range images[start:end] {
			img := img
			g.Go(func() error {
				analysis, err := o.analyzeWithRetry(gctx, img)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					o.addError(job, domain.ProcessingError{
						Stage:      domain.StageVLMAnalysis,
						PageNumber: img.PageNumber,
						Message:    fmt.Sprintf("page analysis failed after %d retries: %v", o.cfg.MaxPageRetries, err),
						Severity:   domain.SeverityError,
					})
					logger.Warn().Int("page", img.PageNumber).Err(err).Msg("Page dropped")
					return nil
				}

				mu.Lock()
				analyses = append(analyses, *analysis)
				done := len(analyses)
				mu.Unlock()

				o.markPageProcessed(job, base+span*float64(done)/float64(len(images)))
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		// a job interrupted mid-stage resumes from the last finished batch
		mu.Lock()
		done := append([]domain.PageAnalysis(nil), analyses...)
		mu.Unlock()
		sort.Slice(done, func(i, j int) bool { return done[i].PageNumber < done[j].PageNumber })
		o.saveCheckpoint(ctx, job, &Checkpoint{Job: job, Analyses: done})

		if end < len(images) && o.cfg.InterBatchPause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.cfg.InterBatchPause):
			}
		}
	}

	sort.Slice(analyses, func(i, j int) bool { return analyses[i].PageNumber < analyses[j].PageNumber })
	return analyses, nil
}

// analyzeWithRetry retries transient analysis failures with a progressively
// longer pause between attempts.
func (o *Orchestrator) analyzeWithRetry(ctx context.Context, img domain.PageImage) (*domain.PageAnalysis, error) {
	var lastErr error
	for attempt := 0; attempt <= o.cfg.MaxPageRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * o.cfg.RetryDelayStep):
			}
		}

		analysis, err := o.gateway.AnalyzePage(ctx, img)
		if err == nil {
			return analysis, nil
		}
		lastErr = err
		if !domain.IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

// questionBearing reports whether a page's analysis suggests it carries
// question content worth extracting.
func questionBearing(a domain.PageAnalysis) bool {
	switch a.StructureType {
	case domain.StructureQuestionsOnly, domain.StructureQuestionsAndAnswers, domain.StructureMixed:
		return true
	}
	for _, el := range a.Elements {
		if el.Type == domain.ElementQuestionText {
			return true
		}
	}
	return false
}

// priorTailLen bounds how much trailing text from the previous page is fed
// to extraction as continuation context.
const priorTailLen = 200

func pageTail(a domain.PageAnalysis) string {
	for i := len(a.Elements) - 1; i >= 0; i-- {
		text := strings.TrimSpace(a.Elements[i].Text)
		if text == "" {
			continue
		}
		if len(text) > priorTailLen {
			text = text[len(text)-priorTailLen:]
		}
		return text
	}
	return ""
}

// extractQuestions walks question-bearing pages in order, feeding each page
// the numbers and trailing text already seen, then stitches cross-page
// fragments and enriches the result.
func (o *Orchestrator) extractQuestions(ctx context.Context, job *domain.ProcessingJob, images []domain.PageImage, analyses []domain.PageAnalysis, structure *domain.DocumentStructure, logger *observability.Logger) []domain.ExtractedQuestion {
	byPage := make(map[int]domain.PageImage, len(images))
	for _, img := range images {
		byPage[img.PageNumber] = img
	}

	var index *domain.PageIndex
	examName, examType := "", ""
	if structure != nil {
		index = domain.BuildPageIndex(structure)
		examName = structure.ExamName
		examType = structure.ExamType
	}

	var (
		questions   []domain.ExtractedQuestion
		seenNumbers []int
		priorTail   string
	)

	for i, analysis := range analyses {
		if !questionBearing(analysis) {
			priorTail = ""
			continue
		}
		img, ok := byPage[analysis.PageNumber]
		if !ok {
			continue
		}

		ec := domain.ExtractionContext{
			ExamName:        examName,
			ExamType:        examType,
			PreviousNumbers: seenNumbers,
			PriorPageTail:   priorTail,
		}
		if index != nil {
			if loc, ok := index.Lookup(analysis.PageNumber); ok {
				ec.Subject = loc.Subject
			}
		}

		extracted, err := o.extractWithRetry(ctx, img, ec)
		if err != nil {
			o.addError(job, domain.ProcessingError{
				Stage:      domain.StageQuestionExtraction,
				PageNumber: analysis.PageNumber,
				Message:    fmt.Sprintf("question extraction failed: %v", err),
				Severity:   domain.SeverityError,
			})
			logger.Warn().Int("page", analysis.PageNumber).Err(err).Msg("Extraction failed for page")
		} else {
			for _, q := range extracted {
				seenNumbers = append(seenNumbers, q.Number)
			}
			questions = append(questions, extracted...)
		}

		priorTail = pageTail(analyses[i])
	}

	stitcher := extract.NewStitcher(o.logger)
	questions = stitcher.Stitch(questions)

	for _, missing := range extract.DetectNumberGaps(questions) {
		o.addError(job, domain.ProcessingError{
			Stage:    domain.StageQuestionExtraction,
			Message:  fmt.Sprintf("question %d missing from sequence", missing),
			Severity: domain.SeverityWarning,
		})
	}

	if structure != nil && index != nil {
		for i := range questions {
			if loc, ok := index.Lookup(questions[i].Metadata.PageNumber); ok {
				questions[i].Metadata.PaperID = loc.PaperID
				questions[i].Metadata.SectionName = loc.SectionName
				if questions[i].Subject == "" {
					questions[i].Subject = loc.Subject
				}
			}
			questions[i].Metadata.ExamName = structure.ExamName
			questions[i].Metadata.ExamType = structure.ExamType
			questions[i].Metadata.Year = structure.Year
		}
	}

	enricher := extract.NewEnricher(o.gateway, o.logger)
	return enricher.Enrich(ctx, questions)
}

func (o *Orchestrator) extractWithRetry(ctx context.Context, img domain.PageImage, ec domain.ExtractionContext) ([]domain.ExtractedQuestion, error) {
	var lastErr error
	for attempt := 0; attempt <= o.cfg.MaxPageRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * o.cfg.RetryDelayStep):
			}
		}

		questions, err := o.gateway.ExtractQuestions(ctx, img, ec)
		if err == nil {
			return questions, nil
		}
		lastErr = err
		if !domain.IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

// translateQuestions applies configured translations and rephrasing in
// place. Failures degrade to warnings; original text is always kept.
func (o *Orchestrator) translateQuestions(ctx context.Context, job *domain.ProcessingJob, questions []domain.ExtractedQuestion) {
	if o.translator == nil {
		return
	}

	for i := range questions {
		if len(o.translation.TargetLanguages) > 0 {
			for _, err := range o.translator.TranslateQuestion(ctx, &questions[i], o.translation.TargetLanguages) {
				o.addError(job, domain.ProcessingError{
					Stage:      domain.StageTranslation,
					PageNumber: questions[i].Metadata.PageNumber,
					Message:    err.Error(),
					Severity:   domain.SeverityWarning,
				})
			}
		}

		if o.translation.RephrasingEnabled {
			if err := o.translator.RephraseExplanation(ctx, &questions[i], o.translation.RephrasingStyle); err != nil {
				o.addError(job, domain.ProcessingError{
					Stage:      domain.StageTranslation,
					PageNumber: questions[i].Metadata.PageNumber,
					Message:    err.Error(),
					Severity:   domain.SeverityWarning,
				})
			}
		}
	}
}

// --- job record mutation ---

func (o *Orchestrator) setStatus(job *domain.ProcessingJob, status domain.JobStatus) {
	o.mu.Lock()
	job.Status = status
	o.mu.Unlock()
}

func (o *Orchestrator) enterStage(job *domain.ProcessingJob, stage domain.Stage) {
	o.mu.Lock()
	job.Stage = stage
	o.mu.Unlock()
}

// completeStage advances progress to the stage's mark and checkpoints. A
// nil checkpoint saves the job record alone.
func (o *Orchestrator) completeStage(ctx context.Context, job *domain.ProcessingJob, stage domain.Stage, cp *Checkpoint) {
	o.mu.Lock()
	if p := stageProgress[stage]; p > job.Progress {
		job.Progress = p
	}
	o.mu.Unlock()

	if cp == nil {
		cp = &Checkpoint{Job: job}
	}
	o.saveCheckpoint(ctx, job, cp)
}

// saveCheckpoint overwrites the job's snapshot. Failures are logged,
// never fatal.
func (o *Orchestrator) saveCheckpoint(ctx context.Context, job *domain.ProcessingJob, cp *Checkpoint) {
	if o.checkpoints == nil {
		return
	}
	o.mu.RLock()
	err := o.checkpoints.Save(ctx, cp)
	o.mu.RUnlock()
	if err != nil {
		o.logger.Warn().Err(err).Str("job_id", job.ID.String()).Msg("Checkpoint save failed")
	}
}

func (o *Orchestrator) setTotalPages(job *domain.ProcessingJob, n int) {
	o.mu.Lock()
	job.TotalPages = n
	o.mu.Unlock()
}

func (o *Orchestrator) markPageProcessed(job *domain.ProcessingJob, progress float64) {
	o.mu.Lock()
	job.ProcessedPages++
	if progress > job.Progress {
		job.Progress = progress
	}
	o.mu.Unlock()
}

func (o *Orchestrator) addError(job *domain.ProcessingJob, pe domain.ProcessingError) {
	pe.Timestamp = time.Now().UTC()
	o.mu.Lock()
	job.Errors = append(job.Errors, pe)
	o.mu.Unlock()
}

func (o *Orchestrator) finish(ctx context.Context, job *domain.ProcessingJob, status domain.JobStatus) {
	now := time.Now().UTC()
	o.mu.Lock()
	job.Status = status
	job.CompletedAt = &now
	if status == domain.JobStatusCompleted || status == domain.JobStatusPartialFailure {
		job.Progress = 100
	}
	o.mu.Unlock()

	if o.store != nil {
		o.mu.RLock()
		snap := snapshot(job)
		o.mu.RUnlock()
		if err := o.store.SaveJob(ctx, &snap); err != nil {
			o.logger.Warn().Err(err).Str("job_id", job.ID.String()).Msg("Job record save failed")
		}
	}
}

func (o *Orchestrator) mustSnapshot(id string) domain.ProcessingJob {
	snap, _ := o.Job(id)
	return snap
}

func hasErrorSeverity(job *domain.ProcessingJob) bool {
	for _, e := range job.Errors {
		if e.Severity == domain.SeverityError || e.Severity == domain.SeverityCritical {
			return true
		}
	}
	return false
}

func resultCount(job *domain.ProcessingJob) int {
	if job.Result == nil {
		return 0
	}
	return job.Result.QuestionCount
}
