package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/examforge/question-engine/internal/cache"
	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

// checkpointTTL bounds how long a mirrored checkpoint lives in Redis.
const checkpointTTL = 72 * time.Hour

// Checkpoint is the resumable snapshot of a job. It is written after every
// stage transition and after each analysis batch, overwriting the previous
// snapshot. Page images are not checkpointed; a resumed job re-renders them
// when needed.
type Checkpoint struct {
	Job       *domain.ProcessingJob      `json:"job"`
	Analyses  []domain.PageAnalysis      `json:"analyses,omitempty"`
	Structure *domain.DocumentStructure  `json:"structure,omitempty"`
	Questions []domain.ExtractedQuestion `json:"questions,omitempty"`
	SavedAt   time.Time                  `json:"savedAt"`
}

// Checkpointer persists job snapshots to the cache directory, mirrored to
// Redis when a client is configured.
type Checkpointer struct {
	dir    string
	mirror cache.Client
	logger *observability.Logger
}

// NewCheckpointer creates a checkpointer writing under dir. mirror may be
// nil to disable the Redis copy.
func NewCheckpointer(dir string, mirror cache.Client, logger *observability.Logger) *Checkpointer {
	return &Checkpointer{
		dir:    dir,
		mirror: mirror,
		logger: logger.WithComponent("checkpoint"),
	}
}

func (c *Checkpointer) path(jobID string) string {
	return filepath.Join(c.dir, fmt.Sprintf("checkpoint_%s.json", jobID))
}

func mirrorKey(jobID string) string {
	return "checkpoint:" + jobID
}

// Save writes the snapshot, replacing any previous one for the job. The
// file is the source of truth; a mirror failure is logged, never fatal.
func (c *Checkpointer) Save(ctx context.Context, cp *Checkpoint) error {
	cp.SavedAt = time.Now().UTC()

	data, err := json.Marshal(cp)
	if err != nil {
		return domain.IOError("marshal checkpoint", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return domain.IOError("create checkpoint directory", err)
	}

	path := c.path(cp.Job.ID.String())
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return domain.IOError("write checkpoint", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return domain.IOError("replace checkpoint", err)
	}

	if c.mirror != nil {
		if err := c.mirror.Set(ctx, mirrorKey(cp.Job.ID.String()), data, checkpointTTL); err != nil {
			c.logger.Warn().Err(err).Str("job_id", cp.Job.ID.String()).Msg("Checkpoint mirror failed")
		}
	}

	return nil
}

// Load reads the snapshot for a job from disk.
func (c *Checkpointer) Load(jobID string) (*Checkpoint, error) {
	data, err := os.ReadFile(c.path(jobID))
	if err != nil {
		return nil, domain.IOError("read checkpoint", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, domain.IOError("decode checkpoint", err)
	}
	if cp.Job == nil {
		return nil, domain.IOError("checkpoint missing job record", nil)
	}
	return &cp, nil
}

// Remove deletes the snapshot for a finished job.
func (c *Checkpointer) Remove(ctx context.Context, jobID string) {
	if err := os.Remove(c.path(jobID)); err != nil && !os.IsNotExist(err) {
		c.logger.Warn().Err(err).Str("job_id", jobID).Msg("Checkpoint removal failed")
	}
	if c.mirror != nil {
		if err := c.mirror.Delete(ctx, mirrorKey(jobID)); err != nil {
			c.logger.Warn().Err(err).Str("job_id", jobID).Msg("Checkpoint mirror removal failed")
		}
	}
}
