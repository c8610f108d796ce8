package history

import (
	"context"

	"github.com/ltpboard/ltpboard/internal/scheduler"
)

// Recorder writes every completed refresh cycle to the repository. It is a
// scheduler.Sink.
type Recorder struct {
	repo *Repository
}

// NewRecorder creates a new history recorder
func NewRecorder(repo *Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Consume records the cycle's portfolio summaries.
func (r *Recorder) Consume(ctx context.Context, c scheduler.Cycle) error {
	return r.repo.Record(ctx, c.ID, c.FinishedAt, c.Metrics)
}
