package pipeline

import (
	"context"
	"log"

	"github.com/educast/educast/internal/db"
	"github.com/educast/educast/internal/models"
)

// DBSink persists progress to the jobs table. Write failures are logged and
// swallowed so a flaky database read path never kills a running job.
type DBSink struct {
	db *db.DB
}

func NewDBSink(database *db.DB) *DBSink {
	return &DBSink{db: database}
}

func (s *DBSink) Report(ctx context.Context, jobID, stage string, percent int, message string) {
	log.Printf("[Job %s] %s %d%%: %s", jobID, stage, percent, message)

	err := s.db.UpdateJobProgress(ctx, jobID, models.Progress{
		Stage:      stage,
		Percentage: percent,
		Message:    message,
	})
	if err != nil {
		log.Printf("[Job %s] progress write failed: %v", jobID, err)
	}
}
