package jobs

import (
	"context"
	"time"

	"github.com/anjiri1684/tutor_connect/database"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type RatingAuditor interface {
	ReconcileTutorRatings(ctx context.Context) (int, error)
}

// RatingAudit recomputes every tutor's rating and review count from stored reviews and
// rewrites the rows that drifted.
type RatingAudit struct {
	store   RatingAuditor
	log     *zap.Logger
	timeout time.Duration
}

func NewRatingAudit(store RatingAuditor, log *zap.Logger) *RatingAudit {
	return &RatingAudit{store: store, log: log, timeout: 5 * time.Minute}
}

func (j *RatingAudit) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	if _, err := j.RunContext(ctx); err != nil {
		j.log.Error("rating audit failed", zap.Error(err))
	}
}

func (j *RatingAudit) RunContext(ctx context.Context) (int, error) {
	start := time.Now()
	fixed, err := j.store.ReconcileTutorRatings(ctx)
	if err != nil {
		return 0, err
	}
	if fixed > 0 {
		j.log.Warn("rating audit corrected drifted tutors", zap.Int("tutors", fixed), zap.Duration("took", time.Since(start)))
	} else {
		j.log.Debug("rating audit found no drift", zap.Duration("took", time.Since(start)))
	}
	return fixed, nil
}

// Schedule registers the audit on a new cron scheduler. The caller starts and stops it.
func Schedule(schedule string, store database.Store, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddJob(schedule, NewRatingAudit(store, log)); err != nil {
		return nil, err
	}
	return c, nil
}
