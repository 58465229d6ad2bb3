package sweeper

import (
	"context"
	"time"

	"go-classhub/internal/config"
	"go-classhub/internal/features/file"
	"go-classhub/internal/features/request"
	"go-classhub/internal/features/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = 2 * time.Minute

// Sweeper periodically reconciles the storage areas against the database.
// Orphans are only ever reported: a quarantine object no pending request
// references, or a published object no file row references, is logged at
// error level and left on disk for an operator to inspect.
type Sweeper struct {
	requests  request.Repository
	files     file.Repository
	areas     storage.AreaManager
	logger    *zap.Logger
	schedule  string
	scheduler *cron.Cron
}

func NewSweeper(requests request.Repository, files file.Repository, areas storage.AreaManager, cfg *config.Config, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		requests: requests,
		files:    files,
		areas:    areas,
		logger:   logger,
		schedule: cfg.SweepSchedule,
	}
}

func (s *Sweeper) Start() error {
	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.scheduler.Start()
	s.logger.Info("storage sweeper started", zap.String("schedule", s.schedule))
	return nil
}

func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	s.sweepQuarantine(ctx)
	s.sweepPublished(ctx)
}

func (s *Sweeper) sweepQuarantine(ctx context.Context) {
	keys, err := s.areas.QuarantineKeys()
	if err != nil {
		s.logger.Error("listing quarantine area", zap.Error(err))
		return
	}
	for _, key := range keys {
		req, err := s.requests.FindByQuarantineKey(ctx, key)
		if err == nil && req.Status == request.StatusPending {
			continue
		}
		s.logger.Error("orphaned quarantine object",
			zap.String("object_key", key))
	}
}

func (s *Sweeper) sweepPublished(ctx context.Context) {
	partitions, err := s.areas.PublishedKeys()
	if err != nil {
		s.logger.Error("listing published area", zap.Error(err))
		return
	}
	for classID, keys := range partitions {
		for _, key := range keys {
			exists, err := s.files.ExistsByObjectKey(ctx, classID, key)
			if err != nil {
				s.logger.Error("checking published object",
					zap.String("object_key", key),
					zap.Error(err))
				continue
			}
			if !exists {
				s.logger.Error("orphaned published object",
					zap.String("class_id", classID),
					zap.String("object_key", key))
			}
		}
	}
}
