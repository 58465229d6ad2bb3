package accesslog

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Recorder decouples download responses from access logging. Record never
// blocks: entries go through a buffered channel to a background worker, and
// a full buffer drops the entry rather than delaying the download.
type Recorder interface {
	Record(entry Entry)
}

type AsyncRecorder struct {
	repo    Repository
	logger  *zap.Logger
	entries chan Entry
}

func NewRecorder(repo Repository, logger *zap.Logger) Recorder {
	r := &AsyncRecorder{
		repo:    repo,
		logger:  logger,
		entries: make(chan Entry, 1000),
	}
	go r.process()
	return r
}

func (r *AsyncRecorder) Record(entry Entry) {
	select {
	case r.entries <- entry:
	default:
		r.logger.Warn("access log buffer full, dropping entry",
			zap.String("file_id", entry.FileID.Hex()))
	}
}

func (r *AsyncRecorder) process() {
	for entry := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.repo.Insert(ctx, &entry); err != nil {
			// A failed access log must never fail a download.
			r.logger.Error("recording access log entry", zap.Error(err))
		}
		cancel()
	}
}
