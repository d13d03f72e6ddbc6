// Package ingest persists search results into the CRM off the request path.
//
// Each Enqueue creates an ingest task row in the pending state and hands the
// records to a fixed pool of workers. A worker upserts the batch and records
// the outcome (succeeded or failed, with the error text), so every deferred
// write is observable after the search response has been sent.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/leadbook/internal/model"
)

// TaskStore records task state.
type TaskStore interface {
	CreateIngestTask(ctx context.Context, task *model.IngestTask) error
	FinishIngestTask(ctx context.Context, id string, status model.IngestStatus, errText string) error
}

// Sink receives the records of a task.
type Sink interface {
	UpsertBusinesses(ctx context.Context, userID, category string, records []model.BusinessRecord) error
}

type Config struct {
	Workers   int
	QueueSize int
	// TaskTimeout bounds a single upsert.
	TaskTimeout time.Duration
}

// recordTimeout bounds writing a task's outcome. The outcome is written with
// a context detached from the upsert so an expired task can still be marked
// failed.
const recordTimeout = 5 * time.Second

type job struct {
	task    model.IngestTask
	records []model.BusinessRecord
}

// Queue is a bounded in-process work queue.
type Queue struct {
	tasks  TaskStore
	sink   Sink
	config Config
	logger *slog.Logger

	jobs      chan job
	wg        sync.WaitGroup
	mu        sync.RWMutex
	stopped   bool
	startOnce sync.Once
	stopOnce  sync.Once
}

func New(tasks TaskStore, sink Sink, cfg Config, logger *slog.Logger) *Queue {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = time.Minute
	}
	return &Queue{
		tasks:  tasks,
		sink:   sink,
		config: cfg,
		logger: logger,
		jobs:   make(chan job, cfg.QueueSize),
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (q *Queue) Start() {
	q.startOnce.Do(func() {
		q.logger.Info("starting ingest workers",
			slog.Int("workers", q.config.Workers),
			slog.Int("queueSize", q.config.QueueSize),
		)
		for i := 0; i < q.config.Workers; i++ {
			q.wg.Add(1)
			go q.worker(i)
		}
	})
}

// Stop refuses new work, lets the workers finish everything already queued
// and returns once they have exited.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.logger.Info("stopping ingest workers", slog.Int("queued", len(q.jobs)))
		q.mu.Lock()
		q.stopped = true
		close(q.jobs)
		q.mu.Unlock()
		q.wg.Wait()
	})
}

// Enqueue records a pending task and schedules it. It never blocks on a full
// queue: a task that cannot be scheduled is marked failed straight away and
// its ID is still returned so the caller can report it.
func (q *Queue) Enqueue(ctx context.Context, userID, category string, records []model.BusinessRecord) (string, error) {
	task := model.IngestTask{
		UserID:      userID,
		Category:    category,
		RecordCount: len(records),
	}
	if err := q.tasks.CreateIngestTask(ctx, &task); err != nil {
		return "", fmt.Errorf("ingest: creating task: %w", err)
	}

	q.mu.RLock()
	reason := ""
	if q.stopped {
		reason = "ingest queue stopped"
	} else {
		select {
		case q.jobs <- job{task: task, records: records}:
		default:
			reason = "ingest queue full"
		}
	}
	q.mu.RUnlock()

	if reason != "" {
		q.fail(ctx, task, reason)
	}
	return task.ID, nil
}

func (q *Queue) worker(n int) {
	defer q.wg.Done()

	for j := range q.jobs {
		q.run(j)
	}
	q.logger.Debug("ingest worker exited", slog.Int("worker", n))
}

func (q *Queue) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.config.TaskTimeout)
	defer cancel()

	start := time.Now()
	if err := q.sink.UpsertBusinesses(ctx, j.task.UserID, j.task.Category, j.records); err != nil {
		q.fail(ctx, j.task, err.Error())
		return
	}

	if err := q.finish(ctx, j.task.ID, model.IngestSucceeded, ""); err != nil {
		q.logger.Error("recording ingest success failed",
			slog.String("taskID", j.task.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	q.logger.Info("ingest task succeeded",
		slog.String("taskID", j.task.ID),
		slog.String("userID", j.task.UserID),
		slog.Int("records", len(j.records)),
		slog.Duration("duration", time.Since(start)),
	)
}

func (q *Queue) fail(ctx context.Context, task model.IngestTask, reason string) {
	q.logger.Error("ingest task failed",
		slog.String("taskID", task.ID),
		slog.String("userID", task.UserID),
		slog.String("error", reason),
	)
	if err := q.finish(ctx, task.ID, model.IngestFailed, reason); err != nil {
		q.logger.Error("recording ingest failure failed",
			slog.String("taskID", task.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (q *Queue) finish(ctx context.Context, id string, status model.IngestStatus, errText string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	return q.tasks.FinishIngestTask(ctx, id, status, errText)
}
