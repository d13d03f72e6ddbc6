package sqlstore

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/repository"
)

var _ repository.IngestTaskRepository = (*Store)(nil)

const ingestColumns = `id, user_id, category, record_count, status, error, created_at, finished_at`

func (s *Store) CreateIngestTask(ctx context.Context, task *model.IngestTask) error {
	task.ID = xid.New().String()
	task.CreatedAt = s.now()
	task.Status = model.IngestPending

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO ingest_tasks (`+ingestColumns+`)
		 VALUES (:id, :user_id, :category, :record_count, :status, :error, :created_at, :finished_at)`,
		task,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating ingest task: %w", err)
	}
	return nil
}

func (s *Store) FinishIngestTask(ctx context.Context, id string, status model.IngestStatus, errText string) error {
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE ingest_tasks SET status = ?, error = ?, finished_at = ? WHERE id = ?`),
		status, errText, s.now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: finishing ingest task %s: %w", id, err)
	}
	return expectOne(res, "ingest task", id)
}

func (s *Store) GetIngestTask(ctx context.Context, userID, id string) (*model.IngestTask, error) {
	var task model.IngestTask
	err := s.db.GetContext(ctx, &task, s.q(`SELECT `+ingestColumns+` FROM ingest_tasks WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("ingest task", id)
		}
		return nil, fmt.Errorf("sqlstore: getting ingest task %s: %w", id, err)
	}
	return &task, nil
}
