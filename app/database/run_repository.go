package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ RunRepository = (*RunRepo)(nil)

type RunRepo struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) StartRun(siteName string, startedAt time.Time) (string, error) {
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO runs (id, site_name, status, started_at)
		VALUES (?, ?, ?, ?)
	`, id, siteName, RunStatusRunning, formatTime(startedAt))
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	return id, nil
}

func (r *RunRepo) FinishRun(runID string, finishedAt time.Time, stats RunStats) error {
	_, err := r.db.Exec(`
		UPDATE runs
		SET status = ?, finished_at = ?, posts_seen = ?, posts_skipped = ?,
			items_emitted = ?, items_skipped = ?, output_path = ?, error = ?
		WHERE id = ?
	`, stats.Status, formatTime(finishedAt), stats.PostsSeen, stats.PostsSkipped,
		stats.ItemsEmitted, stats.ItemsSkipped, stats.OutputPath, stats.Error, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return nil
}

func (r *RunRepo) GetLatestRun(siteName string) (*Run, error) {
	runs, err := r.GetRecentRuns(siteName, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func (r *RunRepo) GetRecentRuns(siteName string, limit int) ([]Run, error) {
	rows, err := r.db.Query(`
		SELECT id, site_name, status, started_at, finished_at, posts_seen, posts_skipped,
			items_emitted, items_skipped, output_path, error
		FROM runs
		WHERE site_name = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, siteName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var status, startedAt string
		var finishedAt sql.NullString

		if err := rows.Scan(&run.ID, &run.SiteName, &status, &startedAt, &finishedAt,
			&run.PostsSeen, &run.PostsSkipped, &run.ItemsEmitted, &run.ItemsSkipped,
			&run.OutputPath, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Status = RunStatus(status)

		started, err := parseTime(sql.NullString{String: startedAt, Valid: true})
		if err != nil {
			return nil, err
		}
		run.StartedAt = *started

		if run.FinishedAt, err = parseTime(finishedAt); err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

func (r *RunRepo) GetRunCount(siteName string) (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE site_name = ?`, siteName).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}
