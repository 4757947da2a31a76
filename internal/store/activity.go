package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Activity is a completed quiz persisted for reload and re-export. Settings
// round-trip losslessly so a saved activity can seed a new generation job.
type Activity struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	Settings    json.RawMessage
	Questions   json.RawMessage
}

// ActivityRepo provides access to persisted quizzes.
type ActivityRepo interface {
	Save(ctx context.Context, a *Activity) error
	List(ctx context.Context, limit int) ([]Activity, error)
	Get(ctx context.Context, id string) (*Activity, error)
}

type activityRepo struct {
	db *sql.DB
}

func (r *activityRepo) Save(ctx context.Context, a *Activity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (id, title, description, settings, questions)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Description, string(a.Settings), string(a.Questions),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *activityRepo) List(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, created_at, settings, questions
		FROM activities ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (r *activityRepo) Get(ctx context.Context, id string) (*Activity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, created_at, settings, questions
		FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func scanActivity(row rowScanner) (*Activity, error) {
	var a Activity
	var settings, questions string
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.CreatedAt, &settings, &questions)
	if err != nil {
		return nil, err
	}
	a.Settings = json.RawMessage(settings)
	a.Questions = json.RawMessage(questions)
	return &a, nil
}
