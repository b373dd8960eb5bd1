package db

import (
	"context"
	"encoding/json"
	"fmt"

	"ghlsync/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries wraps database queries
type Queries struct {
	*pgxpool.Pool
}

// NewQueries creates a new Queries instance
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{Pool: pool}
}

// Form queries

func (q *Queries) CreateForm(ctx context.Context, title string, fields []model.FormField) (*model.Form, error) {
	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form fields: %w", err)
	}

	f := model.Form{Title: title, Fields: fields}
	err = q.Pool.QueryRow(ctx,
		"INSERT INTO forms (title, fields) VALUES ($1, $2) RETURNING id, created_at",
		title, encoded,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (q *Queries) GetFormByID(ctx context.Context, id int64) (*model.Form, error) {
	var f model.Form
	var fields []byte
	err := q.Pool.QueryRow(ctx,
		"SELECT id, title, fields, created_at FROM forms WHERE id = $1",
		id,
	).Scan(&f.ID, &f.Title, &fields, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &f.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode form fields: %w", err)
	}
	return &f, nil
}

// Feed queries

func (q *Queries) CreateFeed(ctx context.Context, formID int64, name string, meta model.FeedMeta) (*model.Feed, error) {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feed meta: %w", err)
	}

	f := model.Feed{FormID: formID, Name: name, IsActive: true, Meta: meta}
	err = q.Pool.QueryRow(ctx,
		`INSERT INTO feeds (form_id, name, is_active, meta) VALUES ($1, $2, true, $3)
		RETURNING id, created_at, updated_at`,
		formID, name, encoded,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (q *Queries) GetFeedByID(ctx context.Context, id int64) (*model.Feed, error) {
	var f model.Feed
	var meta []byte
	err := q.Pool.QueryRow(ctx,
		"SELECT id, form_id, name, is_active, meta, created_at, updated_at FROM feeds WHERE id = $1",
		id,
	).Scan(&f.ID, &f.FormID, &f.Name, &f.IsActive, &meta, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(meta, &f.Meta); err != nil {
		return nil, fmt.Errorf("failed to decode feed meta: %w", err)
	}
	return &f, nil
}

func (q *Queries) UpdateFeed(ctx context.Context, id int64, name string, isActive bool, meta model.FeedMeta) (*model.Feed, error) {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feed meta: %w", err)
	}

	f := model.Feed{ID: id, Name: name, IsActive: isActive, Meta: meta}
	err = q.Pool.QueryRow(ctx,
		`UPDATE feeds SET name = $2, is_active = $3, meta = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING form_id, created_at, updated_at`,
		id, name, isActive, encoded,
	).Scan(&f.FormID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (q *Queries) ListFeedsByForm(ctx context.Context, formID int64) ([]*model.Feed, error) {
	rows, err := q.Pool.Query(ctx,
		"SELECT id, form_id, name, is_active, meta, created_at, updated_at FROM feeds WHERE form_id = $1 ORDER BY id",
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeeds(rows)
}

func (q *Queries) ListActiveFeedsByForm(ctx context.Context, formID int64) ([]*model.Feed, error) {
	rows, err := q.Pool.Query(ctx,
		"SELECT id, form_id, name, is_active, meta, created_at, updated_at FROM feeds WHERE form_id = $1 AND is_active ORDER BY id",
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeeds(rows)
}

func scanFeeds(rows pgx.Rows) ([]*model.Feed, error) {
	var feeds []*model.Feed
	for rows.Next() {
		var f model.Feed
		var meta []byte
		if err := rows.Scan(&f.ID, &f.FormID, &f.Name, &f.IsActive, &meta, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &f.Meta); err != nil {
			return nil, fmt.Errorf("failed to decode feed meta: %w", err)
		}
		feeds = append(feeds, &f)
	}
	return feeds, rows.Err()
}

// Submission queries

func (q *Queries) CreateSubmission(ctx context.Context, formID int64, values map[string]string) (*model.Submission, error) {
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission values: %w", err)
	}

	s := model.Submission{FormID: formID, Values: values, Meta: map[string]string{}}
	err = q.Pool.QueryRow(ctx,
		"INSERT INTO submissions (form_id, field_values) VALUES ($1, $2) RETURNING id, created_at",
		formID, encoded,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSubmissionByID loads a submission together with its metadata map.
func (q *Queries) GetSubmissionByID(ctx context.Context, id int64) (*model.Submission, error) {
	var s model.Submission
	var values []byte
	err := q.Pool.QueryRow(ctx,
		"SELECT id, form_id, field_values, created_at FROM submissions WHERE id = $1",
		id,
	).Scan(&s.ID, &s.FormID, &values, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(values, &s.Values); err != nil {
		return nil, fmt.Errorf("failed to decode submission values: %w", err)
	}

	s.Meta, err = q.GetSubmissionMeta(ctx, id)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Submission metadata queries

func (q *Queries) GetSubmissionMeta(ctx context.Context, submissionID int64) (map[string]string, error) {
	rows, err := q.Pool.Query(ctx,
		"SELECT key, value FROM submission_meta WHERE submission_id = $1",
		submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

// SetSubmissionMeta upserts one metadata key for a submission.
func (q *Queries) SetSubmissionMeta(ctx context.Context, submissionID int64, key, value string) error {
	_, err := q.Pool.Exec(ctx,
		`INSERT INTO submission_meta (submission_id, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (submission_id, key) DO UPDATE SET value = EXCLUDED.value`,
		submissionID, key, value,
	)
	return err
}
