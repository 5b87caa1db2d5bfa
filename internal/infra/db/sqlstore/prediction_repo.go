package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	domain "github.com/bryanwahyu/heart-risk/internal/domain/predictions"
)

// PredictionRepository stores prediction records in a SQL table.
type PredictionRepository struct {
	db      *sql.DB
	dialect dialect
}

func NewPredictionRepository(db *sql.DB, driver string) (*PredictionRepository, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &PredictionRepository{db: db, dialect: d}, nil
}

// EnsureIndexes creates the predictions table and its (user_id, created_at) index.
func (r *PredictionRepository) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range r.dialect.migration {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "%s: migrate", r.dialect.name)
		}
	}
	return nil
}

// Save inserts a record under a fresh id.
func (r *PredictionRepository) Save(ctx context.Context, rec *domain.Record) error {
	input, err := json.Marshal(rec.Input)
	if err != nil {
		return eris.Wrapf(err, "%s: marshal input", r.dialect.name)
	}
	top := rec.TopFeatures
	if top == nil {
		top = []domain.FeatureImportance{}
	}
	topJSON, err := json.Marshal(top)
	if err != nil {
		return eris.Wrapf(err, "%s: marshal top features", r.dialect.name)
	}

	const q = `INSERT INTO predictions (id, user_id, created_at, input, prob, top_features) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, r.dialect.rebind(q),
		uuid.New().String(), rec.UserID, r.dialect.timeArg(rec.Timestamp), string(input), rec.Prob, string(topJSON),
	)
	return eris.Wrapf(err, "%s: insert prediction", r.dialect.name)
}

// Recent returns up to limit records for userID, newest first.
func (r *PredictionRepository) Recent(ctx context.Context, userID string, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = domain.HistoryLimit
	}
	const q = `
SELECT user_id, created_at, input, prob, top_features
FROM predictions
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q), userID, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: query predictions", r.dialect.name)
	}
	defer rows.Close()

	out := []*domain.Record{}
	for rows.Next() {
		var (
			rec      domain.Record
			ts       scanTime
			input    []byte
			features []byte
		)
		if err := rows.Scan(&rec.UserID, &ts, &input, &rec.Prob, &features); err != nil {
			return nil, eris.Wrapf(err, "%s: scan prediction", r.dialect.name)
		}
		rec.Timestamp = ts.Time
		if err := json.Unmarshal(input, &rec.Input); err != nil {
			return nil, eris.Wrapf(err, "%s: decode input", r.dialect.name)
		}
		if err := json.Unmarshal(features, &rec.TopFeatures); err != nil {
			return nil, eris.Wrapf(err, "%s: decode top features", r.dialect.name)
		}
		out = append(out, &rec)
	}
	return out, eris.Wrapf(rows.Err(), "%s: iterate predictions", r.dialect.name)
}
