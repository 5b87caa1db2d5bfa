package predictions

import (
	"context"

	"github.com/bryanwahyu/heart-risk/internal/features"
)

// Repository port (persistence of prediction records)
type Repository interface {
	Save(ctx context.Context, r *Record) error
	// Recent returns the user's records, newest first, at most limit of them.
	Recent(ctx context.Context, userID string, limit int) ([]*Record, error)
	EnsureIndexes(ctx context.Context) error
}

// Model port (the loaded inference pipeline)
type Model interface {
	PredictProbability(d features.Derived) (float64, error)
}
