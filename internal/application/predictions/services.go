package predictions

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bryanwahyu/heart-risk/internal/application"
	domain "github.com/bryanwahyu/heart-risk/internal/domain/predictions"
	"github.com/bryanwahyu/heart-risk/internal/features"
)

// DefaultStoreTimeout bounds one store round-trip when StoreTimeout is unset.
const DefaultStoreTimeout = 5 * time.Second

// Service implements the prediction use-cases. It is built once at startup
// and is safe for concurrent use.
type Service struct {
	Model domain.Model
	// Repo is nil when the store could not be reached at startup.
	Repo         domain.Repository
	Clock        application.Clock
	StoreTimeout time.Duration
}

// PredictResult is what a caller of Predict gets back.
type PredictResult struct {
	Prob        float64                    `json:"prob"`
	TopFeatures []domain.FeatureImportance `json:"top_features"`
	// Stored reports whether the record reached the store.
	Stored bool `json:"-"`
}

// Predict scores a validated input, explains the model and records the
// prediction. A failed write is logged and does not fail the prediction.
func (s *Service) Predict(ctx context.Context, in domain.Input) (PredictResult, error) {
	if s.Model == nil {
		return PredictResult{}, eris.New("model not loaded")
	}
	derived, err := features.Derive(in.Values)
	if err != nil {
		return PredictResult{}, eris.Wrap(err, "derive features")
	}
	if bad := derived.NonFinite(); len(bad) > 0 {
		return PredictResult{}, &domain.ValidationError{Message: domain.MsgOutOfRange, Fields: bad}
	}
	prob, err := s.Model.PredictProbability(derived)
	if err != nil {
		return PredictResult{}, eris.Wrap(err, "predict")
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return PredictResult{}, eris.Errorf("predict: probability %v outside [0, 1]", prob)
	}
	top := TopFeatures(s.Model, domain.TopFeatureLimit)

	rec := &domain.Record{
		UserID:      in.UserID,
		Timestamp:   s.now(),
		Input:       in.Raw,
		Prob:        prob,
		TopFeatures: top,
	}
	return PredictResult{Prob: prob, TopFeatures: top, Stored: s.record(ctx, rec)}, nil
}

func (s *Service) record(ctx context.Context, rec *domain.Record) bool {
	if s.Repo == nil {
		return false
	}
	// a completed prediction is recorded even if the client has gone away
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout())
	defer cancel()
	if err := s.Repo.Save(ctx, rec); err != nil {
		zap.L().Warn("prediction not stored",
			zap.String("user_id", rec.UserID),
			zap.Error(err),
		)
		return false
	}
	return true
}

// History returns the user's most recent predictions, newest first.
// limit is clamped to [1, HistoryLimit]; zero means HistoryLimit.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*domain.Record, error) {
	if s.Repo == nil {
		return nil, domain.ErrNotAvailable
	}
	if limit <= 0 || limit > domain.HistoryLimit {
		limit = domain.HistoryLimit
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	defer cancel()

	recs, err := s.Repo.Recent(ctx, userID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "query history")
	}
	if recs == nil {
		recs = []*domain.Record{}
	}
	return recs, nil
}

// ModelLoaded reports whether a model is attached.
func (s *Service) ModelLoaded() bool { return s.Model != nil }

// StoreConnected reports whether predictions are being persisted.
func (s *Service) StoreConnected() bool { return s.Repo != nil }

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *Service) storeTimeout() time.Duration {
	if s.StoreTimeout <= 0 {
		return DefaultStoreTimeout
	}
	return s.StoreTimeout
}
