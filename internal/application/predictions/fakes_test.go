package predictions

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	domain "github.com/bryanwahyu/heart-risk/internal/domain/predictions"
	"github.com/bryanwahyu/heart-risk/internal/features"
)

type fakeEstimator struct{}

type fakeTree struct {
	scores []float64
	err    error
}

func (f fakeTree) FeatureImportances() ([]float64, error) { return f.scores, f.err }

type fakeLinear struct{ coef []float64 }

func (f fakeLinear) Coefficients() ([]float64, error) { return f.coef, nil }

type fakeModel struct {
	prob      float64
	err       error
	names     []string
	namesErr  error
	estimator any
	seen      []features.Derived
}

func (m *fakeModel) PredictProbability(d features.Derived) (float64, error) {
	m.seen = append(m.seen, d)
	return m.prob, m.err
}

func (m *fakeModel) FeatureNamesOut() ([]string, error) { return m.names, m.namesErr }

func (m *fakeModel) Estimator() any { return m.estimator }

type fakeRepo struct {
	mu      sync.Mutex
	records []*domain.Record
	saveErr error
	findErr error
}

func (r *fakeRepo) Save(_ context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRepo) Recent(_ context.Context, userID string, limit int) ([]*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*domain.Record
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) EnsureIndexes(context.Context) error { return nil }

type tickClock struct{ t time.Time }

func (c *tickClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

var errStoreDown = errors.New("store down")
