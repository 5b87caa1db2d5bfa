package predictions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/heart-risk/internal/domain/predictions"
	"github.com/bryanwahyu/heart-risk/internal/features"
)

func validInput(t *testing.T, userID string) domain.Input {
	t.Helper()
	body := map[string]any{
		"age": 45.0, "sex": 0.0, "cp": 1.0, "trestbps": 120.0, "chol": 210.0, "fbs": 0.0,
		"restecg": 1.0, "thalach": 170.0, "exang": 0.0, "oldpeak": 0.4, "slope": 2.0, "ca": 0.0, "thal": 2.0,
	}
	if userID != "" {
		body["user_id"] = userID
	}
	in, err := domain.ParseInput(body)
	require.NoError(t, err)
	return in
}

func newService(m *fakeModel, repo domain.Repository) *Service {
	return &Service{
		Model: m,
		Repo:  repo,
		Clock: &tickClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func TestService_Predict_Records(t *testing.T) {
	m := &fakeModel{
		prob:      0.73,
		names:     []string{"num__age", "num__cp"},
		estimator: fakeTree{scores: []float64{0.4, 0.6}},
	}
	repo := &fakeRepo{}
	svc := newService(m, repo)

	res, err := svc.Predict(context.Background(), validInput(t, "patient-7"))
	require.NoError(t, err)
	assert.Equal(t, 0.73, res.Prob)
	assert.True(t, res.Stored)
	require.Len(t, res.TopFeatures, 2)
	assert.Equal(t, "Chest Pain Type", res.TopFeatures[0].Feature)

	require.Len(t, m.seen, 1)
	assert.Equal(t, features.AgeBinMiddle, m.seen[0].AgeBin)
	assert.InDelta(t, 170.0/45.0, m.seen[0].Numeric["hr_ratio"], 1e-12)

	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, "patient-7", rec.UserID)
	assert.Equal(t, 0.73, rec.Prob)
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
	assert.Equal(t, "patient-7", rec.Input["user_id"])
	assert.Equal(t, res.TopFeatures, rec.TopFeatures)
}

func TestService_Predict_AnonymousUser(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(&fakeModel{prob: 0.1, estimator: fakeEstimator{}}, repo)

	_, err := svc.Predict(context.Background(), validInput(t, ""))
	require.NoError(t, err)
	require.Len(t, repo.records, 1)
	assert.Equal(t, domain.DefaultUserID, repo.records[0].UserID)
}

func TestService_Predict_StoreFailureStillReturns(t *testing.T) {
	svc := newService(&fakeModel{prob: 0.5, estimator: fakeEstimator{}}, &fakeRepo{saveErr: errStoreDown})

	res, err := svc.Predict(context.Background(), validInput(t, "u"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Prob)
	assert.False(t, res.Stored)
	assert.NotNil(t, res.TopFeatures)
	assert.Empty(t, res.TopFeatures)
}

func TestService_Predict_NoStore(t *testing.T) {
	svc := newService(&fakeModel{prob: 0.2}, nil)

	res, err := svc.Predict(context.Background(), validInput(t, "u"))
	require.NoError(t, err)
	assert.False(t, res.Stored)
	assert.False(t, svc.StoreConnected())
	assert.True(t, svc.ModelLoaded())
}

func TestService_Predict_ModelError(t *testing.T) {
	svc := newService(&fakeModel{err: errors.New("bad vector")}, &fakeRepo{})

	_, err := svc.Predict(context.Background(), validInput(t, "u"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad vector")
}

func TestService_Predict_NoModel(t *testing.T) {
	svc := &Service{}
	_, err := svc.Predict(context.Background(), validInput(t, "u"))
	assert.Error(t, err)
	assert.False(t, svc.ModelLoaded())
}

func TestService_History(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(&fakeModel{prob: 0.3}, repo)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.Predict(ctx, validInput(t, "heavy"))
		require.NoError(t, err)
	}
	_, err := svc.Predict(ctx, validInput(t, "other"))
	require.NoError(t, err)

	recs, err := svc.History(ctx, "heavy", 0)
	require.NoError(t, err)
	require.Len(t, recs, domain.HistoryLimit)
	for i := 1; i < len(recs); i++ {
		assert.True(t, recs[i-1].Timestamp.After(recs[i].Timestamp), "record %d out of order", i)
	}

	recs, err = svc.History(ctx, "heavy", 5)
	require.NoError(t, err)
	assert.Len(t, recs, 5)

	recs, err = svc.History(ctx, "heavy", 500)
	require.NoError(t, err)
	assert.Len(t, recs, domain.HistoryLimit)
}

func TestService_History_Empty(t *testing.T) {
	svc := newService(&fakeModel{}, &fakeRepo{})

	recs, err := svc.History(context.Background(), "nobody", 0)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestService_History_NotAvailable(t *testing.T) {
	svc := newService(&fakeModel{}, nil)

	_, err := svc.History(context.Background(), "u", 0)
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
}

func TestService_History_QueryError(t *testing.T) {
	svc := newService(&fakeModel{}, &fakeRepo{findErr: fmt.Errorf("cursor: %w", errStoreDown)})

	_, err := svc.History(context.Background(), "u", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query history")
	assert.Contains(t, err.Error(), "store down")
}

func TestService_Predict_OverflowingFeaturesRejected(t *testing.T) {
	body := map[string]any{
		"age": 0.001, "sex": 1.0, "cp": 0.0, "trestbps": 120.0, "chol": 210.0, "fbs": 0.0,
		"restecg": 1.0, "thalach": 1e308, "exang": 0.0, "oldpeak": 1e308, "slope": 2.0, "ca": 0.0, "thal": 2.0,
		"user_id": "carol",
	}
	in, err := domain.ParseInput(body)
	require.NoError(t, err)

	m := &fakeModel{prob: 0.5}
	repo := &fakeRepo{}
	_, err = newService(m, repo).Predict(context.Background(), in)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.MsgOutOfRange, ve.Message)
	assert.Equal(t, []string{"hr_ratio", "oldpeak_ratio"}, ve.Fields)
	assert.Empty(t, m.seen)
	assert.Empty(t, repo.records)
}

func TestService_Predict_InvalidProbabilityNotStored(t *testing.T) {
	for _, prob := range []float64{math.NaN(), math.Inf(1), -0.1, 1.5} {
		t.Run(fmt.Sprint(prob), func(t *testing.T) {
			repo := &fakeRepo{}
			_, err := newService(&fakeModel{prob: prob}, repo).Predict(context.Background(), validInput(t, "u"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "outside [0, 1]")
			assert.Empty(t, repo.records)
		})
	}
}

// ctxRepo fails writes whose context is already done.
type ctxRepo struct{ fakeRepo }

func (r *ctxRepo) Save(ctx context.Context, rec *domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.fakeRepo.Save(ctx, rec)
}

func TestService_Predict_StoresAfterClientGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &ctxRepo{}
	res, err := newService(&fakeModel{prob: 0.4}, repo).Predict(ctx, validInput(t, "u"))
	require.NoError(t, err)
	assert.True(t, res.Stored)
	assert.Len(t, repo.records, 1)
}
