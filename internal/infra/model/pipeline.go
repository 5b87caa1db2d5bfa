package model

import (
	"github.com/rotisserie/eris"

	"github.com/bryanwahyu/heart-risk/internal/features"
)

// Pipeline is a loaded preprocessing + classifier artifact. It is read-only
// after construction and safe for concurrent use.
type Pipeline struct {
	prep      *ColumnTransformer
	estimator Estimator
}

// New validates an artifact and builds its pipeline.
func New(art Artifact) (*Pipeline, error) {
	if art.Format != "" && art.Format != FormatV1 {
		return nil, eris.Errorf("unsupported artifact format %q", art.Format)
	}
	if len(art.Classes) != 2 {
		return nil, eris.Errorf("want a binary classifier, got %d classes", len(art.Classes))
	}
	prep, err := newColumnTransformer(art.Prep)
	if err != nil {
		return nil, err
	}
	est, err := newEstimator(art.Model, len(prep.names))
	if err != nil {
		return nil, err
	}
	return &Pipeline{prep: prep, estimator: est}, nil
}

// PredictProbability returns the probability of the positive class, the
// second column of the two-class output.
func (p *Pipeline) PredictProbability(d features.Derived) (float64, error) {
	x, err := p.prep.Transform(d)
	if err != nil {
		return 0, err
	}
	proba, err := p.estimator.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if len(proba) != 2 {
		return 0, eris.Errorf("model: got %d class probabilities, want 2", len(proba))
	}
	return proba[1], nil
}

// FeatureNamesOut returns the names of the transformed features.
func (p *Pipeline) FeatureNamesOut() ([]string, error) {
	return p.prep.FeatureNamesOut(), nil
}

// Estimator exposes the classifier stage for introspection.
func (p *Pipeline) Estimator() any {
	return p.estimator
}
