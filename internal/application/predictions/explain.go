package predictions

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	domain "github.com/bryanwahyu/heart-risk/internal/domain/predictions"
)

// ImportanceKind names how a classifier exposes per-feature importance.
type ImportanceKind int

const (
	Unsupported ImportanceKind = iota
	TreeImportance
	LinearCoefficient
)

func (k ImportanceKind) String() string {
	switch k {
	case TreeImportance:
		return "tree_importance"
	case LinearCoefficient:
		return "linear_coefficient"
	default:
		return "unsupported"
	}
}

// TreeImportances is implemented by tree-based classifiers.
type TreeImportances interface {
	FeatureImportances() ([]float64, error)
}

// LinearCoefficients is implemented by linear classifiers.
type LinearCoefficients interface {
	Coefficients() ([]float64, error)
}

// Introspectable is a pipeline whose stages can be inspected.
type Introspectable interface {
	FeatureNamesOut() ([]string, error)
	Estimator() any
}

// ImportanceKindOf reports which importance capability an estimator has.
func ImportanceKindOf(estimator any) ImportanceKind {
	switch estimator.(type) {
	case TreeImportances:
		return TreeImportance
	case LinearCoefficients:
		return LinearCoefficient
	default:
		return Unsupported
	}
}

// TopFeatures returns the limit most important features of model with
// display labels, most important first. Explanations are supplementary, so
// any failure yields an empty list instead of an error.
func TopFeatures(model any, limit int) []domain.FeatureImportance {
	top, err := rankFeatures(model, limit)
	if err != nil {
		zap.L().Warn("feature importance unavailable", zap.Error(err))
		return []domain.FeatureImportance{}
	}
	return top
}

func rankFeatures(model any, limit int) ([]domain.FeatureImportance, error) {
	if limit <= 0 {
		limit = domain.TopFeatureLimit
	}
	pipe, ok := model.(Introspectable)
	if !ok {
		return nil, eris.New("explain: model does not expose its stages")
	}

	scores, err := importances(pipe.Estimator())
	if err != nil {
		return nil, err
	}
	names, err := pipe.FeatureNamesOut()
	if err != nil {
		return nil, eris.Wrap(err, "explain: feature names")
	}
	if len(names) != len(scores) {
		return nil, eris.Errorf("explain: %d feature names for %d importances", len(names), len(scores))
	}

	ranked := make([]domain.FeatureImportance, len(names))
	for i, name := range names {
		ranked[i] = domain.FeatureImportance{Feature: name, Importance: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Feature = HumanReadable(ranked[i].Feature)
	}
	return ranked, nil
}

func importances(estimator any) ([]float64, error) {
	switch ImportanceKindOf(estimator) {
	case TreeImportance:
		scores, err := estimator.(TreeImportances).FeatureImportances()
		return scores, eris.Wrap(err, "explain: tree importances")
	case LinearCoefficient:
		coef, err := estimator.(LinearCoefficients).Coefficients()
		if err != nil {
			return nil, eris.Wrap(err, "explain: coefficients")
		}
		scores := make([]float64, len(coef))
		for i, c := range coef {
			scores[i] = math.Abs(c)
		}
		return scores, nil
	default:
		return nil, eris.Errorf("explain: estimator %T exposes no importances", estimator)
	}
}
