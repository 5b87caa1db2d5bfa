package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// Estimator is the classifier stage of a pipeline.
type Estimator interface {
	// PredictProba returns one probability per class, in artifact class order.
	PredictProba(x []float64) ([]float64, error)
}

func newEstimator(spec EstimatorSpec, nFeatures int) (Estimator, error) {
	switch spec.Kind {
	case KindLogisticRegression:
		return newLogisticRegression(spec, nFeatures)
	case KindDecisionTree, KindRandomForest:
		return newForest(spec, nFeatures)
	case KindDummy:
		if len(spec.ClassPrior) != 2 {
			return nil, eris.Errorf("dummy: want 2 class priors, got %d", len(spec.ClassPrior))
		}
		return &Prior{prior: append([]float64(nil), spec.ClassPrior...)}, nil
	default:
		return nil, eris.Errorf("unknown estimator kind %q", spec.Kind)
	}
}

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	coef      []float64
	intercept float64
}

func newLogisticRegression(spec EstimatorSpec, nFeatures int) (*LogisticRegression, error) {
	if len(spec.Coef) != 1 {
		return nil, eris.Errorf("logistic_regression: want 1 coefficient row, got %d", len(spec.Coef))
	}
	if len(spec.Coef[0]) != nFeatures {
		return nil, eris.Errorf("logistic_regression: %d coefficients for %d features", len(spec.Coef[0]), nFeatures)
	}
	if len(spec.Intercept) != 1 {
		return nil, eris.Errorf("logistic_regression: want 1 intercept, got %d", len(spec.Intercept))
	}
	return &LogisticRegression{
		coef:      append([]float64(nil), spec.Coef[0]...),
		intercept: spec.Intercept[0],
	}, nil
}

func (m *LogisticRegression) PredictProba(x []float64) ([]float64, error) {
	if len(x) != len(m.coef) {
		return nil, eris.Errorf("logistic_regression: got %d features, want %d", len(x), len(m.coef))
	}
	z := m.intercept
	for i, w := range m.coef {
		z += w * x[i]
	}
	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}, nil
}

// Coefficients returns the signed weights of the positive class.
func (m *LogisticRegression) Coefficients() ([]float64, error) {
	return append([]float64(nil), m.coef...), nil
}

// Forest is a decision tree or an averaged ensemble of them.
type Forest struct {
	trees       [][]TreeNode
	importances []float64
	nFeatures   int
}

func newForest(spec EstimatorSpec, nFeatures int) (*Forest, error) {
	if len(spec.Trees) == 0 {
		return nil, eris.Errorf("%s: no trees", spec.Kind)
	}
	if spec.Kind == KindDecisionTree && len(spec.Trees) != 1 {
		return nil, eris.Errorf("decision_tree: want 1 tree, got %d", len(spec.Trees))
	}
	for ti, nodes := range spec.Trees {
		if len(nodes) == 0 {
			return nil, eris.Errorf("%s: tree %d is empty", spec.Kind, ti)
		}
		for ni, n := range nodes {
			if n.isLeaf() {
				if len(n.Value) != 2 {
					return nil, eris.Errorf("%s: tree %d leaf %d has %d class values", spec.Kind, ti, ni, len(n.Value))
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= nFeatures {
				return nil, eris.Errorf("%s: tree %d node %d splits on feature %d of %d", spec.Kind, ti, ni, n.Feature, nFeatures)
			}
			if n.Left <= ni || n.Left >= len(nodes) || n.Right <= ni || n.Right >= len(nodes) {
				return nil, eris.Errorf("%s: tree %d node %d has invalid children", spec.Kind, ti, ni)
			}
		}
	}
	if n := len(spec.FeatureImportances); n != 0 && n != nFeatures {
		return nil, eris.Errorf("%s: %d feature importances for %d features", spec.Kind, n, nFeatures)
	}
	return &Forest{
		trees:       spec.Trees,
		importances: spec.FeatureImportances,
		nFeatures:   nFeatures,
	}, nil
}

func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.nFeatures {
		return nil, eris.Errorf("forest: got %d features, want %d", len(x), f.nFeatures)
	}
	out := make([]float64, 2)
	for _, nodes := range f.trees {
		leaf := nodes[0]
		for i := 0; !leaf.isLeaf(); i++ {
			// children always follow their parent, so a walk is bounded by the node count
			if i >= len(nodes) {
				return nil, eris.New("forest: tree walk did not terminate")
			}
			if x[leaf.Feature] <= leaf.Threshold {
				leaf = nodes[leaf.Left]
			} else {
				leaf = nodes[leaf.Right]
			}
		}
		total := leaf.Value[0] + leaf.Value[1]
		if total <= 0 {
			return nil, eris.New("forest: empty leaf")
		}
		out[0] += leaf.Value[0] / total
		out[1] += leaf.Value[1] / total
	}
	n := float64(len(f.trees))
	out[0] /= n
	out[1] /= n
	return out, nil
}

// FeatureImportances returns the exported importances, or the mean decrease
// in impurity computed from node statistics when none were exported.
func (f *Forest) FeatureImportances() ([]float64, error) {
	if len(f.importances) > 0 {
		return append([]float64(nil), f.importances...), nil
	}
	total := make([]float64, f.nFeatures)
	for _, nodes := range f.trees {
		imp := make([]float64, f.nFeatures)
		for _, n := range nodes {
			if n.isLeaf() {
				continue
			}
			l, r := nodes[n.Left], nodes[n.Right]
			imp[n.Feature] += n.Samples*n.Impurity - l.Samples*l.Impurity - r.Samples*r.Impurity
		}
		normalize(imp)
		for i, v := range imp {
			total[i] += v
		}
	}
	for i := range total {
		total[i] /= float64(len(f.trees))
	}
	if !normalize(total) {
		return nil, eris.New("forest: node statistics carry no impurity decrease")
	}
	return total, nil
}

// Prior predicts the training class distribution regardless of input.
type Prior struct {
	prior []float64
}

func (p *Prior) PredictProba(_ []float64) ([]float64, error) {
	total := p.prior[0] + p.prior[1]
	if total <= 0 {
		return nil, eris.New("dummy: class priors sum to zero")
	}
	return []float64{p.prior[0] / total, p.prior[1] / total}, nil
}

func normalize(v []float64) bool {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum <= 0 {
		return false
	}
	for i := range v {
		v[i] /= sum
	}
	return true
}
