package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
)

// DefaultPath is where serve and score expect the exported pipeline.
const DefaultPath = "model.json"

// FormatV1 identifies the JSON export of a scikit-learn
// Pipeline(prep=ColumnTransformer, model=<classifier>).
const FormatV1 = "sklearn-pipeline/v1"

// Transformer kinds.
const (
	KindStandardScaler = "standard_scaler"
	KindOneHot         = "one_hot"
	KindPassthrough    = "passthrough"
)

// Estimator kinds.
const (
	KindLogisticRegression = "logistic_regression"
	KindDecisionTree       = "decision_tree"
	KindRandomForest       = "random_forest"
	KindDummy              = "dummy"
)

// Artifact is the on-disk pipeline description.
type Artifact struct {
	Format  string        `json:"format"`
	Classes []any         `json:"classes"`
	Prep    PrepSpec      `json:"prep"`
	Model   EstimatorSpec `json:"model"`
}

// PrepSpec mirrors a ColumnTransformer; unlisted columns are dropped.
type PrepSpec struct {
	Transformers []TransformerSpec `json:"transformers"`
}

type TransformerSpec struct {
	Name       string     `json:"name"`
	Kind       string     `json:"kind"`
	Columns    []string   `json:"columns"`
	Mean       []float64  `json:"mean,omitempty"`
	Scale      []float64  `json:"scale,omitempty"`
	Categories [][]string `json:"categories,omitempty"`
}

type EstimatorSpec struct {
	Kind string `json:"kind"`

	// logistic_regression
	Coef      [][]float64 `json:"coef,omitempty"`
	Intercept []float64   `json:"intercept,omitempty"`

	// decision_tree, random_forest
	Trees              [][]TreeNode `json:"trees,omitempty"`
	FeatureImportances []float64    `json:"feature_importances,omitempty"`

	// dummy
	ClassPrior []float64 `json:"class_prior,omitempty"`
}

// TreeNode is one node of a fitted tree. Leaves have Left == -1.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
	Impurity  float64   `json:"impurity,omitempty"`
	Samples   float64   `json:"samples,omitempty"`
}

func (n TreeNode) isLeaf() bool { return n.Left < 0 }

// LoadError reports an artifact that could not be turned into a Pipeline.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("model: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads and validates the pipeline artifact at path.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: eris.Wrap(err, "read artifact")}
	}
	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, &LoadError{Path: path, Err: eris.Wrap(err, "decode artifact")}
	}
	p, err := New(art)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return p, nil
}
