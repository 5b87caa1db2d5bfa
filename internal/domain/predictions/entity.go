package predictions

import "time"

const (
	// DefaultUserID is recorded when a request carries no user_id.
	DefaultUserID = "anonymous"
	// HistoryLimit caps how many records a history lookup returns.
	HistoryLimit = 20
	// TopFeatureLimit is how many feature importances a prediction reports.
	TopFeatureLimit = 3
)

// FeatureImportance is one entry of a prediction's explanation.
type FeatureImportance struct {
	Feature    string  `json:"feature" bson:"feature"`
	Importance float64 `json:"importance" bson:"importance"`
}

// Record is a persisted prediction. Records are append-only.
type Record struct {
	UserID      string              `json:"user_id" bson:"user_id"`
	Timestamp   time.Time           `json:"timestamp" bson:"timestamp"`
	Input       map[string]any      `json:"input" bson:"input"`
	Prob        float64             `json:"prob" bson:"prob"`
	TopFeatures []FeatureImportance `json:"top_features" bson:"top_features"`
}
