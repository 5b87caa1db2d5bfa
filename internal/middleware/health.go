package middleware

import (
	"encoding/json"
	"net/http"
)

// StatusReporter exposes the readiness of the service's dependencies.
type StatusReporter interface {
	ModelLoaded() bool
	StoreConnected() bool
}

// HealthStatus is the body of the liveness endpoints.
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	DBConnected bool   `json:"db_connected"`
}

// HealthHandler always answers 200: the process is alive even when the
// store is down, and the flags say what is degraded.
func HealthHandler(rep StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := HealthStatus{
			Status:      "healthy",
			ModelLoaded: rep.ModelLoaded(),
			DBConnected: rep.StoreConnected(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(health) //nolint:errcheck
	}
}
