package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal        uint64
	RequestsInProgress   uint64
	RequestsSuccess      uint64
	RequestsFailed       uint64
	PredictionsTotal     uint64
	PredictionsRejected  uint64
	StoreWriteFailures   uint64
	ExplanationFallbacks uint64
	StartTime            time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

// IncrementPredictions counts a prediction that returned a probability.
func IncrementPredictions() {
	atomic.AddUint64(&globalMetrics.PredictionsTotal, 1)
}

// IncrementRejected counts a prediction request that failed validation.
func IncrementRejected() {
	atomic.AddUint64(&globalMetrics.PredictionsRejected, 1)
}

// IncrementStoreWriteFailures counts a prediction that was served but not persisted.
func IncrementStoreWriteFailures() {
	atomic.AddUint64(&globalMetrics.StoreWriteFailures, 1)
}

// IncrementExplanationFallbacks counts a prediction served without feature importances.
func IncrementExplanationFallbacks() {
	atomic.AddUint64(&globalMetrics.ExplanationFallbacks, 1)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":        atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress":  atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":      atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":       atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"predictions_total":     atomic.LoadUint64(&globalMetrics.PredictionsTotal),
		"predictions_rejected":  atomic.LoadUint64(&globalMetrics.PredictionsRejected),
		"store_write_failures":  atomic.LoadUint64(&globalMetrics.StoreWriteFailures),
		"explanation_fallbacks": atomic.LoadUint64(&globalMetrics.ExplanationFallbacks),
		"uptime_seconds":        time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics()) //nolint:errcheck
}
