package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apppred "github.com/bryanwahyu/heart-risk/internal/application/predictions"
	domain "github.com/bryanwahyu/heart-risk/internal/domain/predictions"
	"github.com/bryanwahyu/heart-risk/internal/middleware"
)

// maxBodyBytes bounds a /predict request body.
const maxBodyBytes = 1 << 20

type Router struct {
	svc *apppred.Service
}

func NewRouter(svc *apppred.Service) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	health := middleware.HealthHandler(svc)
	mux.Get("/ping", health)
	mux.Get("/health", health)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Post("/predict", r.wrap(r.handlePredict))
	mux.Get("/history", r.wrap(r.handleHistory))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var ve *domain.ValidationError
			switch {
			case errors.As(err, &ve):
				body := map[string]any{"error": ve.Error()}
				if ve.Message == domain.MsgMissingFeatures {
					body["missing"] = ve.Fields
				} else if len(ve.Fields) > 0 {
					body["invalid"] = ve.Fields
				}
				writeJSON(w, http.StatusBadRequest, body)
			case errors.Is(err, domain.ErrNotAvailable):
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": domain.ErrNotAvailable.Error()})
			default:
				zap.L().Error("request failed",
					zap.String("path", req.URL.Path),
					zap.String("request_id", chimw.GetReqID(req.Context())),
					zap.Error(err),
				)
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			}
		}
	}
}

// POST /predict
// Body: the 13 clinical fields, plus an optional user_id.
func (r *Router) handlePredict(w http.ResponseWriter, req *http.Request) error {
	raw, err := decodeBody(w, req)
	if err != nil {
		middleware.IncrementRejected()
		return err
	}
	in, err := domain.ParseInput(raw)
	if err != nil {
		middleware.IncrementRejected()
		return err
	}

	res, err := r.svc.Predict(req.Context(), in)
	if err != nil {
		return err
	}
	middleware.IncrementPredictions()
	if r.svc.StoreConnected() && !res.Stored {
		middleware.IncrementStoreWriteFailures()
	}
	if len(res.TopFeatures) == 0 {
		middleware.IncrementExplanationFallbacks()
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /history?user_id=&limit=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	userID := q.Get("user_id")
	if err := middleware.ValidateUserID(userID); err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	limit, err := middleware.ValidateLimit(q.Get("limit"), domain.HistoryLimit, domain.HistoryLimit)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}

	recs, err := r.svc.History(req.Context(), userID, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"predictions": recs,
		"count":       len(recs),
	})
}

// decodeBody reads a JSON object. An empty body or a JSON null yields a
// nil map, which input validation rejects as "no data".
func decodeBody(w http.ResponseWriter, req *http.Request) (map[string]any, error) {
	var raw map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	err := dec.Decode(&raw)
	if err == nil {
		// the object must be the whole body
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errors.New("unexpected data after JSON object")
		}
	}
	switch {
	case errors.Is(err, io.EOF):
		return nil, nil
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &domain.ValidationError{Message: "Request body too large"}
		}
		return nil, &domain.ValidationError{Message: "Invalid JSON: " + err.Error()}
	}
	return raw, nil
}

// writeJSON encodes v before touching w so an encoding failure can still
// be answered with an error status.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
	return nil
}
