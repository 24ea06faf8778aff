package http

import (
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"strconv"

	"creditscore/logging"
	"creditscore/monitoring"
	"creditscore/scoring"
)

var (
	collector = monitoring.NewCollector()

	scoreHandler *scoring.Handler
)

func init() {
	collector.Describe("http_requests_total", "Total number of HTTP requests")
	collector.Describe("main_app_predictions", "Histogram of predictions")
	collector.Describe("positive_predictions_total", "Total number of positive predictions")
}

// SetScoreHandler injects the scoring handler built at startup.
func SetScoreHandler(h *scoring.Handler) {
	scoreHandler = h
}

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/score", handleScore)
	mux.HandleFunc("GET /api/model/features", handleModelFeatures)
	mux.HandleFunc("GET /api/predict", handleSyntheticPredict)
	mux.HandleFunc("GET /metrics", handleMetrics)
	mux.HandleFunc("GET /api/stats", handleStats)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleScore(w http.ResponseWriter, r *http.Request) {
	if scoreHandler == nil {
		http.Error(w, `{"error":"model not ready"}`, http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}

	req, err := scoring.DecodeScoreRequest(body)
	if err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	// Both result shapes go out as 200; the payload carries the outcome.
	respondJSON(w, scoreHandler.Handle(req))
}

func handleModelFeatures(w http.ResponseWriter, r *http.Request) {
	if scoreHandler == nil {
		http.Error(w, `{"error":"model not ready"}`, http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, map[string]interface{}{
		"features": scoreHandler.FeatureSchema(),
	})
}

// handleSyntheticPredict demonstrates the metrics pipeline: a deterministic
// noisy sum recorded into a histogram plus a positive-value counter.
func handleSyntheticPredict(w http.ResponseWriter, r *http.Request) {
	x, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		http.Error(w, `{"error":"x must be an integer"}`, http.StatusBadRequest)
		return
	}
	y, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		http.Error(w, `{"error":"y must be an integer"}`, http.StatusBadRequest)
		return
	}

	// Seeded from x so the same inputs always produce the same value.
	rng := rand.New(rand.NewSource(int64(x)))
	prediction := float64(x+y) + rng.NormFloat64()

	collector.ObserveHistogram("main_app_predictions", prediction, monitoring.PredictionBuckets)
	if prediction > 0 {
		collector.IncrCounter("positive_predictions_total", 1, nil)
	}

	respondJSON(w, map[string]float64{"prediction": prediction})
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	io.WriteString(w, collector.ExportPrometheus())
}

func handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, collector.GetSystemStats())
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.L().Errorw("failed to encode JSON", "error", err)
	}
}
