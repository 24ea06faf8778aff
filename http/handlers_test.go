package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(handleHealth)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"status":"ok"}`
	if rr.Body.String() != expected+"\n" && rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestSyntheticPredictDeterministic(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)

	run := func() float64 {
		req := httptest.NewRequest(http.MethodGet, "/api/predict?x=5&y=3", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var payload map[string]float64
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		return payload["prediction"]
	}

	first := run()
	second := run()
	if first != second {
		t.Fatalf("expected deterministic prediction, got %f and %f", first, second)
	}
	// x+y is 8 and the noise is standard normal, so the value stays near 8.
	if first < 2 || first > 14 {
		t.Fatalf("prediction out of plausible range: %f", first)
	}
}

func TestSyntheticPredictBadParams(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)

	for _, target := range []string{"/api/predict", "/api/predict?x=1", "/api/predict?x=a&y=2"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)

	// Drive one observation through the demo endpoint first.
	req := httptest.NewRequest(http.MethodGet, "/api/predict?x=1&y=10", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "main_app_predictions_bucket") {
		t.Fatalf("missing histogram in metrics output:\n%s", body)
	}
	if !strings.Contains(body, "# TYPE main_app_predictions histogram") {
		t.Fatalf("missing type line in metrics output:\n%s", body)
	}
}

func TestStatsEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := payload["goroutines"]; !ok {
		t.Fatalf("missing goroutines field: %v", payload)
	}
}
