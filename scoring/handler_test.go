package scoring

import (
	"errors"
	"reflect"
	"testing"
)

type stubModel struct {
	names     []string
	score     float64
	err       error
	lastBatch [][]float64
	calls     int
}

func (s *stubModel) Predict(batch [][]float64) ([]float64, error) {
	s.calls++
	s.lastBatch = batch
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(batch))
	for i := range out {
		out[i] = s.score
	}
	return out, nil
}

func (s *stubModel) FeatureNames() []string { return s.names }

func strPtr(s string) *string { return &s }

func TestHandleSuccess(t *testing.T) {
	model := &stubModel{names: []string{"MonthlyCharges", "TotalCharges"}, score: 642.5}
	handler := NewHandler(model, Config{})

	result := handler.Handle(ScoreRequest{
		ClientID:    strPtr("123"),
		ModelParams: map[string]float64{"MonthlyCharges": 50.8, "TotalCharges": 288.05},
	})

	score, ok := result.(ScoreResult)
	if !ok {
		t.Fatalf("expected ScoreResult, got %T: %v", result, result)
	}
	if score.ClientID != "123" {
		t.Fatalf("unexpected client_id: %q", score.ClientID)
	}
	if score.PredictedCreditRating != 642.5 {
		t.Fatalf("unexpected rating: %f", score.PredictedCreditRating)
	}
}

func TestHandleMissingClientID(t *testing.T) {
	handler := NewHandler(&stubModel{names: []string{"a"}}, Config{})

	result := handler.Handle(ScoreRequest{
		ModelParams: map[string]float64{"a": 1},
	})

	errResult, ok := result.(ErrorResult)
	if !ok {
		t.Fatalf("expected ErrorResult, got %T", result)
	}
	if errResult.Error != "Problem with parameters" {
		t.Fatalf("unexpected error message: %q", errResult.Error)
	}
}

func TestHandleNonStringClientID(t *testing.T) {
	handler := NewHandler(&stubModel{names: []string{"a"}}, Config{})

	req, err := DecodeScoreRequest([]byte(`{"client_id":123,"model_params":{"a":1}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handler.Validate(req) {
		t.Fatal("expected validation to fail for integer client_id")
	}

	result := handler.Handle(req)
	if errResult, ok := result.(ErrorResult); !ok || errResult.Error != "Problem with parameters" {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestHandleModelParamsNotMapping(t *testing.T) {
	handler := NewHandler(&stubModel{names: []string{"a"}}, Config{})

	req, err := DecodeScoreRequest([]byte(`{"client_id":"1","model_params":[1,2]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handler.Validate(req) {
		t.Fatal("expected validation to fail for array model_params")
	}
}

func TestHandleEmptyModelParams(t *testing.T) {
	handler := NewHandler(&stubModel{names: []string{"a", "b"}}, Config{})

	result := handler.Handle(ScoreRequest{
		ClientID:    strPtr("1"),
		ModelParams: map[string]float64{},
	})

	if errResult, ok := result.(ErrorResult); !ok || errResult.Error != "Problem with parameters" {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestValidateMissingFeature(t *testing.T) {
	handler := NewHandler(&stubModel{names: []string{"a", "b"}}, Config{})

	req := ScoreRequest{
		ClientID:    strPtr("1"),
		ModelParams: map[string]float64{"a": 1},
	}
	if handler.Validate(req) {
		t.Fatal("expected validation to fail for missing feature")
	}
}

func TestValidateExtraParamsTolerated(t *testing.T) {
	handler := NewHandler(&stubModel{names: []string{"a", "b"}}, Config{})

	req := ScoreRequest{
		ClientID:    strPtr("1"),
		ModelParams: map[string]float64{"b": 2, "extra": 99, "a": 1},
	}
	if !handler.Validate(req) {
		t.Fatal("expected validation to pass with extra params")
	}
}

func TestFeatureVectorSchemaOrder(t *testing.T) {
	model := &stubModel{names: []string{"a", "b"}, score: 1}
	handler := NewHandler(model, Config{})

	result := handler.Handle(ScoreRequest{
		ClientID:    strPtr("1"),
		ModelParams: map[string]float64{"b": 2, "a": 1},
	})
	if _, ok := result.(ScoreResult); !ok {
		t.Fatalf("unexpected result: %v", result)
	}

	if len(model.lastBatch) != 1 {
		t.Fatalf("expected single-row batch, got %d rows", len(model.lastBatch))
	}
	if !reflect.DeepEqual(model.lastBatch[0], []float64{1, 2}) {
		t.Fatalf("expected vector in schema order [1 2], got %v", model.lastBatch[0])
	}
}

func TestHandleIdempotent(t *testing.T) {
	model := &stubModel{names: []string{"a"}, score: 700}
	handler := NewHandler(model, Config{CacheSize: 16})

	req := ScoreRequest{
		ClientID:    strPtr("42"),
		ModelParams: map[string]float64{"a": 3.14},
	}

	first := handler.Handle(req)
	second := handler.Handle(req)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %v and %v", first, second)
	}
	if model.calls != 1 {
		t.Fatalf("expected cached second call, model invoked %d times", model.calls)
	}
}

func TestHandleInferenceError(t *testing.T) {
	model := &stubModel{names: []string{"a"}, err: errors.New("model not loaded")}
	handler := NewHandler(model, Config{})

	result := handler.Handle(ScoreRequest{
		ClientID:    strPtr("1"),
		ModelParams: map[string]float64{"a": 1},
	})

	errResult, ok := result.(ErrorResult)
	if !ok {
		t.Fatalf("expected ErrorResult, got %T", result)
	}
	if errResult.Error != "model not loaded" {
		t.Fatalf("unexpected error message: %q", errResult.Error)
	}
}

func TestDefaultSchemaFallback(t *testing.T) {
	model := &stubModel{score: 500}
	handler := NewHandler(model, Config{})

	want := []string{"gender", "Type", "PaperlessBilling", "PaymentMethod", "MonthlyCharges", "TotalCharges"}
	if !reflect.DeepEqual(handler.FeatureSchema(), want) {
		t.Fatalf("unexpected fallback schema: %v", handler.FeatureSchema())
	}

	params := map[string]float64{
		"gender":           1,
		"Type":             0.55,
		"PaperlessBilling": 1,
		"PaymentMethod":    0.22,
		"MonthlyCharges":   50.8,
		"TotalCharges":     288.05,
	}
	result := handler.Handle(ScoreRequest{ClientID: strPtr("9"), ModelParams: params})
	if _, ok := result.(ScoreResult); !ok {
		t.Fatalf("unexpected result: %v", result)
	}
	// Without a recorded order the vector carries every value.
	if len(model.lastBatch[0]) != len(params) {
		t.Fatalf("expected %d values, got %d", len(params), len(model.lastBatch[0]))
	}
}
