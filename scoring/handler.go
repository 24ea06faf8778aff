package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"creditscore/logging"
	"creditscore/ml"
)

// defaultFeatureOrder is the compiled-in fallback used when the model
// artifact does not record the feature names it was trained on.
func defaultFeatureOrder() []string {
	return []string{
		"gender",
		"Type",
		"PaperlessBilling",
		"PaymentMethod",
		"MonthlyCharges",
		"TotalCharges",
	}
}

type Config struct {
	CacheSize int
}

// Handler validates scoring requests and dispatches them to the model.
// The model and feature schema are fixed at construction and never change,
// so a single Handler is safe for concurrent use without locking.
type Handler struct {
	model        ml.RegressionModel
	featureNames []string // recorded by the model artifact; nil when absent
	required     []string // featureNames, or the default fallback list
	cache        *lru.Cache[string, float64]
}

func NewHandler(model ml.RegressionModel, cfg Config) *Handler {
	h := &Handler{model: model}

	if namer, ok := model.(ml.FeatureNamer); ok {
		if names := namer.FeatureNames(); len(names) > 0 {
			h.featureNames = append([]string(nil), names...)
		}
	}
	if h.featureNames != nil {
		h.required = h.featureNames
		logging.L().Debugw("model expects these features", "features", h.required)
	} else {
		h.required = defaultFeatureOrder()
		logging.L().Debugw("could not get feature names from model, using default list",
			"features", h.required)
	}

	if cfg.CacheSize > 0 {
		if cache, err := lru.New[string, float64](cfg.CacheSize); err == nil {
			h.cache = cache
		}
	}
	return h
}

// FeatureSchema returns a copy of the required feature names in model order.
func (h *Handler) FeatureSchema() []string {
	return append([]string(nil), h.required...)
}

// checkRequiredQueryParams reports whether the request carries both
// top-level fields with the right shapes. The decoder already nils out
// wrongly typed fields, so presence is the whole check.
func (h *Handler) checkRequiredQueryParams(req ScoreRequest) bool {
	if req.ClientID == nil {
		logging.L().Debugw("missing or non-string client_id")
		return false
	}
	if req.ModelParams == nil {
		logging.L().Debugw("missing or non-mapping model_params")
		return false
	}
	return true
}

// checkRequiredModelParams reports whether every required feature is
// present. Extra keys are tolerated.
func (h *Handler) checkRequiredModelParams(params map[string]float64) bool {
	for _, name := range h.required {
		if _, ok := params[name]; !ok {
			logging.L().Debugw("missing required model param", "param", name)
			return false
		}
	}
	return true
}

// Validate short-circuits: the completeness check only runs once the shape
// check has confirmed model_params is a mapping.
func (h *Handler) Validate(req ScoreRequest) bool {
	if !h.checkRequiredQueryParams(req) {
		return false
	}
	return h.checkRequiredModelParams(req.ModelParams)
}

// Handle runs a scoring request end to end. It always returns one of the
// two result shapes; internal failures never escape as panics or errors.
func (h *Handler) Handle(req ScoreRequest) interface{} {
	if !h.Validate(req) {
		return ErrorResult{Error: "Problem with parameters"}
	}

	rating, err := h.predictRating(req.ModelParams)
	if err != nil {
		logging.L().Debugw("scoring failed", "client_id", *req.ClientID, "error", err)
		return ErrorResult{Error: err.Error()}
	}

	logging.L().Debugw("scoring succeeded", "client_id", *req.ClientID, "rating", rating)
	return ScoreResult{
		ClientID:              *req.ClientID,
		PredictedCreditRating: rating,
	}
}

func (h *Handler) predictRating(params map[string]float64) (float64, error) {
	vector, err := h.buildVector(params)
	if err != nil {
		return 0, err
	}

	key := vectorKey(vector)
	if h.cache != nil {
		if rating, ok := h.cache.Get(key); ok {
			return rating, nil
		}
	}

	// Single-row batch; the model scores one row per vector.
	scores, err := h.model.Predict([][]float64{vector})
	if err != nil {
		return 0, err
	}
	if len(scores) == 0 {
		return 0, errors.New("model returned no predictions")
	}

	rating := scores[0]
	if h.cache != nil {
		h.cache.Add(key, rating)
	}
	return rating, nil
}

// buildVector assembles the feature vector in the model's feature order.
// A missing key here means validation was bypassed or the schema fell back
// to the default list; it surfaces as a lookup error.
func (h *Handler) buildVector(params map[string]float64) ([]float64, error) {
	if h.featureNames != nil {
		vector := make([]float64, 0, len(h.featureNames))
		for _, name := range h.featureNames {
			value, ok := params[name]
			if !ok {
				return nil, fmt.Errorf("feature %q missing from model_params", name)
			}
			vector = append(vector, value)
		}
		return vector, nil
	}

	// No order recorded by the model: take all values, keyed order for
	// deterministic output.
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	vector := make([]float64, 0, len(keys))
	for _, key := range keys {
		vector = append(vector, params[key])
	}
	return vector, nil
}

func vectorKey(vector []float64) string {
	var b strings.Builder
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
