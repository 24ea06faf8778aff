package scoring

import (
	"encoding/json"
)

// ScoreRequest is a decoded scoring payload. A field that is absent or
// carries the wrong JSON type stays nil, so validation treats a type
// mismatch the same as a missing field.
type ScoreRequest struct {
	ClientID    *string
	ModelParams map[string]float64
}

// ScoreResult is the success shape returned to the client.
type ScoreResult struct {
	ClientID              string  `json:"client_id"`
	PredictedCreditRating float64 `json:"predicted_credit_rating"`
}

// ErrorResult is the failure shape returned to the client for both
// validation and inference errors.
type ErrorResult struct {
	Error string `json:"Error"`
}

// DecodeScoreRequest decodes a request body field by field. Only a body
// that is not a JSON object at all is reported as an error; per-field
// mismatches fail closed and are left for validation to reject.
func DecodeScoreRequest(data []byte) (ScoreRequest, error) {
	var raw struct {
		ClientID    json.RawMessage `json:"client_id"`
		ModelParams json.RawMessage `json:"model_params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ScoreRequest{}, err
	}

	var req ScoreRequest
	if len(raw.ClientID) > 0 {
		// Pointer target so a JSON null stays nil rather than "".
		var id *string
		if err := json.Unmarshal(raw.ClientID, &id); err == nil {
			req.ClientID = id
		}
	}
	if len(raw.ModelParams) > 0 {
		var params map[string]float64
		if err := json.Unmarshal(raw.ModelParams, &params); err == nil {
			req.ModelParams = params
		}
	}
	return req, nil
}
