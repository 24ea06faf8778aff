package scoring

import (
	"testing"
)

func TestDecodeScoreRequest(t *testing.T) {
	req, err := DecodeScoreRequest([]byte(`{"client_id":"123","model_params":{"a":1.5,"b":2}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ClientID == nil || *req.ClientID != "123" {
		t.Fatalf("unexpected client_id: %v", req.ClientID)
	}
	if len(req.ModelParams) != 2 || req.ModelParams["a"] != 1.5 {
		t.Fatalf("unexpected model_params: %v", req.ModelParams)
	}
}

func TestDecodeScoreRequestMissingFields(t *testing.T) {
	req, err := DecodeScoreRequest([]byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ClientID != nil || req.ModelParams != nil {
		t.Fatalf("expected nil fields, got %+v", req)
	}
}

func TestDecodeScoreRequestWrongTypes(t *testing.T) {
	cases := map[string]string{
		"integer client_id":       `{"client_id":42,"model_params":{"a":1}}`,
		"null client_id":          `{"client_id":null,"model_params":{"a":1}}`,
		"array model_params":      `{"client_id":"1","model_params":[1,2]}`,
		"string-valued params":    `{"client_id":"1","model_params":{"a":"x"}}`,
		"null model_params":       `{"client_id":"1","model_params":null}`,
		"string model_params":     `{"client_id":"1","model_params":"nope"}`,
	}

	for name, body := range cases {
		req, err := DecodeScoreRequest([]byte(body))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		switch name {
		case "integer client_id", "null client_id":
			if req.ClientID != nil {
				t.Fatalf("%s: expected nil client_id", name)
			}
		default:
			if req.ModelParams != nil {
				t.Fatalf("%s: expected nil model_params", name)
			}
		}
	}
}

func TestDecodeScoreRequestEmptyObjectParams(t *testing.T) {
	req, err := DecodeScoreRequest([]byte(`{"client_id":"1","model_params":{}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// An empty mapping is still a mapping; completeness rejects it later.
	if req.ModelParams == nil {
		t.Fatal("expected non-nil model_params for empty object")
	}
}

func TestDecodeScoreRequestInvalidJSON(t *testing.T) {
	if _, err := DecodeScoreRequest([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
