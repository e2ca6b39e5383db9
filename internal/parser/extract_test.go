package parser

import (
	"errors"
	"testing"
)

func TestExtractResponse_SingleTransaction(t *testing.T) {
	raw := `{"transaction":{"type":"expense","amount":45,"currency":"USD","category":"Food","date":"2025-01-21","description":"Grocery"}}`

	entries, err := ExtractResponse(raw)
	if err != nil {
		t.Fatalf("ExtractResponse failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	obj, ok := entries[0].(map[string]interface{})
	if !ok {
		t.Fatalf("entry is %T, want map", entries[0])
	}
	if obj["category"] != "Food" {
		t.Errorf("category = %v, want Food", obj["category"])
	}
}

func TestExtractResponse_MultipleTransactions(t *testing.T) {
	raw := `{"transactions":[{"amount":1},{"amount":2},{"amount":3}]}`

	entries, err := ExtractResponse(raw)
	if err != nil {
		t.Fatalf("ExtractResponse failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestExtractResponse_FencedWithProse(t *testing.T) {
	raw := "Here is the parsed result you asked for:\n\n```json\n" +
		`{"transaction":{"amount":20}}` +
		"\n```\n\nLet me know if you need anything else!"

	entries, err := ExtractResponse(raw)
	if err != nil {
		t.Fatalf("ExtractResponse failed on fenced output: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestExtractResponse_UntaggedFence(t *testing.T) {
	raw := "```\n{\"transactions\":[{\"amount\":5}]}\n```"

	entries, err := ExtractResponse(raw)
	if err != nil {
		t.Fatalf("ExtractResponse failed on untagged fence: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestExtractResponse_ProseAroundBraces(t *testing.T) {
	raw := `Sure! {"transaction":{"amount":12}} Hope that helps.`

	entries, err := ExtractResponse(raw)
	if err != nil {
		t.Fatalf("ExtractResponse failed on prose-wrapped JSON: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestExtractResponse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no braces at all", "I could not find any transactions in that message."},
		{"empty string", ""},
		{"invalid JSON inside braces", `{"transaction": {unquoted}}`},
		{"neither envelope key", `{"result": "ok"}`},
		{"both envelope keys", `{"transaction":{},"transactions":[]}`},
		{"transactions not an array", `{"transactions": {"amount": 5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractResponse(tt.raw)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var malformed *MalformedOutputError
			if !errors.As(err, &malformed) {
				t.Errorf("got %T, want *MalformedOutputError", err)
			}
		})
	}
}

func TestExtractResponse_PreservesParseError(t *testing.T) {
	_, err := ExtractResponse(`{"transaction": {bad json}}`)

	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %T, want *MalformedOutputError", err)
	}
	if malformed.Err == nil {
		t.Error("expected underlying parse error to be preserved")
	}
}
