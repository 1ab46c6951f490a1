package commentary_test

import (
	"errors"
	"strings"
	"testing"

	"crosstalk/internal/commentary"
	"crosstalk/internal/services"
)

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
	}{
		{"plain", []string{`{"matchSummary":"ok","events":[]}`}},
		{"fenced", []string{"```json\n{\"matchSummary\":\"ok\"}\n```"}},
		{"fenced no tag", []string{"```\n{\"matchSummary\":\"ok\"}\n```"}},
		{"surrounding text", []string{"Here you go:\n{\"matchSummary\":\"ok\"}\nEnjoy!"}},
		{"second fragment", []string{"thinking...", `{"matchSummary":"ok"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := commentary.ExtractPayload(tt.fragments...)
			if err != nil {
				t.Fatalf("ExtractPayload returned error: %v", err)
			}
			if payload["matchSummary"] != "ok" {
				t.Fatalf("unexpected payload: %v", payload)
			}
		})
	}
}

func TestExtractPayloadFailureCarriesSnippet(t *testing.T) {
	long := "no json here " + strings.Repeat("x", 300)
	_, err := commentary.ExtractPayload(long, "still nothing")
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if !strings.Contains(err.Error(), "no json here") {
		t.Fatalf("expected snippet of first fragment, got %v", err)
	}
	if strings.Contains(err.Error(), strings.Repeat("x", 250)) {
		t.Fatalf("expected snippet to be truncated, got %v", err)
	}
}

func TestExtractPayloadNoFragments(t *testing.T) {
	if _, err := commentary.ExtractPayload(); !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestExtractPayloadRejectsArrays(t *testing.T) {
	if _, err := commentary.ExtractPayload(`[1, 2, 3]`); !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse for array, got %v", err)
	}
}
