package usecase

import (
	"errors"
	"testing"

	"github.com/stylelens/backend/internal/domain"
)

func TestParseResponse(t *testing.T) {
	t.Run("parses a plain JSON response", func(t *testing.T) {
		raw := `{
			"metadata": {"vendor": "Acme Textiles", "gsm": 180},
			"attributes": {
				"colour": {"raw_value": "NVY", "confidence": 85, "reasoning": "dark navy body"}
			}
		}`

		parsed, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if parsed.Metadata["vendor"] != "Acme Textiles" {
			t.Errorf("vendor = %q, want Acme Textiles", parsed.Metadata["vendor"])
		}
		if parsed.Metadata["gsm"] != "180" {
			t.Errorf("gsm = %q, want 180 (numeric metadata stringified)", parsed.Metadata["gsm"])
		}
		attr, ok := parsed.Attributes["colour"]
		if !ok {
			t.Fatal("colour attribute missing")
		}
		if attr.RawValue != "NVY" || attr.Confidence != 85 || attr.Reasoning != "dark navy body" {
			t.Errorf("colour = %+v, want NVY/85/dark navy body", attr)
		}
	})

	t.Run("strips markdown fences", func(t *testing.T) {
		raw := "```json\n{\"metadata\": {}, \"attributes\": {\"fit\": {\"raw_value\": \"REG\", \"confidence\": 70}}}\n```"

		parsed, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if parsed.Attributes["fit"].RawValue != "REG" {
			t.Errorf("fit = %+v, want REG", parsed.Attributes["fit"])
		}
	})

	t.Run("extracts JSON embedded in commentary", func(t *testing.T) {
		raw := `Here is the analysis you asked for:
{"metadata": {}, "attributes": {"wash": {"raw_value": "RNS", "confidence": 60}}}
Let me know if you need anything else.`

		parsed, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if parsed.Attributes["wash"].RawValue != "RNS" {
			t.Errorf("wash = %+v, want RNS", parsed.Attributes["wash"])
		}
	})

	t.Run("returns ErrMalformedResponse when no JSON object present", func(t *testing.T) {
		_, err := ParseResponse("I cannot analyze this image.")
		if !errors.Is(err, domain.ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})

	t.Run("returns ErrMalformedResponse for invalid JSON", func(t *testing.T) {
		_, err := ParseResponse(`{"metadata": {, "attributes": }`)
		if !errors.Is(err, domain.ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})

	t.Run("skips null and empty attributes", func(t *testing.T) {
		raw := `{
			"metadata": {},
			"attributes": {
				"colour": null,
				"fit": {"raw_value": null, "confidence": 50},
				"wash": {"raw_value": "  ", "confidence": 50},
				"pattern": {"raw_value": "SLD", "confidence": 72}
			}
		}`

		parsed, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(parsed.Attributes) != 1 {
			t.Errorf("len(attributes) = %d, want 1", len(parsed.Attributes))
		}
		if parsed.Attributes["pattern"].RawValue != "SLD" {
			t.Errorf("pattern = %+v, want SLD", parsed.Attributes["pattern"])
		}
	})

	t.Run("skips null metadata fields", func(t *testing.T) {
		raw := `{"metadata": {"vendor": null, "size": "XL"}, "attributes": {}}`

		parsed, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := parsed.Metadata["vendor"]; ok {
			t.Error("null metadata field should be dropped")
		}
		if parsed.Metadata["size"] != "XL" {
			t.Errorf("size = %q, want XL", parsed.Metadata["size"])
		}
	})

	t.Run("clamps and rounds confidence", func(t *testing.T) {
		raw := `{
			"metadata": {},
			"attributes": {
				"colour": {"raw_value": "NVY", "confidence": 87.5},
				"fit": {"raw_value": "REG", "confidence": 140},
				"wash": {"raw_value": "RNS", "confidence": -5}
			}
		}`

		parsed, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := parsed.Attributes["colour"].Confidence; got != 88 {
			t.Errorf("colour confidence = %d, want 88", got)
		}
		if got := parsed.Attributes["fit"].Confidence; got != 100 {
			t.Errorf("fit confidence = %d, want 100", got)
		}
		if got := parsed.Attributes["wash"].Confidence; got != 0 {
			t.Errorf("wash confidence = %d, want 0", got)
		}
	})
}
