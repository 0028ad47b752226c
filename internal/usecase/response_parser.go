package usecase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stylelens/backend/internal/domain"
)

// ParsedAttribute is one attribute entry as decoded from the model response,
// before vocabulary validation
type ParsedAttribute struct {
	RawValue   string
	Confidence int
	Reasoning  string
}

// ParsedResponse is the structured payload decoded from one model invocation
type ParsedResponse struct {
	Metadata   map[string]string
	Attributes map[string]ParsedAttribute
}

// wire types match the JSON the model is instructed to emit. Confidence is
// decoded as float64 because models frequently emit 87.5 despite being asked
// for integers.
type wireResponse struct {
	Metadata   map[string]interface{}         `json:"metadata"`
	Attributes map[string]*wireAttributeValue `json:"attributes"`
}

type wireAttributeValue struct {
	RawValue   *string `json:"raw_value"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ParseResponse strips formatting fences from raw model text and decodes it
// into the metadata/attributes structure. A response that cannot be decoded
// returns ErrMalformedResponse; the caller decides whether that is fatal
// (main pass) or degrades to no hint (OCR pre-pass).
func ParseResponse(raw string) (*ParsedResponse, error) {
	content := stripFences(raw)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in response", domain.ErrMalformedResponse)
	}

	var wire wireResponse
	if err := json.Unmarshal([]byte(content[start:end+1]), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	parsed := &ParsedResponse{
		Metadata:   make(map[string]string),
		Attributes: make(map[string]ParsedAttribute),
	}

	for key, value := range wire.Metadata {
		s := stringifyMetadata(value)
		if s == "" {
			continue
		}
		parsed.Metadata[strings.TrimSpace(key)] = s
	}

	for key, attr := range wire.Attributes {
		if attr == nil || attr.RawValue == nil {
			continue // model returned null for this attribute
		}
		raw := strings.TrimSpace(*attr.RawValue)
		if raw == "" {
			continue
		}
		parsed.Attributes[strings.TrimSpace(key)] = ParsedAttribute{
			RawValue:   raw,
			Confidence: clampConfidence(attr.Confidence),
			Reasoning:  strings.TrimSpace(attr.Reasoning),
		}
	}

	return parsed, nil
}

// stripFences removes markdown code fences the model may wrap its JSON in
func stripFences(raw string) string {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// stringifyMetadata renders a metadata value as a trimmed string. Models emit
// numbers for fields like rate and gsm.
func stringifyMetadata(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func clampConfidence(f float64) int {
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return int(f + 0.5)
}
