package domain

import "time"

// ValueType distinguishes free-text attributes from controlled-vocabulary ones
type ValueType string

const (
	ValueTypeFreeText   ValueType = "free_text"
	ValueTypeControlled ValueType = "controlled"
)

// AllowedValue is a single short-form/full-form pair in a controlled vocabulary
type AllowedValue struct {
	ShortForm string `json:"shortForm" yaml:"short"`
	FullForm  string `json:"fullForm" yaml:"full"`
}

// AttributeDefinition describes one attribute of the admin-managed taxonomy.
// Definitions are immutable for the duration of one extraction request.
type AttributeDefinition struct {
	Key                 string         `json:"key" yaml:"key"`
	Label               string         `json:"label" yaml:"label"`
	ValueType           ValueType      `json:"valueType" yaml:"type"`
	AllowedValues       []AllowedValue `json:"allowedValues,omitempty" yaml:"allowed,omitempty"`
	ConfidenceThreshold int            `json:"confidenceThreshold,omitempty" yaml:"threshold,omitempty"` // 0 means use pipeline default
}

// IsControlled reports whether the attribute restricts values to AllowedValues
func (d *AttributeDefinition) IsControlled() bool {
	return d.ValueType == ValueTypeControlled
}

// AttributeValue is one validated attribute result. A nil *AttributeValue in
// an ExtractionResult means the attribute is absent.
type AttributeValue struct {
	RawValue        string `json:"rawValue"`
	NormalizedValue string `json:"normalizedValue"`
	Confidence      int    `json:"confidence"` // 0-100
	Reasoning       string `json:"reasoning,omitempty"`
}

// ExtractionContext carries the read-only inputs for one extraction request
type ExtractionContext struct {
	Image           EncodedImage
	Schema          []AttributeDefinition
	CategoryLabel   string
	DepartmentLabel string
}

// EncodedImage is an opaque encoded image payload plus its MIME type
type EncodedImage struct {
	Data     []byte
	MimeType string
}

// ExtractionResult maps every schema key to a value or nil. Keys correspond
// 1:1 to the request schema - no extra, no missing.
type ExtractionResult struct {
	Attributes        map[string]*AttributeValue `json:"attributes"`
	OverallConfidence float64                    `json:"overallConfidence"`
}

// ComputeOverallConfidence recalculates the aggregate as the mean confidence
// over non-nil values, 0 when every attribute is absent
func (r *ExtractionResult) ComputeOverallConfidence() {
	var sum, count int
	for _, v := range r.Attributes {
		if v != nil {
			sum += v.Confidence
			count++
		}
	}
	if count == 0 {
		r.OverallConfidence = 0
		return
	}
	r.OverallConfidence = float64(sum) / float64(count)
}

// TokenUsage holds the raw usage counts reported by the vision model.
// Monetary cost is computed by an external accounting layer, not here.
type TokenUsage struct {
	PromptUnits     int `json:"promptUnits"`
	CompletionUnits int `json:"completionUnits"`
}

// Add accumulates usage from another call (OCR pass + main pass)
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptUnits += other.PromptUnits
	u.CompletionUnits += other.CompletionUnits
}

// VisionResult is the raw outcome of one model invocation
type VisionResult struct {
	Text  string
	Usage TokenUsage
}

// ExtractionRecord is a persisted extraction outcome
type ExtractionRecord struct {
	ID              string            `json:"id"`
	CategoryLabel   string            `json:"categoryLabel"`
	DepartmentLabel string            `json:"departmentLabel,omitempty"`
	Result          *ExtractionResult `json:"result"`
	Usage           TokenUsage        `json:"usage"`
	Source          string            `json:"source"` // "Vision" or "Cache"
	CreatedAt       time.Time         `json:"createdAt"`
}

// UsageSummary aggregates token usage over stored extraction records
type UsageSummary struct {
	Extractions     int `json:"extractions"`
	PromptUnits     int `json:"promptUnits"`
	CompletionUnits int `json:"completionUnits"`
}
