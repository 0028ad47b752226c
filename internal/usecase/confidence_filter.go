package usecase

import (
	"github.com/stylelens/backend/internal/domain"
)

// DefaultConfidenceThreshold applies to attributes whose definition does not
// carry its own threshold. Some attributes are configured lower because they
// are harder to observe reliably.
const DefaultConfidenceThreshold = 65

// FilterByConfidence drops every value whose confidence is strictly below
// the owning attribute's threshold, in place. A value exactly at threshold
// is retained. This is the last pipeline stage.
func FilterByConfidence(schema []domain.AttributeDefinition, values map[string]*domain.AttributeValue, defaultThreshold int) {
	if defaultThreshold <= 0 {
		defaultThreshold = DefaultConfidenceThreshold
	}

	for i := range schema {
		def := &schema[i]
		v := values[def.Key]
		if v == nil {
			continue
		}
		threshold := def.ConfidenceThreshold
		if threshold <= 0 {
			threshold = defaultThreshold
		}
		if v.Confidence < threshold {
			values[def.Key] = nil
		}
	}
}
