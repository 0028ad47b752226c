package usecase

import (
	"strings"

	"github.com/stylelens/backend/internal/domain"
)

// nonAnswerTokens are model outputs that mean "no value" rather than a value.
// A free-text attribute whose raw value matches one of these normalizes to
// absent.
var nonAnswerTokens = map[string]bool{
	"n/a":              true,
	"na":               true,
	"none":             true,
	"nil":              true,
	"null":             true,
	"unknown":          true,
	"not visible":      true,
	"not applicable":   true,
	"not available":    true,
	"cannot determine": true,
	"unclear":          true,
	"-":                true,
	"--":               true,
}

// attributeAliases maps, per attribute key, lowercased domain spellings the
// model (or a printed tag) commonly produces to the canonical short form.
// These are curated domain mappings, reviewed by merchandising, and are
// deliberately declarative so they can be extended without touching the
// matching logic.
var attributeAliases = map[string]map[string]string{
	"yarn_1": {
		"imported":        "IMP",
		"imported yarn":   "IMP",
		"imported fabric": "IMP",
		"open end":        "OE",
		"open-end":        "OE",
		"ring spun":       "RS",
		"ringspun":        "RS",
	},
	"yarn_2": {
		"imported":        "IMP",
		"imported yarn":   "IMP",
		"imported fabric": "IMP",
		"open end":        "OE",
		"open-end":        "OE",
		"ring spun":       "RS",
		"ringspun":        "RS",
	},
	"colour": {
		"navy":       "NVY",
		"navy blue":  "NVY",
		"jet black":  "BLK",
		"off white":  "OWH",
		"off-white":  "OWH",
		"grey":       "GRY",
		"gray":       "GRY",
		"mid blue":   "MBL",
		"light blue": "LBL",
		"dark blue":  "DBL",
	},
	"wash": {
		"rinse":       "RNS",
		"rinse wash":  "RNS",
		"stone":       "STN",
		"stone wash":  "STN",
		"acid":        "ACD",
		"acid wash":   "ACD",
		"enzyme":      "ENZ",
		"enzyme wash": "ENZ",
	},
	"weave": {
		"plain weave": "PLN",
		"twill weave": "TWL",
		"dobby weave": "DBY",
		"satin weave": "STW",
	},
	"belt_type": {
		"elastic":             "ELS",
		"elastic waist":       "ELS",
		"elasticated":         "ELS",
		"drawstring":          "DRW",
		"draw string":         "DRW",
		"fixed waist":         "FXD",
		"fixed waistband":     "FXD",
		"buttoned waistband":  "FXD",
	},
	"fit": {
		"regular fit": "REG",
		"slim fit":    "SLM",
		"relaxed fit": "RLX",
		"skinny fit":  "SKN",
		"loose fit":   "LSE",
	},
}

// ValidateAttributes canonicalizes every schema attribute against its
// vocabulary. The returned map has exactly one entry per schema key; keys the
// model omitted, or whose value failed validation, map to nil.
func ValidateAttributes(schema []domain.AttributeDefinition, attrs map[string]ParsedAttribute) map[string]*domain.AttributeValue {
	values := make(map[string]*domain.AttributeValue, len(schema))

	for i := range schema {
		def := &schema[i]
		parsed, ok := attrs[def.Key]
		if !ok {
			values[def.Key] = nil // model omitted the key: absent, never fatal
			continue
		}
		values[def.Key] = validateOne(def, parsed)
	}

	return values
}

// validateOne canonicalizes a single parsed attribute, returning nil when the
// value does not validate. Original reasoning for rejected values is
// discarded so unvalidated model text never leaks downstream.
func validateOne(def *domain.AttributeDefinition, parsed ParsedAttribute) *domain.AttributeValue {
	raw := strings.TrimSpace(parsed.RawValue)

	if raw == "" || isNonAnswer(raw) {
		return nil
	}

	if !def.IsControlled() {
		return &domain.AttributeValue{
			RawValue:        raw,
			NormalizedValue: raw,
			Confidence:      parsed.Confidence,
			Reasoning:       parsed.Reasoning,
		}
	}

	short, ok := MatchControlled(def, raw)
	if !ok {
		return nil
	}

	return &domain.AttributeValue{
		RawValue:        raw,
		NormalizedValue: short,
		Confidence:      parsed.Confidence,
		Reasoning:       parsed.Reasoning,
	}
}

// MatchControlled resolves a raw value against a controlled vocabulary.
// Match order: exact short form, exact full form, case-insensitive short
// form, case-insensitive full form, then the per-attribute alias table.
// First match wins.
func MatchControlled(def *domain.AttributeDefinition, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	for _, av := range def.AllowedValues {
		if av.ShortForm == raw {
			return av.ShortForm, true
		}
	}
	for _, av := range def.AllowedValues {
		if av.FullForm == raw {
			return av.ShortForm, true
		}
	}

	lower := strings.ToLower(raw)
	for _, av := range def.AllowedValues {
		if strings.ToLower(av.ShortForm) == lower {
			return av.ShortForm, true
		}
	}
	for _, av := range def.AllowedValues {
		if strings.ToLower(av.FullForm) == lower {
			return av.ShortForm, true
		}
	}

	if aliases, ok := attributeAliases[def.Key]; ok {
		if short, ok := aliases[lower]; ok {
			// an alias must still point at a live vocabulary entry
			for _, av := range def.AllowedValues {
				if av.ShortForm == short {
					return short, true
				}
			}
		}
	}

	return "", false
}

func isNonAnswer(raw string) bool {
	return nonAnswerTokens[strings.ToLower(strings.TrimSpace(raw))]
}
