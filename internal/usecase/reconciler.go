package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stylelens/backend/internal/domain"
)

// Confidence assigned to values sourced from a printed tag or the model's
// visual metadata block, which carry no model-reported confidence of their
// own. Tags are printed at manufacture time and are generally reliable.
const (
	tagFieldConfidence    = 90
	visualMetaConfidence  = 75
	colourConflictPenalty = 20
)

// colourFamilies maps each coarse colour family to the keywords (including
// common tag abbreviations) that identify it. Ordered so family resolution
// is deterministic.
var colourFamilies = []struct {
	family   string
	keywords []string
}{
	{"blue", []string{"blue", "blu", "nvy", "navy", "indigo", "teal", "turquoise", "aqua", "sky", "denim"}},
	{"grey", []string{"grey", "gray", "gry", "charcoal", "ash", "slate", "anthra"}},
	{"black", []string{"black", "blk", "jet", "onyx"}},
	{"white", []string{"white", "wht", "owh", "ivory", "ecru"}},
	{"red", []string{"red", "maroon", "crimson", "scarlet", "cherry", "wine", "burgundy"}},
	{"green", []string{"green", "grn", "olive", "lime", "emerald", "sage", "mint"}},
	{"yellow", []string{"yellow", "ylw", "mustard", "lemon", "gold"}},
	{"orange", []string{"orange", "org", "rust", "amber", "peach", "coral"}},
	{"pink", []string{"pink", "pnk", "rose", "fuchsia", "magenta", "blush"}},
	{"purple", []string{"purple", "violet", "lavender", "lilac", "plum", "mauve"}},
	{"brown", []string{"brown", "brn", "tan", "chocolate", "coffee", "khaki", "mocha"}},
	{"beige", []string{"beige", "bge", "cream", "sand", "stone", "oatmeal"}},
}

// trailingAdminSuffix matches a short trailing letter token appended to
// design numbers by merchandising (department/buyer codes like "D 4578 KT")
var trailingAdminSuffix = regexp.MustCompile(`\s+[A-Za-z]{1,3}$`)

// ReconcileMetadata merges OCR-hint fields with visually derived fields for
// the allow-listed keys only, mutating values in place. Generic keys prefer
// the visual side and fall back to the tag; colour has a dedicated
// family-comparison algorithm because it is routinely present both as a
// printed tag value and as a directly observable property.
func ReconcileMetadata(schema []domain.AttributeDefinition, values map[string]*domain.AttributeValue, meta map[string]string, hint domain.OCRHint) {
	for _, key := range domain.HintKeys {
		def := findDefinition(schema, key)
		if def == nil {
			continue // not a catalog attribute for this schema
		}

		if key == domain.HintColour && def.IsControlled() {
			values[key] = reconcileColour(def, values[key], meta[key], hint)
			continue
		}

		if values[key] != nil {
			continue // visually extracted attribute wins for generic keys
		}

		merged, source := meta[key], "visual metadata"
		confidence := visualMetaConfidence
		if merged == "" || isNonAnswer(merged) {
			hinted, ok := hint.Get(key)
			if !ok {
				continue
			}
			merged, source = hinted, "printed tag"
			confidence = tagFieldConfidence
		}

		if key == domain.HintDesignNo {
			merged = stripDesignSuffix(merged)
		}

		values[key] = buildMetadataValue(def, merged, source, confidence)
	}
}

// reconcileColour resolves the tag-printed colour against the visually
// observed one. Both sides are validated independently; agreement (or an
// indeterminate family on either side) prefers the tag, a family conflict
// prefers the observation and lowers its confidence, a single validated side
// is used directly, and no validated side means absent.
func reconcileColour(def *domain.AttributeDefinition, vision *domain.AttributeValue, metaColour string, hint domain.OCRHint) *domain.AttributeValue {
	if vision == nil && metaColour != "" && !isNonAnswer(metaColour) {
		if short, ok := MatchControlled(def, metaColour); ok {
			vision = &domain.AttributeValue{
				RawValue:        metaColour,
				NormalizedValue: short,
				Confidence:      visualMetaConfidence,
				Reasoning:       "colour taken from visual metadata",
			}
		}
	}

	var ocr *domain.AttributeValue
	if raw, ok := hint.Get(domain.HintColour); ok {
		if short, matched := MatchControlled(def, raw); matched {
			ocr = &domain.AttributeValue{
				RawValue:        raw,
				NormalizedValue: short,
				Confidence:      tagFieldConfidence,
				Reasoning:       "colour transcribed from printed tag",
			}
		}
	}

	switch {
	case ocr != nil && vision != nil:
		ocrFamily := colourFamily(def, ocr.NormalizedValue)
		visionFamily := colourFamily(def, vision.NormalizedValue)
		if ocrFamily == visionFamily || ocrFamily == "" || visionFamily == "" {
			ocr.Reasoning = "printed tag colour confirmed by visual observation"
			return ocr
		}
		// tag is assumed stale or mismatched when families disagree
		vision.Confidence = max(vision.Confidence-colourConflictPenalty, 0)
		vision.Reasoning = fmt.Sprintf("tag colour %q (%s family) conflicts with observed colour (%s family); preferring observation", ocr.RawValue, ocrFamily, visionFamily)
		return vision
	case ocr != nil:
		return ocr
	case vision != nil:
		return vision
	default:
		return nil
	}
}

// colourFamily maps a validated colour short form to its coarse family by
// keyword matching against both forms of the vocabulary entry. Returns ""
// when the family is indeterminate.
func colourFamily(def *domain.AttributeDefinition, shortForm string) string {
	var haystack string
	for _, av := range def.AllowedValues {
		if av.ShortForm == shortForm {
			haystack = strings.ToLower(av.ShortForm + " " + av.FullForm)
			break
		}
	}
	if haystack == "" {
		haystack = strings.ToLower(shortForm)
	}

	for _, fam := range colourFamilies {
		for _, kw := range fam.keywords {
			if strings.Contains(haystack, kw) {
				return fam.family
			}
		}
	}
	return ""
}

// stripDesignSuffix drops a short trailing administrative letter token from a
// design-number-like value, e.g. "D 4578 KT" -> "D 4578". Values without a
// digit are left untouched.
func stripDesignSuffix(value string) string {
	value = strings.TrimSpace(value)
	stripped := trailingAdminSuffix.ReplaceAllString(value, "")
	if stripped != value && strings.ContainsAny(stripped, "0123456789") {
		return stripped
	}
	return value
}

func buildMetadataValue(def *domain.AttributeDefinition, raw, source string, confidence int) *domain.AttributeValue {
	if def.IsControlled() {
		short, ok := MatchControlled(def, raw)
		if !ok {
			return nil
		}
		return &domain.AttributeValue{
			RawValue:        raw,
			NormalizedValue: short,
			Confidence:      confidence,
			Reasoning:       fmt.Sprintf("value taken from %s", source),
		}
	}
	return &domain.AttributeValue{
		RawValue:        raw,
		NormalizedValue: raw,
		Confidence:      confidence,
		Reasoning:       fmt.Sprintf("value taken from %s", source),
	}
}

func findDefinition(schema []domain.AttributeDefinition, key string) *domain.AttributeDefinition {
	for i := range schema {
		if schema[i].Key == key {
			return &schema[i]
		}
	}
	return nil
}
