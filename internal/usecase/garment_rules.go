package usecase

import (
	"strings"

	"github.com/stylelens/backend/internal/domain"
)

// Confidence assigned to structurally injected defaults. High enough to
// survive every configured threshold.
const injectedDefaultConfidence = 70

// Canonical short forms referenced by the rule tables. These must exist in
// the taxonomy for the corresponding rule to fire.
const (
	shortImportedYarn = "IMP"
	shortPlainWeave   = "PLN"
	shortRinseWash    = "RNS"
	shortNumericPatch = "NUM"
	shortElasticBelt  = "ELS"
)

// classRule is the per-garment-class masking table. denied keys are forced
// absent; when allowed is non-empty, every key outside it is forced absent.
type classRule struct {
	denied  []string
	allowed []string
}

// classRules encodes which attributes can structurally apply to each garment
// class. GarmentUnknown and GarmentFullBody have no entry: nothing is masked
// for them.
var classRules = map[domain.GarmentClass]classRule{
	domain.GarmentTopwear: {
		denied: []string{"waistband", "belt_type", "belt_detail", "drawcord"},
	},
	domain.GarmentBottomwear: {
		denied: []string{
			"neckline", "collar", "placket", "sleeve_type", "sleeve_length",
			"front_open_style",
		},
	},
	domain.GarmentInnerwear: {
		allowed: []string{
			"fit", "pattern", "colour", "print_type", "print_placement",
			"embroidery_type", "embroidery_placement", "wash",
		},
	},
}

// beltDetailDefaults derives a belt-detail default from the belt type:
// elastic-style waistbands get an elastic insert, fixed-style ones get belt
// loops. Reviewed by merchandising alongside the taxonomy.
var beltDetailDefaults = map[string]string{
	"ELS": "ELST", // elasticated waistband -> elastic insert
	"DRW": "ELST", // drawstring counts as elastic-style
	"FXD": "LOOP", // fixed waistband -> belt loops
}

// ApplyGarmentRules runs the category-conditioned correction pass over the
// validated value map, in place: class masking and default injection first,
// then the class-independent cross-attribute corrections. The pass is
// idempotent - running it twice yields the same map.
func ApplyGarmentRules(class domain.GarmentClass, categoryLabel string, schema []domain.AttributeDefinition, values map[string]*domain.AttributeValue) {
	applyClassRule(class, schema, values)

	if class == domain.GarmentBottomwear {
		injectBeltDefaults(schema, values)
	}

	applyCrossRules(categoryLabel, schema, values)
}

func applyClassRule(class domain.GarmentClass, schema []domain.AttributeDefinition, values map[string]*domain.AttributeValue) {
	rule, ok := classRules[class]
	if !ok {
		return
	}

	for _, key := range rule.denied {
		if _, present := values[key]; present {
			values[key] = nil
		}
	}

	if len(rule.allowed) > 0 {
		allowed := make(map[string]bool, len(rule.allowed))
		for _, key := range rule.allowed {
			allowed[key] = true
		}
		for i := range schema {
			if !allowed[schema[i].Key] {
				values[schema[i].Key] = nil
			}
		}
	}
}

// injectBeltDefaults fills in the structural waistband attributes virtually
// every bottomwear garment has: a belt-type default when the model returned
// none, and a belt-detail derived from whichever belt type is present.
func injectBeltDefaults(schema []domain.AttributeDefinition, values map[string]*domain.AttributeValue) {
	beltDef := findDefinition(schema, "belt_type")
	if beltDef != nil && values["belt_type"] == nil {
		if short, ok := MatchControlled(beltDef, shortElasticBelt); ok {
			values["belt_type"] = &domain.AttributeValue{
				RawValue:        short,
				NormalizedValue: short,
				Confidence:      injectedDefaultConfidence,
				Reasoning:       "structural default for bottomwear waistband",
			}
		}
	}

	detailDef := findDefinition(schema, "belt_detail")
	if detailDef == nil || values["belt_detail"] != nil {
		return
	}
	belt := values["belt_type"]
	if belt == nil {
		return
	}
	detail, ok := beltDetailDefaults[belt.NormalizedValue]
	if !ok {
		return
	}
	if short, matched := MatchControlled(detailDef, detail); matched {
		values["belt_detail"] = &domain.AttributeValue{
			RawValue:        short,
			NormalizedValue: short,
			Confidence:      injectedDefaultConfidence,
			Reasoning:       "derived from belt type " + belt.NormalizedValue,
		}
	}
}

// applyCrossRules runs the class-independent derived corrections
func applyCrossRules(categoryLabel string, schema []domain.AttributeDefinition, values map[string]*domain.AttributeValue) {
	// Imported-fabric tags do not reliably disclose weave
	if hasNormalized(values, "yarn_1", shortImportedYarn) || hasNormalized(values, "yarn_2", shortImportedYarn) {
		if _, present := values["weave"]; present {
			values["weave"] = nil
		}
	}

	// Denim is twill by construction; a plain weave on a denim garment is a
	// model hallucination
	if IsDenimCategory(categoryLabel) && hasNormalized(values, "weave", shortPlainWeave) {
		values["weave"] = nil
	}

	// Default wash when no wash effect is visually distinguishable
	washDef := findDefinition(schema, "wash")
	if washDef != nil && values["wash"] == nil {
		if short, ok := MatchControlled(washDef, shortRinseWash); ok {
			values["wash"] = &domain.AttributeValue{
				RawValue:        short,
				NormalizedValue: short,
				Confidence:      injectedDefaultConfidence,
				Reasoning:       "no wash effect distinguishable; rinse finish assumed",
			}
		}
	}

	// Digits visible on a decorative patch make it numeric-class regardless
	// of what the model proposed
	patchDef := findDefinition(schema, "patch_type")
	if patchDef != nil {
		if patch := values["patch_type"]; patch != nil && patch.NormalizedValue != shortNumericPatch && containsDigit(patch.RawValue+" "+patch.Reasoning) {
			if short, ok := MatchControlled(patchDef, shortNumericPatch); ok {
				values["patch_type"] = &domain.AttributeValue{
					RawValue:        patch.RawValue,
					NormalizedValue: short,
					Confidence:      patch.Confidence,
					Reasoning:       "digit characters present on patch",
				}
			}
		}
	}
}

func hasNormalized(values map[string]*domain.AttributeValue, key, short string) bool {
	v := values[key]
	return v != nil && v.NormalizedValue == short
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
