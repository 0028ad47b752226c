package usecase

import (
	"strings"

	"github.com/stylelens/backend/internal/domain"
)

// Keyword sets for garment classification. Matching is ordered: full-body
// first (a full-body garment keeps both top and bottom attributes, so it must
// win when e.g. "co-ord set" also mentions a trouser), then innerwear and
// accessories, then bottomwear, then topwear.
var fullBodyKeywords = []string{
	"dress", "jumpsuit", "dungaree", "romper", "co-ord", "coord set",
	"gown", "overall", "playsuit", "set",
}

var innerwearKeywords = []string{
	"brief", "boxer", "trunk", "innerwear", "lingerie", "bra", "camisole",
	"vest", "sock", "cap", "scarf", "accessor",
}

var bottomwearKeywords = []string{
	"jean", "denim", "pant", "trouser", "short", "skirt", "jogger",
	"cargo", "chino", "legging", "palazzo", "culotte", "track",
}

var topwearKeywords = []string{
	"shirt", "t-shirt", "tee", "top", "blouse", "polo", "sweat", "hoodie",
	"jacket", "kurta", "tunic", "pullover", "cardigan", "blazer", "coat",
}

// ClassifyGarment maps a category label to a coarse garment class. Unknown
// categories classify as GarmentUnknown, under which no structural masking
// is applied.
func ClassifyGarment(categoryLabel string) domain.GarmentClass {
	label := strings.ToLower(strings.TrimSpace(categoryLabel))
	if label == "" {
		return domain.GarmentUnknown
	}

	if matchesAny(label, fullBodyKeywords) {
		return domain.GarmentFullBody
	}
	if matchesAny(label, innerwearKeywords) {
		return domain.GarmentInnerwear
	}
	if matchesAny(label, bottomwearKeywords) {
		return domain.GarmentBottomwear
	}
	if matchesAny(label, topwearKeywords) {
		return domain.GarmentTopwear
	}

	return domain.GarmentUnknown
}

// IsDenimCategory reports whether the category label indicates a denim/jeans
// garment, which carries its own weave restrictions
func IsDenimCategory(categoryLabel string) bool {
	label := strings.ToLower(categoryLabel)
	return strings.Contains(label, "denim") || strings.Contains(label, "jean")
}

func matchesAny(label string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}
