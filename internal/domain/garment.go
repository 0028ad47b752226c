package domain

// GarmentClass is the coarse structural category of a garment, used to decide
// which attributes can structurally apply to it
type GarmentClass string

const (
	GarmentTopwear   GarmentClass = "topwear"
	GarmentBottomwear GarmentClass = "bottomwear"
	GarmentFullBody  GarmentClass = "fullbody"
	GarmentInnerwear GarmentClass = "innerwear_accessory"
	GarmentUnknown   GarmentClass = "unknown"
)

// OCRHint carries the fields transcribed from a printed tag by the OCR
// pre-pass. Available is false when the pre-pass failed or returned nothing,
// which degrades the pipeline to hint-free operation rather than failing it.
type OCRHint struct {
	Available bool
	Fields    map[string]string
}

// NoHint is the hint used when the OCR pre-pass failed or was skipped
func NoHint() OCRHint {
	return OCRHint{Available: false}
}

// OCR hint keys the reconciler is allowed to consume. Using a hint for any
// key outside this list is a pipeline bug, not a feature.
const (
	HintDivision      = "division"
	HintVendor        = "vendor"
	HintDesignNo      = "design_no"
	HintPPTNo         = "ppt_no"
	HintRate          = "rate"
	HintSize          = "size"
	HintMajorCategory = "major_category"
	HintGSM           = "gsm"
	HintYarn1         = "yarn_1"
	HintYarn2         = "yarn_2"
	HintFabricMain    = "fabric_main"
	HintColour        = "colour"
)

// HintKeys is the fixed allow-list of OCR hint keys, in tag order
var HintKeys = []string{
	HintDivision, HintVendor, HintDesignNo, HintPPTNo,
	HintRate, HintSize, HintMajorCategory, HintGSM,
	HintYarn1, HintYarn2, HintFabricMain, HintColour,
}

// IsHintKey reports whether key is on the OCR allow-list
func IsHintKey(key string) bool {
	for _, k := range HintKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the hint value for an allow-listed key, if present
func (h OCRHint) Get(key string) (string, bool) {
	if !h.Available || !IsHintKey(key) {
		return "", false
	}
	v, ok := h.Fields[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
