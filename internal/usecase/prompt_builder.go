package usecase

import (
	"fmt"
	"strings"

	"github.com/stylelens/backend/internal/domain"
)

// BuildOCRPrompt creates the prompt for the OCR pre-pass: a verbatim
// transcription of the printed tag/board, field by field. A single unclear
// character nulls the whole field - the model must never partially guess.
func BuildOCRPrompt(ctx *domain.ExtractionContext) string {
	var b strings.Builder

	b.WriteString(`You are reading a physical garment tag, label or specification board photographed in this image.

Transcribe ONLY the printed text. Do NOT describe the garment and do NOT infer values that are not printed.

Return ONLY a valid JSON object with this exact structure:

{
  "metadata": {
`)
	for i, key := range domain.HintKeys {
		b.WriteString(fmt.Sprintf("    %q: \"printed value or null\"", key))
		if i < len(domain.HintKeys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(`  },
  "attributes": {}
}

TRANSCRIPTION RULES:
- Copy each field EXACTLY as printed, character for character
- If a single character of a field is unclear, blurry or cut off, return null for the WHOLE field - never guess part of a value
- If the field is not present on the tag, return null
- Do not translate, expand abbreviations, or normalize casing
- Return ONLY the JSON object, no markdown fences, no commentary`)

	return b.String()
}

// BuildMainPrompt creates the full visual-analysis prompt. For every
// controlled attribute the complete allowed-value list is embedded verbatim -
// the model is never permitted to invent values outside it. When an OCR hint
// is available it is embedded for its allow-listed keys only, marked as
// advisory.
func BuildMainPrompt(ctx *domain.ExtractionContext, hint domain.OCRHint) string {
	var b strings.Builder

	b.WriteString(`You are a fashion merchandising expert analyzing a garment image for catalog entry.

`)
	b.WriteString(fmt.Sprintf("Garment category: %s\n", ctx.CategoryLabel))
	if ctx.DepartmentLabel != "" {
		b.WriteString(fmt.Sprintf("Department: %s\n", ctx.DepartmentLabel))
	}

	b.WriteString(`
Extract a value for each attribute listed below. For controlled attributes you MUST pick a value from the allowed list (use the SHORT form) or return null - NEVER invent a value outside the list.

ATTRIBUTES:
`)
	for _, def := range ctx.Schema {
		if def.IsControlled() {
			b.WriteString(fmt.Sprintf("- %s (%s), allowed values:\n", def.Key, def.Label))
			for _, av := range def.AllowedValues {
				b.WriteString(fmt.Sprintf("    %s = %s\n", av.ShortForm, av.FullForm))
			}
		} else {
			b.WriteString(fmt.Sprintf("- %s (%s): free text, short and factual\n", def.Key, def.Label))
		}
	}

	if hint.Available && len(hint.Fields) > 0 {
		b.WriteString(`
TAG TRANSCRIPTION HINTS (advisory only):
The following fields were transcribed from the printed tag. They apply ONLY to the field they name - do not let them influence any other attribute. Printed tags can be stale or mismatched; trust your own observation when they clearly disagree with the garment.
`)
		for _, key := range domain.HintKeys {
			if v, ok := hint.Get(key); ok {
				b.WriteString(fmt.Sprintf("  %s: %s\n", key, v))
			}
		}
	}

	b.WriteString(`
Return ONLY a valid JSON object with this structure:

{
  "metadata": {
    "division": "...", "vendor": "...", "design_no": "...", "ppt_no": "...",
    "rate": "...", "size": "...", "major_category": "...", "gsm": "...",
    "yarn_1": "...", "yarn_2": "...", "fabric_main": "...", "colour": "..."
  },
  "attributes": {
    "<attribute_key>": {
      "raw_value": "chosen SHORT form or free text",
      "confidence": 0-100,
      "reasoning": "one sentence on what you observed"
    }
  }
}

OUTPUT RULES:
- Include every attribute key listed above; use null for attributes you cannot determine
- confidence is an integer 0-100 reflecting how clearly the property is visible
- Metadata fields you cannot read or infer should be null
- Return ONLY the JSON object, no markdown fences, no commentary`)

	return b.String()
}
