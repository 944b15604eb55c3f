package vision

import (
	"fmt"
	"strings"

	"github.com/Blindtools/Api/internal/domain/capability"
)

// Fixed instruction templates per capability and discriminator. These are
// the only prompts ever sent; request text never reaches the model for
// image capabilities.

var describePrompts = map[string]string{
	"brief":    "Describe this image in one or two short sentences.",
	"detailed": "Describe this image thoroughly: the setting, every notable object, any people and what they are doing, visible text, and the overall mood.",
	"accessibility": "Describe this image for a blind user, the way screen-reader " +
		"alternative text would: lead with the most important information, " +
		"mention colors only when they matter, and read out any visible text word for word.",
	"standard": "Describe what you see in this image.",
}

var analysisPrompts = map[string]string{
	"general": "Analyze this image and summarize its content.",
	"objects": "List every distinct object visible in this image.",
	"text":    "Identify and transcribe any text visible in this image.",
	"colors":  "Describe the dominant colors and overall color palette of this image.",
	"scene":   "Describe the scene, the likely location and the context of this image.",
}

var comparisonPrompts = map[string]string{
	"general":      "Compare these two images and describe how they relate to each other.",
	"differences":  "List the differences between these two images.",
	"similarities": "List the similarities between these two images.",
}

var ocrLanguageNames = map[string]string{
	"eng": "English",
	"spa": "Spanish",
	"fra": "French",
	"deu": "German",
	"por": "Portuguese",
	"ita": "Italian",
}

// Instruction selects the fixed prompt for an image capability.
func Instruction(c capability.Capability, opts capability.Options) string {
	switch c {
	case capability.DescribeImage:
		return describePrompts[opts.DetailLevel]
	case capability.AnalyzeImage, capability.BatchAnalyze:
		return analysisPrompts[opts.AnalysisType]
	case capability.CompareImages:
		return comparisonPrompts[opts.ComparisonType]
	case capability.ClassifyImage:
		return classifyInstruction(opts.Categories)
	case capability.OCR, capability.BatchOCR:
		return ocrInstruction(opts)
	default:
		return describePrompts["standard"]
	}
}

func classifyInstruction(categories []string) string {
	if len(categories) == 0 {
		return "Classify this image with the single most fitting label. Answer with the label only."
	}
	return fmt.Sprintf(
		"Classify this image into exactly one of the following categories: %s. Answer with the category name only.",
		strings.Join(categories, ", "))
}

func ocrInstruction(opts capability.Options) string {
	var b strings.Builder
	b.WriteString("Extract all text from this image verbatim, preserving the original line breaks. ")
	b.WriteString("If the image contains no text, state that explicitly.")
	if name, ok := ocrLanguageNames[opts.Language]; ok {
		b.WriteString(fmt.Sprintf(" The text is in %s.", name))
	}
	if opts.ExtractTables {
		b.WriteString(" Preserve any tables using a plain text layout.")
	}
	return b.String()
}
