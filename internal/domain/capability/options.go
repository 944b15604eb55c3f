package capability

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Blindtools/Api/internal/platform/errors"
)

// Options carries every recognized per-request knob after one typed parsing
// pass. Unknown discriminator values fall back to their documented default;
// malformed numerics are validation errors.
type Options struct {
	Model          string
	Provider       string
	DetailLevel    string
	AnalysisType   string
	ComparisonType string
	Categories     []string
	Language       string
	ExtractTables  bool
	MaxTokens      int
	Temperature    float64
	Voice          string
}

const (
	DefaultDetailLevel    = "standard"
	DefaultAnalysisType   = "general"
	DefaultComparisonType = "general"
	DefaultLanguage       = "auto"
)

var detailLevels = map[string]bool{
	"brief":         true,
	"detailed":      true,
	"accessibility": true,
	"standard":      true,
}

var analysisTypes = map[string]bool{
	"general": true,
	"objects": true,
	"text":    true,
	"colors":  true,
	"scene":   true,
}

var comparisonTypes = map[string]bool{
	"general":      true,
	"differences":  true,
	"similarities": true,
}

// Supported OCR language codes. "auto" lets the provider detect.
var languages = map[string]bool{
	"auto": true,
	"eng":  true,
	"spa":  true,
	"fra":  true,
	"deu":  true,
	"por":  true,
	"ita":  true,
}

// ParseOptions coerces the loose string values collected from a request
// body or form into a typed Options value. It runs exactly once per
// request, before any provider adapter is consulted.
func ParseOptions(c Capability, raw map[string]string) (Options, error) {
	opts := Options{
		DetailLevel:    DefaultDetailLevel,
		AnalysisType:   DefaultAnalysisType,
		ComparisonType: DefaultComparisonType,
		Language:       DefaultLanguage,
	}

	opts.Model = strings.TrimSpace(raw["model"])
	opts.Provider = strings.ToLower(strings.TrimSpace(raw["provider"]))
	opts.Voice = strings.TrimSpace(raw["voice"])

	if v := normalize(raw["detail_level"]); v != "" {
		if detailLevels[v] {
			opts.DetailLevel = v
		}
	}
	if v := normalize(raw["analysis_type"]); v != "" {
		if analysisTypes[v] {
			opts.AnalysisType = v
		}
	}
	if v := normalize(raw["comparison_type"]); v != "" {
		if comparisonTypes[v] {
			opts.ComparisonType = v
		}
	}

	if v := normalize(raw["language"]); v != "" {
		if !languages[v] {
			return opts, errors.New(errors.KindValidation, "parse_options",
				fmt.Sprintf("Unsupported language: %s", v))
		}
		opts.Language = v
	}

	if v := strings.TrimSpace(raw["categories"]); v != "" {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				opts.Categories = append(opts.Categories, c)
			}
		}
	}

	if v := normalize(raw["extract_tables"]); v != "" {
		opts.ExtractTables = v == "true" || v == "1" || v == "yes"
	}

	if v := strings.TrimSpace(raw["max_tokens"]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, errors.New(errors.KindValidation, "parse_options",
				"max_tokens must be a positive integer")
		}
		opts.MaxTokens = n
	}

	if v := strings.TrimSpace(raw["temperature"]); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 2 {
			return opts, errors.New(errors.KindValidation, "parse_options",
				"temperature must be a number between 0 and 2")
		}
		opts.Temperature = f
	}

	return opts, nil
}

// Languages returns the fixed supported OCR language set, for /models.
func Languages() []string {
	return []string{"auto", "eng", "spa", "fra", "deu", "por", "ita"}
}

// DetailLevels returns the recognized describe-image discriminators.
func DetailLevels() []string {
	return []string{"brief", "detailed", "accessibility", "standard"}
}

// AnalysisTypes returns the recognized analyze-image discriminators.
func AnalysisTypes() []string {
	return []string{"general", "objects", "text", "colors", "scene"}
}

// ComparisonTypes returns the recognized compare-images discriminators.
func ComparisonTypes() []string {
	return []string{"general", "differences", "similarities"}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
