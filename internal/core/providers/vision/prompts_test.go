package vision

import (
	"strings"
	"testing"

	"github.com/Blindtools/Api/internal/domain/capability"
)

func baseOptions() capability.Options {
	return capability.Options{
		DetailLevel:    capability.DefaultDetailLevel,
		AnalysisType:   capability.DefaultAnalysisType,
		ComparisonType: capability.DefaultComparisonType,
		Language:       capability.DefaultLanguage,
	}
}

func TestInstruction_DescribeLevels(t *testing.T) {
	seen := map[string]bool{}
	for _, level := range []string{"brief", "detailed", "accessibility", "standard"} {
		opts := baseOptions()
		opts.DetailLevel = level
		prompt := Instruction(capability.DescribeImage, opts)
		if prompt == "" {
			t.Errorf("no prompt for detail level %q", level)
		}
		if seen[prompt] {
			t.Errorf("detail level %q shares a prompt with another level", level)
		}
		seen[prompt] = true
	}
}

func TestInstruction_OCR(t *testing.T) {
	opts := baseOptions()
	prompt := Instruction(capability.OCR, opts)

	if !strings.Contains(prompt, "verbatim") {
		t.Errorf("ocr prompt should demand verbatim extraction: %q", prompt)
	}
	if !strings.Contains(prompt, "no text") {
		t.Errorf("ocr prompt should cover the empty case explicitly: %q", prompt)
	}
	if strings.Contains(prompt, "The text is in") {
		t.Errorf("auto language should not pin a language: %q", prompt)
	}

	opts.Language = "spa"
	opts.ExtractTables = true
	prompt = Instruction(capability.BatchOCR, opts)
	if !strings.Contains(prompt, "Spanish") {
		t.Errorf("spa should mention Spanish: %q", prompt)
	}
	if !strings.Contains(prompt, "tables") {
		t.Errorf("extract_tables should extend the prompt: %q", prompt)
	}
}

func TestInstruction_Classify(t *testing.T) {
	opts := baseOptions()
	prompt := Instruction(capability.ClassifyImage, opts)
	if !strings.Contains(prompt, "label only") {
		t.Errorf("open classification prompt: %q", prompt)
	}

	opts.Categories = []string{"food", "animal"}
	prompt = Instruction(capability.ClassifyImage, opts)
	if !strings.Contains(prompt, "food, animal") {
		t.Errorf("category list missing from prompt: %q", prompt)
	}
}

func TestInstruction_Compare(t *testing.T) {
	for _, ct := range []string{"general", "differences", "similarities"} {
		opts := baseOptions()
		opts.ComparisonType = ct
		if Instruction(capability.CompareImages, opts) == "" {
			t.Errorf("no prompt for comparison type %q", ct)
		}
	}
}

func TestInstruction_Analysis(t *testing.T) {
	for _, at := range []string{"general", "objects", "text", "colors", "scene"} {
		opts := baseOptions()
		opts.AnalysisType = at
		if Instruction(capability.AnalyzeImage, opts) == "" {
			t.Errorf("no prompt for analysis type %q", at)
		}
	}
}
