package capability

// Capability identifies one logical operation exposed by the gateway,
// independent of which provider serves it.
type Capability string

const (
	Chat          Capability = "chat"
	DescribeImage Capability = "describe-image"
	AnalyzeImage  Capability = "analyze-image"
	ClassifyImage Capability = "classify-image"
	CompareImages Capability = "compare-images"
	OCR           Capability = "ocr"
	BatchOCR      Capability = "batch-ocr"
	BatchAnalyze  Capability = "batch-analyze"
	SendMessage   Capability = "send-message"
	Speech        Capability = "tts"
)

// Image is one binary payload attached to a request, already validated by
// the upload intake.
type Image struct {
	Bytes  []byte
	Format string
}
