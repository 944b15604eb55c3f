package upload

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/Blindtools/Api/internal/platform/config"
)

var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46},
	"bmp":  {0x42, 0x4D},
}

// validator performs layered checks against inbound image payloads: size
// cap, magic-byte sniff, allow-list, then a real header decode for the
// dimension caps.
type validator struct {
	cfg config.UploadConfig
}

type validationResult struct {
	Format string
	Width  int
	Height int
}

func (v *validator) validate(raw []byte) (*validationResult, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	if v.cfg.MaxFileSize > 0 && int64(len(raw)) > v.cfg.MaxFileSize {
		return nil, fmt.Errorf("file exceeds the %dMB limit", v.cfg.MaxFileSize/1024/1024)
	}

	format := sniffFormat(raw)
	if format == "" {
		return nil, fmt.Errorf("unrecognized image signature")
	}
	if !v.formatAllowed(format) {
		return nil, fmt.Errorf("image format %s is not allowed", format)
	}

	cfg, decodedFormat, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if decodedFormat != "" {
		format = decodedFormat
	}

	if v.cfg.MaxWidth > 0 && cfg.Width > v.cfg.MaxWidth {
		return nil, fmt.Errorf("image width %d exceeds limit %d", cfg.Width, v.cfg.MaxWidth)
	}
	if v.cfg.MaxHeight > 0 && cfg.Height > v.cfg.MaxHeight {
		return nil, fmt.Errorf("image height %d exceeds limit %d", cfg.Height, v.cfg.MaxHeight)
	}
	if v.cfg.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > v.cfg.MaxPixels {
		return nil, fmt.Errorf("image pixel count exceeds limit")
	}

	return &validationResult{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

func (v *validator) formatAllowed(format string) bool {
	if len(v.cfg.AllowedFormats) == 0 {
		return true
	}
	for _, allowed := range v.cfg.AllowedFormats {
		if strings.EqualFold(allowed, format) {
			return true
		}
	}
	return false
}

func sniffFormat(raw []byte) string {
	for format, sig := range imageSignatures {
		if len(raw) >= len(sig) && bytes.Equal(raw[:len(sig)], sig) {
			if format == "jpg" {
				continue // jpeg entry covers it
			}
			return format
		}
	}
	return ""
}
