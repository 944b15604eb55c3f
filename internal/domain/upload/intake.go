package upload

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Blindtools/Api/internal/platform/config"
	"github.com/Blindtools/Api/internal/platform/errors"
	"github.com/Blindtools/Api/internal/utils"
)

// ErrOnlyImages is the fixed client-facing message for mimetype violations.
const ErrOnlyImages = "Only image files are allowed."

var dataURLPrefix = regexp.MustCompile(`^data:image/[a-zA-Z0-9.+-]+;base64,`)

// Intake turns raw multipart files or base64 strings into validated
// artifacts. One intake instance is shared by all handlers.
type Intake struct {
	cfg       config.UploadConfig
	logger    *utils.Logger
	validator *validator
}

func NewIntake(cfg config.UploadConfig, logger *utils.Logger) *Intake {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &Intake{
		cfg:       cfg,
		logger:    logger,
		validator: &validator{cfg: cfg},
	}
}

// FromFileHeader ingests one multipart file field.
func (i *Intake) FromFileHeader(fh *multipart.FileHeader) (*Artifact, error) {
	// Clients that never sniff (curl, form libraries) send
	// application/octet-stream for real images, so only an explicit
	// non-image type is rejected here. The signature check below still
	// guards the payload itself.
	contentType := strings.ToLower(fh.Header.Get("Content-Type"))
	if contentType != "" && contentType != "application/octet-stream" &&
		!strings.HasPrefix(contentType, "image/") {
		return nil, errors.New(errors.KindUpload, "upload.intake", ErrOnlyImages)
	}
	if i.cfg.MaxFileSize > 0 && fh.Size > i.cfg.MaxFileSize {
		return nil, errors.New(errors.KindUpload, "upload.intake",
			fmt.Sprintf("File exceeds the %dMB limit", i.cfg.MaxFileSize/1024/1024))
	}

	file, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(errors.KindUpload, "upload.intake", "failed to read uploaded file", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if i.cfg.MaxFileSize > 0 {
		// +1 so an understated header size still trips the check below.
		reader = io.LimitReader(file, i.cfg.MaxFileSize+1)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(errors.KindUpload, "upload.intake", "failed to read uploaded file", err)
	}
	if i.cfg.MaxFileSize > 0 && int64(len(raw)) > i.cfg.MaxFileSize {
		return nil, errors.New(errors.KindUpload, "upload.intake",
			fmt.Sprintf("File exceeds the %dMB limit", i.cfg.MaxFileSize/1024/1024))
	}

	return i.ingest(raw, fh.Filename, contentType)
}

// FromBase64 ingests an inline base64 payload, stripping an optional
// data:image/...;base64, scheme marker first.
func (i *Intake) FromBase64(data string) (*Artifact, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, errors.New(errors.KindValidation, "upload.intake", "Image data is required")
	}
	data = dataURLPrefix.ReplaceAllString(data, "")

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(errors.KindUpload, "upload.intake", "Invalid base64 image data", err)
	}

	return i.ingest(raw, "", "")
}

func (i *Intake) ingest(raw []byte, filename, contentType string) (*Artifact, error) {
	result, err := i.validator.validate(raw)
	if err != nil {
		// A payload that fails image validation is by definition not an
		// accepted image type.
		if strings.Contains(err.Error(), "unrecognized image signature") ||
			strings.Contains(err.Error(), "decode image header") {
			return nil, errors.Wrap(errors.KindUpload, "upload.intake", ErrOnlyImages, err)
		}
		return nil, errors.Wrap(errors.KindUpload, "upload.intake", err.Error(), err)
	}

	artifact := &Artifact{
		Bytes:    raw,
		Filename: filename,
		Mime:     contentType,
		Format:   result.Format,
		Size:     int64(len(raw)),
	}

	if i.cfg.TempDir != "" {
		if err := i.spool(artifact); err != nil {
			return nil, err
		}
	}

	i.logger.DebugTag("HTTP", "upload accepted: format=%s size=%d dims=%dx%d",
		result.Format, artifact.Size, result.Width, result.Height)

	return artifact, nil
}

// spool writes the payload to a uuid-named temp file so downstream
// consumers that want a path get one. Release removes it.
func (i *Intake) spool(a *Artifact) error {
	if err := os.MkdirAll(i.cfg.TempDir, 0o755); err != nil {
		return errors.Wrap(errors.KindUpload, "upload.spool", "failed to create upload directory", err)
	}
	path := filepath.Join(i.cfg.TempDir, fmt.Sprintf("%s.%s", uuid.NewString(), a.Format))
	if err := os.WriteFile(path, a.Bytes, 0o644); err != nil {
		return errors.Wrap(errors.KindUpload, "upload.spool", "failed to write temp file", err)
	}
	a.tempPath = path
	return nil
}
