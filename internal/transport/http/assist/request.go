package assist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Blindtools/Api/internal/domain/upload"
	"github.com/Blindtools/Api/internal/platform/errors"

	"github.com/gin-gonic/gin"
)

// input is the decoded request before option parsing: loose string
// values plus the validated image artifacts in attachment order.
type input struct {
	values    map[string]string
	artifacts []*upload.Artifact
}

func (in *input) release() {
	upload.ReleaseAll(in.artifacts)
}

// decode reads either a multipart form or a JSON body. Multipart image
// parts may arrive under the "image" or "images" field; JSON bodies
// carry base64 strings under the same keys.
func (s *Service) decode(c *gin.Context) (*input, error) {
	const op = "assist.decode"

	in := &input{values: make(map[string]string)}
	contentType := c.ContentType()

	if strings.HasPrefix(contentType, "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, errors.Wrap(errors.KindValidation, op, "Invalid multipart form", err)
		}
		for key, vals := range form.Value {
			if len(vals) > 0 {
				in.values[key] = vals[0]
			}
		}
		for _, field := range []string{"image", "images"} {
			for _, fh := range form.File[field] {
				artifact, err := s.intake.FromFileHeader(fh)
				if err != nil {
					in.release()
					return nil, err
				}
				in.artifacts = append(in.artifacts, artifact)
			}
		}
		return in, nil
	}

	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return in, nil
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, errors.Wrap(errors.KindValidation, op, "Invalid JSON body", err)
	}
	for key, val := range body {
		switch key {
		case "image":
			if data, ok := val.(string); ok {
				artifact, err := s.intake.FromBase64(data)
				if err != nil {
					in.release()
					return nil, err
				}
				in.artifacts = append(in.artifacts, artifact)
			}
		case "images":
			list, ok := val.([]interface{})
			if !ok {
				in.release()
				return nil, errors.New(errors.KindValidation, op, "images must be an array of base64 strings")
			}
			for _, item := range list {
				data, ok := item.(string)
				if !ok {
					in.release()
					return nil, errors.New(errors.KindValidation, op, "images must be an array of base64 strings")
				}
				artifact, err := s.intake.FromBase64(data)
				if err != nil {
					in.release()
					return nil, err
				}
				in.artifacts = append(in.artifacts, artifact)
			}
		default:
			in.values[key] = stringify(val)
		}
	}
	return in, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case nil:
		return ""
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
