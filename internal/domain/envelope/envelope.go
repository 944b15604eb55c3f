package envelope

import (
	"net/http"
	"time"

	"github.com/Blindtools/Api/internal/platform/errors"
)

// Descriptor is the normalized failure shape produced at the request
// boundary. ProviderErr carries the downstream error text for diagnostics
// and is never a stack trace.
type Descriptor struct {
	Kind        errors.Kind
	Message     string
	ProviderErr string
}

// Fields is the JSON object written to the client. Every endpoint returns
// this shape and nothing else.
type Fields map[string]interface{}

// StatusFor maps a failure kind to its fixed HTTP status.
func StatusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation, errors.KindUpload:
		return http.StatusBadRequest
	case errors.KindNotReady:
		return http.StatusServiceUnavailable
	case errors.KindUnavailable, errors.KindProvider:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Timestamp returns the ISO8601 instant stamped onto success envelopes.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Success wraps payload fields into the uniform success envelope.
func Success(payload Fields) Fields {
	out := Fields{
		"success":   true,
		"timestamp": Timestamp(),
	}
	for k, v := range payload {
		if k == "success" || k == "timestamp" {
			continue
		}
		out[k] = v
	}
	return out
}

// Failure wraps a descriptor into the uniform error envelope.
func Failure(desc Descriptor) Fields {
	return Fields{
		"success": false,
		"error":   desc.Message,
	}
}

// FromError converts any error into a status code and descriptor. Untyped
// faults degrade to a generic provider-error so the client still receives a
// well-formed envelope.
func FromError(err error) (int, Descriptor) {
	kind := errors.KindOf(err)
	switch kind {
	case errors.KindValidation, errors.KindUpload, errors.KindNotReady,
		errors.KindUnavailable, errors.KindProvider:
		desc := Descriptor{Kind: kind, Message: messageOf(err)}
		if typed, ok := err.(*errors.Error); ok && typed.Cause != nil {
			desc.ProviderErr = typed.Cause.Error()
		}
		return StatusFor(kind), desc
	default:
		return http.StatusInternalServerError, Descriptor{
			Kind:    errors.KindProvider,
			Message: "Internal processing error",
		}
	}
}

func messageOf(err error) string {
	if typed, ok := err.(*errors.Error); ok && typed.Message != "" {
		return typed.Message
	}
	return err.Error()
}
