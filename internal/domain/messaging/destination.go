package messaging

import (
	"strings"

	"github.com/Blindtools/Api/internal/platform/errors"
)

const (
	userSuffix  = "@c.us"
	groupSuffix = "@g.us"
)

// Button is a single tappable choice attached to an interactive message.
type Button struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// ResolveDestination normalizes a recipient identifier into the JID the
// gateway expects. Identifiers already carrying a @c.us or @g.us suffix
// pass through unchanged; bare numbers are stripped of separators and
// suffixed according to isGroup.
func ResolveDestination(to string, isGroup bool) (string, error) {
	const op = "messaging.ResolveDestination"

	to = strings.TrimSpace(to)
	if to == "" {
		return "", errors.New(errors.KindValidation, op, "Number and message are required")
	}
	if strings.HasSuffix(to, userSuffix) || strings.HasSuffix(to, groupSuffix) {
		return to, nil
	}

	var digits strings.Builder
	for _, r := range to {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return "", errors.New(errors.KindValidation, op, "Invalid recipient number")
	}
	if isGroup {
		return digits.String() + groupSuffix, nil
	}
	return digits.String() + userSuffix, nil
}
