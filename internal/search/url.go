// Package search builds links to the property search service.
package search

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"vozbusca/internal/domain"
	"vozbusca/internal/query"
)

var ErrInvalidBaseURL = errors.New("invalid search base URL")

// BuildURL appends an encoded query to base, keeping any query parameters
// base already carries.
func BuildURL(base string, encoded string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseURL, base)
	}

	switch {
	case encoded == "":
	case parsed.RawQuery == "":
		parsed.RawQuery = encoded
	default:
		parsed.RawQuery = parsed.RawQuery + "&" + encoded
	}
	return parsed.String(), nil
}

// URLFor encodes q and builds its search link.
func URLFor(base string, q domain.ParsedQuery) (string, error) {
	return BuildURL(base, query.Encode(q))
}
