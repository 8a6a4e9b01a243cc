// Package normalize canonicalizes URLs so that cosmetic variants of the same
// address collapse to one string for duplicate detection.
package normalize

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// trackingParams are query parameters that never change the destination and
// are dropped during normalization.
var trackingParams = map[string]bool{
	"fbclid":       true,
	"gclid":        true,
	"igshid":       true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
	"ref_src":      true,
	"utm_campaign": true,
	"utm_content":  true,
	"utm_medium":   true,
	"utm_source":   true,
	"utm_term":     true,
}

var errUnsupportedScheme = errors.New("only http and https URLs are supported")

// URL returns the canonical form of raw:
// scheme and host lowercased, default ports dropped, tracking query
// parameters removed, remaining parameters sorted, fragment dropped, and a
// single trailing slash on the root path collapsed.
func URL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", errUnsupportedScheme
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	if u.Host == "" {
		return "", errors.New("url has no host")
	}

	// Drop default ports.
	if (scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}

	u.Fragment = ""

	q := u.Query()
	for name := range q {
		if trackingParams[strings.ToLower(name)] {
			q.Del(name)
		}
	}
	// Encode sorts keys, so parameter order never affects the result.
	u.RawQuery = q.Encode()

	if u.Path == "/" {
		u.Path = ""
	} else {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// Domain extracts the host of raw without port, lowercased, with a leading
// "www." trimmed. Returns "" when raw does not parse.
func Domain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
