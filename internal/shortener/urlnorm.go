package shortener

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a target URL so equivalent spellings hash
// identically.
// - Lowercases the scheme and host
// - Removes default ports (80 for http, 443 for https)
// - Removes trailing slashes from path (unless path is just "/")
// - Removes the fragment
// Only absolute http and https targets are accepted; anything else
// returns ErrInvalidURL.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", ErrInvalidURL
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrInvalidURL
	}

	if u.Host == "" {
		return "", ErrInvalidURL
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)

	// Remove default ports
	host := u.Host
	if strings.HasSuffix(host, ":80") && u.Scheme == "http" {
		u.Host = strings.TrimSuffix(host, ":80")
	} else if strings.HasSuffix(host, ":443") && u.Scheme == "https" {
		u.Host = strings.TrimSuffix(host, ":443")
	}

	// Remove trailing slash from path (but keep "/" for root)
	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	u.Fragment = ""

	return u.String(), nil
}

// HashURL computes a SHA256 hash of the normalized URL.
// Returns the hash as a hex-encoded string.
func HashURL(normalizedURL string) URLHash {
	h := sha256.Sum256([]byte(normalizedURL))

	return URLHash(hex.EncodeToString(h[:]))
}
