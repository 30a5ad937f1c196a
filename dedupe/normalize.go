package dedupe

import (
	"net/url"
	"strings"
)

// trackingParams are query parameters that identify campaigns, not content.
// Two URLs differing only in these point at the same page.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"igshid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref":     true,
	"ref_src": true,
	"spm":     true,
	"yclid":   true,
	"_hsenc":  true,
	"_hsmi":   true,
}

// NormalizeURL canonicalizes a URL for duplicate detection: lowercase
// scheme and host, default ports dropped, fragment dropped, tracking
// parameters (utm_*, fbclid, gclid, ref, ...) stripped, trailing slash
// trimmed. The original URL is returned unchanged when it does not parse.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Fragment = ""

	host := strings.ToLower(parsed.Host)
	switch {
	case parsed.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case parsed.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	parsed.Host = host

	query := parsed.Query()
	for param := range query {
		if trackingParams[param] || strings.HasPrefix(param, "utm_") {
			query.Del(param)
		}
	}
	parsed.RawQuery = query.Encode()

	parsed.Path = strings.TrimRight(parsed.Path, "/")

	return parsed.String()
}
