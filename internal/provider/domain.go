package provider

import (
	"net/url"
	"strings"
)

// RegistrableDomain reduces a URL to the last two labels of its hostname,
// lower-cased and without a leading "www.": "https://www.netflix.com/a" → "netflix.com".
// URLs without a parsable host fall back to the raw string so they still dedup against themselves.
func RegistrableDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return rawURL
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return strings.Join(labels, ".")
}
