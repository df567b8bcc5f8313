package ipintel

import (
	"net/netip"
	"regexp"
	"strings"
)

var leadingASN = regexp.MustCompile(`^AS\d+\s+`)

// NormalizeOrg strips the leading "AS<digits> " that IP-intelligence
// providers prepend to organization names.
func NormalizeOrg(org string) string {
	return strings.TrimSpace(leadingASN.ReplaceAllString(strings.TrimSpace(org), ""))
}

// InferDomain derives a registrable-looking domain from a reverse-DNS
// hostname by keeping the last two labels. It returns "" for IP literals and
// single-label names.
func InferDomain(hostname string) string {
	h := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(hostname), "."))
	if h == "" {
		return ""
	}
	if _, err := netip.ParseAddr(h); err == nil {
		return ""
	}
	labels := strings.Split(h, ".")
	if len(labels) < 2 {
		return ""
	}
	last := labels[len(labels)-2:]
	if last[0] == "" || last[1] == "" {
		return ""
	}
	return last[0] + "." + last[1]
}
