// Package ipintel decides whether a visitor IP is business traffic and
// resolves it to an organization and location.
package ipintel

import (
	"net/netip"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Keywords this short match only as whole words, so "cox" skips
// "Coxe Curtis" and "att" skips "Battelle".
const wholeWordMaxLen = 4

type keyword struct {
	text      string
	wholeWord bool
}

// Verdict explains a classification.
type Verdict string

const (
	VerdictBusiness    Verdict = "business"
	VerdictLocal       Verdict = "local"
	VerdictResidential Verdict = "residential"
)

// Classifier applies the local, CIDR, ASN and keyword rules in order.
// It is safe for concurrent use.
type Classifier struct {
	keywords []keyword
	asns     map[string]struct{}
	prefixes []netip.Prefix
}

// NewClassifier builds a Classifier from rules. Invalid CIDRs are an error.
func NewClassifier(rules Rules) (*Classifier, error) {
	prefixes, err := parsePrefixes(rules.CIDRs)
	if err != nil {
		return nil, err
	}
	fold := cases.Fold()
	c := &Classifier{
		asns:     make(map[string]struct{}, len(rules.ASNs)),
		prefixes: prefixes,
	}
	for _, kw := range rules.Keywords {
		kw = strings.TrimSpace(fold.String(kw))
		if kw != "" {
			c.keywords = append(c.keywords, keyword{
				text:      kw,
				wholeWord: utf8.RuneCountInString(kw) <= wholeWordMaxLen,
			})
		}
	}
	for _, asn := range rules.ASNs {
		c.asns[strings.ToUpper(strings.TrimSpace(asn))] = struct{}{}
	}
	return c, nil
}

// IsLocal reports whether ip can never be business traffic: loopback,
// private, link-local, unspecified, or unparsable.
func IsLocal(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return true
	}
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}

// IsResidentialIP reports whether ip falls inside a configured residential
// range. Used before any provider lookup.
func (c *Classifier) IsResidentialIP(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range c.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

var asnPrefix = regexp.MustCompile(`(?i)^(AS\d+)\s+`)

// IsResidentialOrg reports whether the organization string matches the ASN
// or keyword tables. An empty org is not residential.
func (c *Classifier) IsResidentialOrg(org string) bool {
	org = strings.TrimSpace(org)
	if org == "" {
		return false
	}
	if m := asnPrefix.FindStringSubmatch(org); m != nil {
		if _, ok := c.asns[strings.ToUpper(m[1])]; ok {
			return true
		}
	}
	// Caser is stateful, so fold with a fresh one per call.
	folded := cases.Fold().String(NormalizeOrg(org))
	for _, kw := range c.keywords {
		if kw.matches(folded) {
			return true
		}
	}
	return false
}

func (k keyword) matches(folded string) bool {
	if k.wholeWord {
		return containsWord(folded, k.text)
	}
	return strings.Contains(folded, k.text)
}

// containsWord reports whether word occurs in s bounded by non-alphanumerics
// or the ends of s.
func containsWord(s, word string) bool {
	for i := 0; i <= len(s)-len(word); {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(word)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		i = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// Classify returns the verdict for ip with the provider-reported org name.
func (c *Classifier) Classify(ip, org string) Verdict {
	switch {
	case IsLocal(ip):
		return VerdictLocal
	case c.IsResidentialIP(ip), c.IsResidentialOrg(org):
		return VerdictResidential
	default:
		return VerdictBusiness
	}
}

// IsBusinessTraffic reports whether the visit should be attributed to a
// company. Unknown organizations count as business.
func (c *Classifier) IsBusinessTraffic(ip, org string) bool {
	return c.Classify(ip, org) == VerdictBusiness
}
