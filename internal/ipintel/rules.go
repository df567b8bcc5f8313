package ipintel

import (
	"net/netip"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules are the residential-traffic tables consulted by the Classifier.
type Rules struct {
	Keywords []string `yaml:"keywords"`
	ASNs     []string `yaml:"asns"`
	CIDRs    []string `yaml:"cidrs"`
}

// DefaultRules returns the built-in residential tables.
func DefaultRules() Rules {
	return Rules{
		Keywords: []string{
			"comcast", "verizon", "att", "charter", "cox", "spectrum",
			"residential", "broadband", "cable", "dsl", "fiber",
			"internet service", "telecom", "wireless",
		},
		ASNs: []string{
			"AS7922",  // Comcast
			"AS701",   // Verizon
			"AS7018",  // AT&T
			"AS20115", // Charter
			"AS22773", // Cox
			"AS11427", // Spectrum
			"AS5650",  // Frontier
		},
		CIDRs: []string{
			"100.64.0.0/10", // carrier-grade NAT
		},
	}
}

// LoadRules reads classifier tables from a YAML file. Sections missing from
// the file keep their defaults. An empty path returns DefaultRules.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, eris.Wrapf(err, "ipintel: read rules %s", path)
	}

	// The YAML has a top-level "residential" key
	var wrapper struct {
		Residential Rules `yaml:"residential"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return rules, eris.Wrap(err, "ipintel: parse rules")
	}

	if len(wrapper.Residential.Keywords) > 0 {
		rules.Keywords = wrapper.Residential.Keywords
	}
	if len(wrapper.Residential.ASNs) > 0 {
		rules.ASNs = wrapper.Residential.ASNs
	}
	if len(wrapper.Residential.CIDRs) > 0 {
		rules.CIDRs = wrapper.Residential.CIDRs
	}
	return rules, nil
}

func parsePrefixes(cidrs []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(c))
		if err != nil {
			return nil, eris.Wrapf(err, "ipintel: invalid cidr %q", c)
		}
		out = append(out, p.Masked())
	}
	return out, nil
}
