package ipintel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultRules())
	require.NoError(t, err)
	return c
}

func TestIsLocal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"192.168.1.20", true},
		{"10.0.0.5", true},
		{"172.16.4.1", true},
		{"172.31.255.255", true},
		{"169.254.10.10", true},
		{"fe80::1", true},
		{"fd12:3456::1", true},
		{"0.0.0.0", true},
		{"::ffff:192.168.0.1", true},
		{"not-an-ip", true},
		{"", true},
		{"8.8.8.8", false},
		{"172.32.0.1", false},
		{"2001:4860:4860::8888", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLocal(tt.ip))
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	c := newDefaultClassifier(t)

	tests := []struct {
		name string
		ip   string
		org  string
		want Verdict
	}{
		{"loopback", "127.0.0.1", "Google LLC", VerdictLocal},
		{"private", "192.168.1.1", "", VerdictLocal},
		{"cgnat range", "100.64.3.4", "Acme Corp", VerdictResidential},
		{"residential asn", "73.1.2.3", "AS7922 Comcast Cable Communications, LLC", VerdictResidential},
		{"keyword", "98.1.2.3", "Charter Communications", VerdictResidential},
		{"keyword case folded", "98.1.2.3", "VERIZON BUSINESS", VerdictResidential},
		{"multiword keyword", "98.1.2.3", "Regional Internet Service Co", VerdictResidential},
		{"short keyword as word", "98.1.2.3", "Cox Communications Inc", VerdictResidential},
		{"short keyword at end", "98.1.2.3", "Ameritech DSL", VerdictResidential},
		{"short keyword inside name", "98.1.2.3", "Seattle Genetics", VerdictBusiness},
		{"short keyword prefix", "98.1.2.3", "Coxe Curtis", VerdictBusiness},
		{"short keyword infix", "98.1.2.3", "Battelle Memorial Institute", VerdictBusiness},
		{"short keyword suffix", "98.1.2.3", "Pratt & Whitney", VerdictBusiness},
		{"business", "8.8.8.8", "AS15169 Google LLC", VerdictBusiness},
		{"unknown org is business", "8.8.8.8", "", VerdictBusiness},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.ip, tt.org))
			assert.Equal(t, tt.want == VerdictBusiness, c.IsBusinessTraffic(tt.ip, tt.org))
		})
	}
}

func TestContainsWord(t *testing.T) {
	t.Parallel()
	tests := []struct {
		s, word string
		want    bool
	}{
		{"att mobility", "att", true},
		{"at&t att", "att", true},
		{"battelle", "att", false},
		{"pratt & whitney", "att", false},
		{"coxe, cox", "cox", true},
		{"cox", "cox", true},
		{"", "cox", false},
		{"dsl-extreme", "dsl", true},
		{"éatt", "att", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsWord(tt.s, tt.word), "%q in %q", tt.word, tt.s)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()
	c := newDefaultClassifier(t)
	for range 50 {
		assert.True(t, c.IsBusinessTraffic("8.8.4.4", ""))
	}
}

func TestNewClassifier_InvalidCIDR(t *testing.T) {
	t.Parallel()
	_, err := NewClassifier(Rules{CIDRs: []string{"300.1.1.0/24"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cidr")
}

func TestLoadRules(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses defaults", func(t *testing.T) {
		r, err := LoadRules("")
		require.NoError(t, err)
		assert.Equal(t, DefaultRules(), r)
	})

	t.Run("file overrides sections", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
residential:
  keywords: [starlink]
  cidrs: ["203.0.113.0/24"]
`), 0o600))

		r, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"starlink"}, r.Keywords)
		assert.Equal(t, []string{"203.0.113.0/24"}, r.CIDRs)
		assert.Equal(t, DefaultRules().ASNs, r.ASNs)

		c, err := NewClassifier(r)
		require.NoError(t, err)
		assert.Equal(t, VerdictResidential, c.Classify("203.0.113.9", ""))
		assert.Equal(t, VerdictResidential, c.Classify("8.8.8.8", "Starlink"))
		assert.Equal(t, VerdictBusiness, c.Classify("8.8.8.8", "Comcast"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("residential: [unclosed"), 0o600))
		_, err := LoadRules(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse rules")
	})
}
