package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sells-group/visitor-intel/internal/ipintel"
	"github.com/sells-group/visitor-intel/internal/resilience"
)

type identification struct {
	IP      string          `json:"ip"`
	Verdict ipintel.Verdict `json:"verdict"`
	Info    *ipintel.Info   `json:"info,omitempty"`
}

var identifyCmd = &cobra.Command{
	Use:   "identify <ip>",
	Short: "Classify an IP and resolve its organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classifier, err := newClassifier()
		if err != nil {
			return err
		}
		resolver := newResolver(resilience.NewBreakers(resilience.DefaultCircuitBreakerConfig()))

		return printJSON(cmd.OutOrStdout(), identify(cmd.Context(), classifier, resolver, args[0]))
	},
}

type ipResolver interface {
	Resolve(ctx context.Context, ip string) ipintel.Info
}

// identify skips the lookup for local addresses and residential ranges.
func identify(ctx context.Context, c *ipintel.Classifier, r ipResolver, ip string) *identification {
	out := &identification{IP: ip, Verdict: c.Classify(ip, "")}
	if out.Verdict != ipintel.VerdictBusiness {
		return out
	}
	info := r.Resolve(ctx, ip)
	out.Info = &info
	out.Verdict = c.Classify(ip, info.RawOrg)
	return out
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}
