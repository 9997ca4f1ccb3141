package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/orientavida/assess-cli/internal/match"
	"github.com/orientavida/assess-cli/pkg/matchsvc"
)

func initMatchClient() (matchsvc.Client, error) {
	if cfg.Matching.BaseURL == "" {
		return nil, eris.New("matching service base URL is required (ASSESS_MATCHING_BASE_URL)")
	}
	return matchsvc.NewClient(cfg.Matching.BaseURL, cfg.Matching.Key,
		matchsvc.WithRateLimit(cfg.Matching.RatePerSec),
		matchsvc.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Matching.TimeoutSecs) * time.Second}),
	), nil
}

var matchCmd = &cobra.Command{
	Use:   "match <taker-id>",
	Short: "Rank counselor recommendations for a test taker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := initMatchClient()
		if err != nil {
			return err
		}

		candidates, err := client.Candidates(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "match")
		}
		if len(candidates) == 0 {
			fmt.Fprintln(os.Stderr, "No candidates returned.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMATCH\tTIER\tRATING\t")
		for _, rec := range match.Rank(candidates) {
			rating := "-"
			if rec.Candidate.AverageRating != nil {
				rating = fmt.Sprintf("%.1f (%d)", *rec.Candidate.AverageRating, rec.Candidate.TotalRatings)
			}
			star := ""
			if rec.HighlyRecommended {
				star = " *"
			}
			fmt.Fprintf(w, "%s\t%.0f%%\t%s\t%s%s\n",
				rec.Candidate.Name, rec.Candidate.MatchPercentage, rec.Tier, rating, star)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "\n* highly recommended (average rating above 4)")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}
