package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/review-digest/internal/domain/reviews"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/analysis"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/fingerprint"
)

type analyzeOutput struct {
	ReviewCount int               `json:"review_count"`
	Averages    analysis.Averages `json:"averages"`
	Fingerprint string            `json:"fingerprint"`
	Digest      reviews.Digest    `json:"digest"`
}

func newAnalyzeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the deterministic digest for a JSON array of reviews",
		Long:  "Reads module reviews as a JSON array (stdin when --file is '-') and prints the statistics digest without touching the database.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runAnalyze(in, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "path to a JSON array of reviews")
	return cmd
}

func runAnalyze(in io.Reader, out io.Writer) error {
	var rows []*reviews.ModuleReview
	if err := json.NewDecoder(in).Decode(&rows); err != nil {
		return fmt.Errorf("decode reviews: %w", err)
	}
	batch := reviews.ToReviews(rows)
	stats := analysis.Analyze(batch)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(analyzeOutput{
		ReviewCount: stats.ReviewCount,
		Averages:    stats.Averages,
		Fingerprint: fingerprint.FromReviews(batch),
		Digest:      reviewdigest.FallbackDigest(stats),
	})
}
