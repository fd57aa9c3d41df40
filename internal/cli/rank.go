package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"matrimony-match-engine/internal/services/matcher"
	"matrimony-match-engine/internal/utils"
)

func newRankCommand(v *viper.Viper) *cobra.Command {
	var prefsPath, candidatesPath string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a pool of candidates (JSON array or import CSV) against a preferences file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("limit cannot be negative, got %d", limit)
			}
			scorer, err := newScorer(v)
			if err != nil {
				return err
			}
			prefs, err := loadPreferences(prefsPath)
			if err != nil {
				return err
			}
			pool, err := loadCandidates(candidatesPath)
			if err != nil {
				return err
			}

			ranked := matcher.SortByScore(scorer.ScoreAll(prefs, pool, false))
			utils.GetLogger().Debug("Ranked pool",
				utils.String("file", candidatesPath),
				utils.Int("candidates", len(ranked)))
			if limit > 0 && len(ranked) > limit {
				ranked = ranked[:limit]
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ranked)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tSCORE\tID\tNAME")
			for i, c := range ranked {
				name := strings.TrimSpace(c.FirstName + " " + c.LastName)
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", i+1, c.MatchScore, c.ID, name)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&prefsPath, "preferences", "p", "", "preferences JSON file")
	cmd.Flags().StringVarP(&candidatesPath, "candidates", "c", "", "candidates JSON array or CSV file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the top N candidates (0 shows all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("preferences")
	_ = cmd.MarkFlagRequired("candidates")

	return cmd
}
