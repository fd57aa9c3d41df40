package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newScoreCommand(v *viper.Viper) *cobra.Command {
	var prefsPath, candidatePath string
	var breakdown, asJSON bool

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one candidate profile against a preferences file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scorer, err := newScorer(v)
			if err != nil {
				return err
			}
			prefs, err := loadPreferences(prefsPath)
			if err != nil {
				return err
			}
			candidate, err := loadCandidate(candidatePath)
			if err != nil {
				return err
			}

			ev := scorer.Evaluate(prefs, candidate)
			out := cmd.OutOrStdout()

			if asJSON {
				if !breakdown {
					ev.Breakdown = nil
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ev)
			}

			fmt.Fprintf(out, "score: %d\n", ev.Score)
			if !breakdown {
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DIMENSION\tOUTCOME\tACHIEVED\tPOSSIBLE")
			for _, d := range ev.Breakdown {
				fmt.Fprintf(tw, "%s\t%s\t%g\t%g\n", d.Dimension, d.Outcome, d.Achieved, d.Possible)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&prefsPath, "preferences", "p", "", "preferences JSON file")
	cmd.Flags().StringVarP(&candidatePath, "candidate", "c", "", "candidate profile JSON file")
	cmd.Flags().BoolVarP(&breakdown, "breakdown", "b", false, "show the per-dimension breakdown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	_ = cmd.MarkFlagRequired("preferences")
	_ = cmd.MarkFlagRequired("candidate")

	return cmd
}
