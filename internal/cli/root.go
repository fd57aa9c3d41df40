// Package cli implements matchctl, an offline scoring tool that runs the
// same scorer as the API against local files.
package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/services/matcher"
	"matrimony-match-engine/internal/utils"
)

const (
	app       = "matchctl"
	envPrefix = "MATCHCTL"
)

// Actual version can be specified in build command.
var version = "unknown"

// NewRootCommand builds the matchctl command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:          app,
		Short:        "matchctl scores candidate profiles against weighted preferences",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}
			level := "warn"
			if v.GetBool("debug") {
				level = "debug"
			}
			return utils.InitLogger(level)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			utils.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "a config file (default is matchctl.yaml in current directory)")
	flags.BoolP("debug", "d", false, "verbose/debug output")
	flags.Float64("buffer-width", matcher.DefaultBufferWidth, "how far outside a range a value still earns partial credit")
	flags.Float64("buffer-credit", matcher.DefaultBufferCredit, "fraction of the weight earned inside the buffer")
	flags.String("as-of", "", "date used to derive ages, YYYY-MM-DD (default today)")

	for _, name := range []string{"debug", "buffer-width", "buffer-credit", "as-of"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(newScoreCommand(v), newRankCommand(v), newVersionCommand())
	return root
}

// initConfig reads the config file. Only an explicitly named file is required.
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}

	v.AddConfigPath(".")
	v.SetConfigName(app)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// newScorer builds a scorer from flags, environment and config file.
func newScorer(v *viper.Viper) (*matcher.Scorer, error) {
	opts := matcher.DefaultOptions()
	opts.BufferWidth = v.GetFloat64("buffer-width")
	opts.BufferCredit = v.GetFloat64("buffer-credit")

	if opts.BufferWidth < 0 {
		return nil, errors.New("buffer-width cannot be negative")
	}
	if opts.BufferCredit < 0 || opts.BufferCredit > 1 {
		return nil, fmt.Errorf("buffer-credit must be between 0 and 1, got %v", opts.BufferCredit)
	}

	if asOf := v.GetString("as-of"); asOf != "" {
		day, err := time.Parse(models.DateLayout, asOf)
		if err != nil {
			return nil, fmt.Errorf("as-of must be YYYY-MM-DD: %w", err)
		}
		opts.Now = func() time.Time { return day }
	}

	return matcher.NewScorer(opts), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	}
}
