package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/antiphon-audio/antiphon/engine/config"
	"github.com/antiphon-audio/antiphon/logging"
)

var (
	configPath string
	logLevel   string
	noColor    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "antiphon",
	Short: "Call-and-response chant analysis",
	Long: `Antiphon analyzes call-and-response singing: it extracts a pitch
contour from a recording, finds the call and response sections, pairs
them up and measures how closely each response tracks its call.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		base := logrus.New()
		if noColor {
			base.SetFormatter(&logrus.TextFormatter{DisableColors: true})
			logging.DisableColors()
		}
		logging.SetGlobalLogger(logging.NewLogrusLogger(base))
		logging.SetLevel(logging.ParseLevel(logLevel))

		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		} else {
			cfg = config.Default()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (json/yaml/toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(pitchCmd)
	rootCmd.AddCommand(segmentCmd)
}
