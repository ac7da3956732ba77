package main

import (
	"fmt"
	"os"

	"grid-splitter/internal/config"

	"github.com/spf13/cobra"
)

var (
	envPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "grid-splitter [image]",
	Short: "Split an image into tiles along a draggable grid",
	Long: `grid-splitter opens a window where guide lines are dragged over an image,
the image is cut into tiles along them, and the tiles are saved as JPEG or
sent to a remote upscaler.

Settings are read from a .env file beside the executable (or --env) and from
the environment.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithOptions(config.LoadOptions{
			EnvPathOverride:  envPath,
			LogLevelOverride: logLevel,
		})
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		app, err := NewApplication(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		var initial string
		if len(args) == 1 {
			initial = args[0]
		}
		return app.Run(initial)
	},
}

func init() {
	rootCmd.Flags().StringVar(&envPath, "env", "", "Path to a .env file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
