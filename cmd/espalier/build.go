package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Build a dialog tree from a directory of transcripts",
	Long: `Reads every transcript in the directory, resolves the human turns into
intents against the configured classifier service and merges all
conversations into one dialog tree, printed as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		if !cmd.Flags().Changed("dir") && len(args) > 0 {
			dir = args[0]
		}

		opts := cli.BuildOptions{Dir: dir}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.Output, _ = cmd.Flags().GetString("output")
		opts.Pretty, _ = cmd.Flags().GetBool("pretty")
		opts.Endpoint, _ = cmd.Flags().GetString("endpoint")
		opts.Token, _ = cmd.Flags().GetString("token")
		opts.Attempts, _ = cmd.Flags().GetInt("attempts")
		opts.Concurrency, _ = cmd.Flags().GetInt("concurrency")
		opts.CacheBackend, _ = cmd.Flags().GetString("cache")
		opts.RedisAddr, _ = cmd.Flags().GetString("redis-addr")
		opts.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
		opts.LogLevel, _ = cmd.Flags().GetString("log-level")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")

		if err := cli.Build(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("dir", "d", ".", "Directory containing transcript files")
	buildCmd.Flags().StringP("config", "c", "", "Path to a config file (default: espalier.yaml if present)")
	buildCmd.Flags().StringP("output", "o", "", "Write the tree artifact to a file instead of stdout")
	buildCmd.Flags().Bool("pretty", false, "Indent the JSON artifact")
	buildCmd.Flags().String("endpoint", "", "Classifier service URL")
	buildCmd.Flags().String("token", "", "Bearer token for the classifier service")
	buildCmd.Flags().Int("attempts", 0, "Max classification attempts per phrase")
	buildCmd.Flags().Int("concurrency", 0, "Max concurrent classification requests (0 = unbounded)")
	buildCmd.Flags().String("cache", "", "Intent cache backend: 'memory' or 'redis'")
	buildCmd.Flags().String("redis-addr", "", "Redis address for the intent cache")
	buildCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address while building")
	buildCmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")
	buildCmd.Flags().Bool("debug", false, "Enable debug logging and lifecycle tracing")
	buildCmd.Flags().BoolP("quiet", "q", false, "Suppress system messages")
}
