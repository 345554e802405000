package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&confPath, "conf", "", "path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&logTimeFlag, "log-time", false, "include timestamps in the log")
}

var (
	rootCmd = &cobra.Command{
		Use:   "nftnl",
		Short: "Inspect and export the nf_tables ruleset over netlink.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, ok := logLevelMap[logLevelFlag]
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevelFlag)
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				AddSource:   true,
				Level:       level,
				ReplaceAttr: logReplacements,
			})))
			return nil
		},
		SilenceUsage: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Get the built version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("built commit: %s\n", builtCommit)
		},
	}

	confCmd = &cobra.Command{
		Use:   "conf",
		Short: "Print the configuration in effect.",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConf()
			if err != nil {
				return err
			}
			fmt.Print(conf)
			return nil
		},
	}

	confPath     string
	logLevelFlag string
	logTimeFlag  bool
	builtCommit  = "dev"
)

func init() {
	// Disable completion please!
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add the different sub-commands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(confCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exporterCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
