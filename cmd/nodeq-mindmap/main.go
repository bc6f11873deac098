// Package main provides the CLI entrypoint for nodeq-mindmap.
//
// nodeq-mindmap infers transformation pipelines from an input sample and a
// desired output sample, runs them over records and live sources, exports
// them as standalone code and renders JSON documents as mind maps.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "nodeq-mindmap",
	Short:         "Infer, run and visualise data transformation pipelines",
	Long:          "nodeq-mindmap learns field mappings from a pair of sample documents, keeps the resulting pipelines in a store and renders JSON data as a mind map.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	rootConfigPath string
	rootStorage    string
	rootDSN        string
	rootDir        string
	rootLogLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootConfigPath, "config", "c", "nodeq.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&rootStorage, "storage", "", "Pipeline storage: memory, sqlite or file")
	rootCmd.PersistentFlags().StringVar(&rootDSN, "dsn", "", "SQLite data source name")
	rootCmd.PersistentFlags().StringVar(&rootDir, "dir", "", "Directory of pipeline files")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Log level: debug, info, warn or error")
}

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
