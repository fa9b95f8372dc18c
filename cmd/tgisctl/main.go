package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag    string
	mapsetFlag string
	rootCmd    = &cobra.Command{
		Use:   "tgisctl",
		Short: "CLI client for the temporal dataset REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Temporal service base URL")
	rootCmd.PersistentFlags().StringVarP(&mapsetFlag, "mapset", "m", "", "Mapset (required)")
	_ = rootCmd.MarkPersistentFlagRequired("mapset")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
