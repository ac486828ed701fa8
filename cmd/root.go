package cmd

import (
	"fmt"
	"os"

	"github.com/mongomock/mongomock/cmd/features"
	"github.com/mongomock/mongomock/cmd/shell"
	"github.com/mongomock/mongomock/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.9.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mongomock",
		Short: "in-process MongoDB emulation for tests",
		Long: fmt.Sprintf(`mongomock (v%s)

An in-process emulation of a MongoDB client for tests. Supported
operators behave like the real server; unsupported ones fail loudly
instead of silently approximating.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mongomock",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mongomock v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(features.FeaturesCmd)
	RootCmd.AddCommand(shell.ShellCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "codec"
	RootCmd.PersistentFlags().String(key, "relaxed", util.WrapString("document codec used to print results (relaxed, canonical, bson)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
