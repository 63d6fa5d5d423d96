package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clean bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of idx2root",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if clean {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Version: %v\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&clean, "clean", "", false, "Just write version")
}
