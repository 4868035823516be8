package cmd

import (
	"github.com/spf13/cobra"
)

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Synchronize projects with the cloud platform",
}

func init() {
	rootCmd.AddCommand(cloudCmd)
}
