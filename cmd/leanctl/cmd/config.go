package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write Lean configuration values",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a Lean configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}
		lean, err := cfg.RequireLeanConfig()
		if err != nil {
			return err
		}
		value := lean.Get(args[0])
		if value == "" {
			return fmt.Errorf("key %q is not set", args[0])
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a Lean configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}
		lean, err := cfg.RequireLeanConfig()
		if err != nil {
			return err
		}
		lean.Set(args[0], args[1])
		if err := lean.Save(); err != nil {
			return err
		}
		detail("set %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
