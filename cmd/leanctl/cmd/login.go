package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	loginUserID string
	loginToken  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store platform credentials",
	Long: `Stores the platform user id and API token in the workspace credential
store. Credentials can be passed as flags or entered interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}

		userID := loginUserID
		token := loginToken
		reader := bufio.NewReader(os.Stdin)
		if userID == "" {
			fmt.Print("User id: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading user id: %w", err)
			}
			userID = strings.TrimSpace(line)
		}
		if token == "" {
			fmt.Print("API token: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading API token: %w", err)
			}
			token = strings.TrimSpace(line)
		}

		if userID == "" || token == "" {
			return fmt.Errorf("both a user id and an API token are required")
		}

		cfg.Credentials.UserID = userID
		cfg.Credentials.APIToken = token
		if err := cfg.Credentials.Save(); err != nil {
			return err
		}
		info("Credentials stored.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored platform credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}
		if err := cfg.Credentials.Clear(); err != nil {
			return err
		}
		info("Credentials removed.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the logged-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}
		if !cfg.Credentials.LoggedIn() {
			info("Not logged in.")
			return nil
		}
		info("Logged in as user id %s.", cfg.Credentials.UserID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginUserID, "user-id", "", "platform user id")
	loginCmd.Flags().StringVar(&loginToken, "api-token", "", "platform API token")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
