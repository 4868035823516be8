package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cloudProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List all projects on the platform",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}
		client, err := newAPIClient(cfg)
		if err != nil {
			return err
		}

		projects, err := client.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			info("No cloud projects.")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("%8d  %-8s  %s\n", p.ID, p.Language, p.Name)
		}
		return nil
	},
}

var cloudDeleteCmd = &cobra.Command{
	Use:   "delete [project]",
	Short: "Delete the project's cloud copy and unlink it",
	Long: `Removes the cloud project and all its files. The local project directory is
left untouched and unlinked, so a later push creates a fresh cloud project.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}
		client, err := newAPIClient(cfg)
		if err != nil {
			return err
		}
		project, err := loadProjectArg(args)
		if err != nil {
			return err
		}
		if !project.Linked() {
			return fmt.Errorf("project is not linked to the cloud, nothing to delete")
		}

		if err := client.DeleteProject(cmd.Context(), project.CloudID); err != nil {
			return err
		}
		project.CloudID = 0
		if err := project.Save(); err != nil {
			return err
		}
		info("Deleted cloud project '%s' and unlinked the local copy.", project.Name())
		return nil
	},
}

func init() {
	cloudCmd.AddCommand(cloudProjectsCmd)
	cloudCmd.AddCommand(cloudDeleteCmd)
}
