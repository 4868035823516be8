package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/reconcile"
	"github.com/leanctl/leanctl/internal/snapshot"
)

var (
	pullForceDelete bool
	pullProjectID   int
)

var pullCmd = &cobra.Command{
	Use:   "pull [project]",
	Short: "Pull a cloud project into the local directory",
	Long: `Snapshots the cloud project and its local counterpart, computes the minimal
set of file operations, and applies them locally. Local files without a cloud
counterpart are left alone unless --force-delete is passed. The cloud side
wins every conflict.`,
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

		cloudID := project.CloudID
		if pullProjectID != 0 {
			cloudID = pullProjectID
		}
		if cloudID == 0 {
			return fmt.Errorf("project is not linked to the cloud: pass --project-id")
		}

		ctx := cmd.Context()

		remote, err := snapshot.Remote(ctx, client, cloudID)
		if err != nil {
			return err
		}
		local, err := snapshot.Local(project.Dir())
		if err != nil {
			return err
		}

		plan := reconcile.Diff(remote, local, reconcile.Pull, pullForceDelete)
		if plan.Empty() {
			info("Already up to date.")
			return nil
		}
		detail("plan: %s", plan.Describe())

		source := &reconcile.CloudApplier{Client: client, ProjectID: cloudID}
		dest := &reconcile.LocalApplier{Root: project.Dir()}
		result, err := reconcile.Apply(ctx, plan, source, dest, 0)
		printApplied(result)
		if err != nil {
			return err
		}

		if project.CloudID == 0 {
			project.CloudID = cloudID
			if err := project.Save(); err != nil {
				return err
			}
		}

		info("")
		info("Pulled %d file(s) (%s cloud project).", len(result.Applied), humanize.Bytes(uint64(remote.TotalSize())))
		return nil
	},
}

func init() {
	pullCmd.Flags().BoolVar(&pullForceDelete, "force-delete", false, "delete local files that have no cloud counterpart")
	pullCmd.Flags().IntVar(&pullProjectID, "project-id", 0, "cloud project id to pull (links the local project)")
	cloudCmd.AddCommand(pullCmd)
}
