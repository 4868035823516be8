package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/config"
	"github.com/leanctl/leanctl/internal/reconcile"
	"github.com/leanctl/leanctl/internal/snapshot"
)

var pushForceDelete bool

var pushCmd = &cobra.Command{
	Use:   "push [project]",
	Short: "Push a local project to the cloud",
	Long: `Snapshots the local project and its cloud counterpart, computes the minimal
set of file operations, and applies them to the cloud. Cloud files without a
local counterpart are left alone unless --force-delete is passed. The local
side wins every conflict.`,
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

		ctx := cmd.Context()

		if !project.Linked() {
			created, err := client.CreateProject(ctx, project.Name(), projectLanguage(cfg, project))
			if err != nil {
				return fmt.Errorf("creating cloud project: %w", err)
			}
			project.CloudID = created.ID
			if err := project.Save(); err != nil {
				return err
			}
			info("Created cloud project '%s' (id %d).", created.Name, created.ID)
		}

		local, err := snapshot.Local(project.Dir())
		if err != nil {
			return err
		}
		remote, err := snapshot.Remote(ctx, client, project.CloudID)
		if err != nil {
			return err
		}

		plan := reconcile.Diff(local, remote, reconcile.Push, pushForceDelete)
		if plan.Empty() {
			info("Already up to date.")
			return nil
		}
		detail("plan: %s", plan.Describe())

		source := &reconcile.LocalApplier{Root: project.Dir()}
		dest := &reconcile.CloudApplier{Client: client, ProjectID: project.CloudID}
		result, err := reconcile.Apply(ctx, plan, source, dest, 0)
		printApplied(result)
		if err != nil {
			return err
		}

		info("")
		info("Pushed %d file(s) (%s local project).", len(result.Applied), humanize.Bytes(uint64(local.TotalSize())))
		return nil
	},
}

// printApplied lists applied operations, and the failed one if any.
func printApplied(result *reconcile.Result) {
	if result == nil {
		return
	}
	for _, a := range result.Applied {
		info("  %s  %s", a.Op.Kind, a.Op.Path)
	}
	if result.Failed != nil {
		errorf("%s %s: %s", result.Failed.Op.Kind, result.Failed.Op.Path, result.Failed.Err)
	}
}

func projectLanguage(cfg *config.Context, project *config.Project) string {
	if project.Language != "" {
		return project.Language
	}
	return cfg.Workspace.DefaultLanguage
}

func init() {
	pushCmd.Flags().BoolVar(&pushForceDelete, "force-delete", false, "delete cloud files that have no local counterpart")
	cloudCmd.AddCommand(pushCmd)
}
