package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/container"
)

var logsFollow bool

var logsCmd = &cobra.Command{
	Use:   "logs [project]",
	Short: "Print the logs of the project's detached container",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}
		project, err := loadProjectArg(args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := openSessionStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		sess, err := store.Get(ctx, project.Dir())
		if err != nil {
			return err
		}

		runtime := newOrchestrator(cfg).Runtime
		handle := &container.Handle{ID: sess.ContainerID}
		if logsFollow {
			return runtime.StreamLogs(ctx, handle, os.Stdout)
		}

		// One-shot: read what is there and return.
		logs, err := runtime.ReadFile(ctx, handle, "/Results/log.txt")
		if err != nil {
			// Fall back to the runtime's log stream when the engine has not
			// written its log file yet.
			return runtime.StreamLogs(ctx, handle, os.Stdout)
		}
		_, err = os.Stdout.Write(logs)
		return err
	},
}

func init() {
	logsCmd.Flags().BoolVar(&logsFollow, "follow", false, "stream logs until interrupted")
	rootCmd.AddCommand(logsCmd)
}
