package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
)

type ctxKey struct{}

func TestExecutePropagatesContext(t *testing.T) {
	var got context.Context
	echo := &cobra.Command{
		Use:    "ctx-echo",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			got = cmd.Context()
			return nil
		},
	}
	rootCmd.AddCommand(echo)
	defer rootCmd.RemoveCommand(echo)
	rootCmd.SetArgs([]string{"ctx-echo"})
	defer rootCmd.SetArgs(nil)

	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")
	if err := Execute(ctx); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got == nil || got.Value(ctxKey{}) != "marker" {
		t.Error("command did not receive the caller's context")
	}
}
