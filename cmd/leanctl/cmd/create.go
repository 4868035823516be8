package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/config"
	"github.com/leanctl/leanctl/internal/sandbox"
)

var createLanguage string

const pythonSkeleton = `from AlgorithmImports import *


class Algorithm(QCAlgorithm):
    def initialize(self):
        self.set_start_date(2020, 1, 1)
        self.set_cash(100000)
        self.add_equity("SPY", Resolution.MINUTE)

    def on_data(self, data: Slice):
        if not self.portfolio.invested:
            self.set_holdings("SPY", 1)
`

const csharpSkeleton = `using QuantConnect.Algorithm;
using QuantConnect.Data;

namespace QuantConnect.Algorithm.CSharp
{
    public class Algorithm : QCAlgorithm
    {
        public override void Initialize()
        {
            SetStartDate(2020, 1, 1);
            SetCash(100000);
            AddEquity("SPY", Resolution.Minute);
        }

        public override void OnData(Slice data)
        {
            if (!Portfolio.Invested)
            {
                SetHoldings("SPY", 1);
            }
        }
    }
}
`

var createCmd = &cobra.Command{
	Use:   "create-project <name>",
	Short: "Create a new algorithm project skeleton",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}

		name := args[0]
		language := createLanguage
		if language == "" {
			language = cfg.Workspace.DefaultLanguage
		}

		dir, err := filepath.Abs(name)
		if err != nil {
			return err
		}
		if _, err := os.Stat(dir); err == nil {
			return fmt.Errorf("directory %s already exists", name)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating project directory: %w", err)
		}

		var mainFile, skeleton string
		switch strings.ToLower(language) {
		case "python":
			mainFile, skeleton = "main.py", pythonSkeleton
		case "csharp":
			mainFile, skeleton = "Main.cs", csharpSkeleton
		default:
			return fmt.Errorf("unknown language %q, supported: python, csharp", language)
		}

		if err := sandbox.SafeWrite(dir, mainFile, []byte(skeleton), 0o644); err != nil {
			return err
		}

		project, err := config.LoadProject(dir)
		if err != nil {
			return err
		}
		project.Language = strings.ToLower(language)
		if err := project.Save(); err != nil {
			return err
		}

		info("Created %s project '%s'.", language, name)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createLanguage, "language", "", "project language (python or csharp)")
	rootCmd.AddCommand(createCmd)
}
