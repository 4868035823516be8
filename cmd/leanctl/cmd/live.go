package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/compose"
	"github.com/leanctl/leanctl/internal/live"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Deploy and control live trading sessions",
}

var liveDeployCmd = &cobra.Command{
	Use:   "deploy [project]",
	Short: "Start live trading in a local engine container",
	Long: `Composes the live run configuration (the selected brokerage's required
options must resolve through CLI flags or the Lean configuration) and starts
the engine container. The session is registered so later control commands can
address it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}
		if _, err := cfg.RequireLeanConfig(); err != nil {
			return err
		}
		project, err := loadProjectArg(args)
		if err != nil {
			return err
		}

		inputs, err := runInputs(cfg, project, cmd, compose.LiveTrading)
		if err != nil {
			return err
		}
		rc, err := compose.Compose(inputs)
		if err != nil {
			return err
		}

		orch := newOrchestrator(cfg)
		ctx := cmd.Context()

		plan, err := orch.Prepare(ctx, rc)
		if err != nil {
			return err
		}

		// Live deployments keep running after the CLI returns unless the
		// user explicitly attaches.
		result, err := orch.Execute(ctx, plan, os.Stdout)
		if err != nil {
			return err
		}

		if result.Detached {
			if err := registerRun(ctx, project.Dir(), result.Handle.ID, rc.Brokerage.Name()); err != nil {
				return err
			}
			info("Live trading started through %s.", rc.Brokerage.Name())
			info("Control the session with 'leanctl live stop|liquidate|submit-order ...'.")
			return nil
		}
		info("Live session ended.")
		return nil
	},
}

// registerRun records a running detached container in the session registry.
func registerRun(ctx context.Context, projectDir, containerID, brokerage string) error {
	store, err := openSessionStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Put(ctx, live.Session{
		ProjectDir:  projectDir,
		ContainerID: containerID,
		Brokerage:   brokerage,
		Status:      live.StatusRunning,
	})
}

// sendLiveCommand delivers one control message to the project's session.
func sendLiveCommand(cmd *cobra.Command, args []string, action live.Action, payload map[string]any) error {
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

	msg, err := live.NewMessage(action, payload)
	if err != nil {
		return err
	}

	channel := &live.Channel{Runtime: newOrchestrator(cfg).Runtime, Store: store}
	if err := channel.Send(ctx, sess, msg); err != nil {
		return err
	}
	info("Command %s acknowledged.", action)
	return nil
}

var (
	addSecurityTicker     string
	addSecurityMarket     string
	addSecurityType       string
	addSecurityResolution string
	orderTicker           string
	orderType             string
	orderQuantity         float64
	orderLimitPrice       float64
	orderID               int
)

var liveAddSecurityCmd = &cobra.Command{
	Use:   "add-security [project]",
	Short: "Add a security to the running algorithm",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendLiveCommand(cmd, args, live.AddSecurity, map[string]any{
			"Symbol":       addSecurityTicker,
			"Market":       addSecurityMarket,
			"SecurityType": addSecurityType,
			"Resolution":   addSecurityResolution,
		})
	},
}

var liveSubmitOrderCmd = &cobra.Command{
	Use:   "submit-order [project]",
	Short: "Submit an order to the running algorithm",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendLiveCommand(cmd, args, live.SubmitOrder, map[string]any{
			"Ticker":     orderTicker,
			"OrderType":  orderType,
			"Quantity":   orderQuantity,
			"LimitPrice": orderLimitPrice,
		})
	},
}

var liveUpdateOrderCmd = &cobra.Command{
	Use:   "update-order [project]",
	Short: "Update an open order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendLiveCommand(cmd, args, live.UpdateOrder, map[string]any{
			"OrderId":    orderID,
			"Quantity":   orderQuantity,
			"LimitPrice": orderLimitPrice,
		})
	},
}

var liveCancelOrderCmd = &cobra.Command{
	Use:   "cancel-order [project]",
	Short: "Cancel an open order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendLiveCommand(cmd, args, live.CancelOrder, map[string]any{
			"OrderId": orderID,
		})
	},
}

var liveLiquidateCmd = &cobra.Command{
	Use:   "liquidate [project]",
	Short: "Liquidate all holdings and stop the session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendLiveCommand(cmd, args, live.Liquidate, nil)
	},
}

var liveStopCmd = &cobra.Command{
	Use:   "stop [project]",
	Short: "Stop the live session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendLiveCommand(cmd, args, live.Stop, nil)
	},
}

var liveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked live sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openSessionStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			info("No live sessions.")
			return nil
		}
		for _, s := range sessions {
			label := s.Brokerage
			if label == "" {
				label = "detached run"
			}
			info("  %-9s %s (%s, container %s)", s.Status, s.ProjectDir, label, shortID(s.ContainerID))
		}
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func init() {
	addRunFlags(liveDeployCmd)
	addBrokerageFlags(liveDeployCmd)
	// Live deployments detach unless the user opts into attaching.
	liveDeployCmd.Flags().Lookup("detach").DefValue = "true"
	_ = liveDeployCmd.Flags().Set("detach", "true")

	liveAddSecurityCmd.Flags().StringVar(&addSecurityTicker, "ticker", "", "ticker of the symbol to add")
	liveAddSecurityCmd.Flags().StringVar(&addSecurityMarket, "market", "", "market of the symbol")
	liveAddSecurityCmd.Flags().StringVar(&addSecurityType, "security-type", "", "security type of the symbol")
	liveAddSecurityCmd.Flags().StringVar(&addSecurityResolution, "resolution", "Minute", "data resolution")
	_ = liveAddSecurityCmd.MarkFlagRequired("ticker")
	_ = liveAddSecurityCmd.MarkFlagRequired("market")
	_ = liveAddSecurityCmd.MarkFlagRequired("security-type")

	for _, c := range []*cobra.Command{liveSubmitOrderCmd, liveUpdateOrderCmd} {
		c.Flags().StringVar(&orderTicker, "ticker", "", "ticker to trade")
		c.Flags().StringVar(&orderType, "order-type", "market", "order type (market or limit)")
		c.Flags().Float64Var(&orderQuantity, "quantity", 0, "order quantity")
		c.Flags().Float64Var(&orderLimitPrice, "limit-price", 0, "limit price for limit orders")
	}
	liveUpdateOrderCmd.Flags().IntVar(&orderID, "order-id", 0, "id of the order to update")
	liveCancelOrderCmd.Flags().IntVar(&orderID, "order-id", 0, "id of the order to cancel")
	_ = liveSubmitOrderCmd.MarkFlagRequired("ticker")
	_ = liveSubmitOrderCmd.MarkFlagRequired("quantity")

	liveCmd.AddCommand(liveDeployCmd)
	liveCmd.AddCommand(liveAddSecurityCmd)
	liveCmd.AddCommand(liveSubmitOrderCmd)
	liveCmd.AddCommand(liveUpdateOrderCmd)
	liveCmd.AddCommand(liveCancelOrderCmd)
	liveCmd.AddCommand(liveLiquidateCmd)
	liveCmd.AddCommand(liveStopCmd)
	liveCmd.AddCommand(liveListCmd)
	rootCmd.AddCommand(liveCmd)
}
