package compose

import (
	"fmt"
	"strings"
)

// Mode is the kind of containerized run being composed.
type Mode int

const (
	Backtest Mode = iota
	Optimization
	LiveTrading
	Research
)

func (m Mode) String() string {
	switch m {
	case Backtest:
		return "backtest"
	case Optimization:
		return "optimization"
	case LiveTrading:
		return "live"
	default:
		return "research"
	}
}

// OutputFolder is the project-relative directory that collects the mode's
// run output. Snapshots exclude these folders, so run output never reaches
// the cloud.
func (m Mode) OutputFolder() string {
	switch m {
	case Backtest:
		return "backtests"
	case Optimization:
		return "optimizations"
	case LiveTrading:
		return "live"
	default:
		return "research"
	}
}

// OutputFolders lists the output folder of every mode.
func OutputFolders() []string {
	return []string{
		Backtest.OutputFolder(),
		Optimization.OutputFolder(),
		LiveTrading.OutputFolder(),
		Research.OutputFolder(),
	}
}

// Data providers for local runs.
const (
	DataProviderLocal        = "Local"
	DataProviderQuantConnect = "QuantConnect"
)

// debugMethods supported by the engine container.
var debugMethods = map[string]bool{
	"":        true,
	"ptvsd":   true,
	"debugpy": true,
	"vsdbg":   true,
	"rider":   true,
}

// Inputs are the already-loaded objects Compose works over. Compose performs
// no I/O, so identical Inputs always yield the identical result.
type Inputs struct {
	Mode       Mode
	ProjectDir string
	Language   string

	// EngineImage is the image after CLI-level resolution (--image beats the
	// stored workspace image).
	EngineImage string

	// LeanConfigPath is where the base Lean configuration lives.
	LeanConfigPath string

	// OutputDir receives logs and result files.
	OutputDir string

	// Flags holds explicitly passed CLI option flags by option name.
	Flags map[string]string

	// Lean is the loaded Lean configuration, or nil.
	Lean ConfigGetter

	// BrokerageDefault, DataFeedDefault, and DataProviderDefault come from
	// the project config.
	BrokerageDefault    string
	DataFeedDefault     string
	DataProviderDefault string

	Detach      bool
	Update      bool
	DebugMethod string

	// Environment are extra environment variables for the container.
	Environment map[string]string
}

// RunConfiguration is the fully resolved set of parameters needed to launch a
// containerized execution. Once returned by Compose it is complete: every
// option required by the selected brokerage and data provider has resolved.
type RunConfiguration struct {
	Mode           Mode
	EngineImage    string
	LeanConfigPath string
	ProjectDir     string
	Language       string
	OutputDir      string

	Environment map[string]string

	// LeanOverrides are merged over the base Lean configuration when the
	// effective config file is written.
	LeanOverrides map[string]any

	Brokerage         Brokerage
	BrokerageSettings map[string]string

	DataFeed          string
	DataProvider      string
	DataPurchaseLimit string

	Detach      bool
	Update      bool
	DebugMethod string
}

// Compose merges the base configuration, project defaults, CLI flags, and
// brokerage option bundles into one RunConfiguration, validating required
// fields per selected brokerage and data provider.
func Compose(in Inputs) (*RunConfiguration, error) {
	if in.ProjectDir == "" {
		return nil, fmt.Errorf("project directory is required")
	}
	if in.EngineImage == "" {
		return nil, fmt.Errorf("engine image is required")
	}
	if !debugMethods[in.DebugMethod] {
		return nil, fmt.Errorf("unknown debug method %q", in.DebugMethod)
	}

	rc := &RunConfiguration{
		Mode:           in.Mode,
		EngineImage:    in.EngineImage,
		LeanConfigPath: in.LeanConfigPath,
		ProjectDir:     in.ProjectDir,
		Language:       in.Language,
		OutputDir:      in.OutputDir,
		Environment:    copyMap(in.Environment),
		LeanOverrides:  make(map[string]any),
		Detach:         in.Detach,
		Update:         in.Update,
		DebugMethod:    in.DebugMethod,
	}

	rc.LeanOverrides["environment"] = rc.Mode.environmentName()

	if err := composeBrokerage(in, rc); err != nil {
		return nil, err
	}
	if err := composeDataProvider(in, rc); err != nil {
		return nil, err
	}

	return rc, nil
}

// composeBrokerage resolves the brokerage variant and its settings for live
// runs. Non-live modes ignore the brokerage entirely.
func composeBrokerage(in Inputs, rc *RunConfiguration) error {
	if in.Mode != LiveTrading {
		return nil
	}

	name := in.Flags["brokerage"]
	if name == "" {
		name = in.BrokerageDefault
	}
	if name == "" {
		return &MissingRequiredOptionError{Options: []string{"brokerage"}}
	}

	brokerage, err := BrokerageByName(name)
	if err != nil {
		return err
	}

	resolver := &Resolver{Flags: in.Flags, Lean: in.Lean}
	settings, err := brokerage.Settings(resolver)
	if err != nil {
		return err
	}

	// The data feed follows the brokerage unless explicitly overridden.
	feed := in.Flags["data-feed"]
	if feed == "" {
		feed = in.DataFeedDefault
	}
	if feed == "" {
		feed = brokerage.Name()
	}

	rc.Brokerage = brokerage
	rc.BrokerageSettings = settings
	rc.DataFeed = feed
	rc.LeanOverrides["live-mode-brokerage"] = brokerage.ID()
	rc.LeanOverrides["environment"] = settings["environment"]
	for k, v := range settings {
		if k == "environment" {
			continue
		}
		rc.LeanOverrides[k] = v
	}
	return nil
}

// composeDataProvider validates the data provider selection. QuantConnect
// data requires a resolvable purchase limit; "unlimited" must be explicit.
func composeDataProvider(in Inputs, rc *RunConfiguration) error {
	provider := in.Flags["data-provider"]
	if provider == "" {
		provider = in.DataProviderDefault
	}
	if provider == "" {
		provider = DataProviderLocal
	}

	switch {
	case strings.EqualFold(provider, DataProviderLocal):
		rc.DataProvider = DataProviderLocal
	case strings.EqualFold(provider, DataProviderQuantConnect):
		resolver := &Resolver{Flags: in.Flags, Lean: in.Lean}
		limit := resolver.Resolve("data-purchase-limit")
		if limit == "" {
			return &MissingRequiredOptionError{Options: []string{"data-purchase-limit"}}
		}
		rc.DataProvider = DataProviderQuantConnect
		rc.DataPurchaseLimit = limit
		rc.LeanOverrides["data-purchase-limit"] = limit
	default:
		return fmt.Errorf("unknown data provider %q, supported: %s, %s",
			provider, DataProviderLocal, DataProviderQuantConnect)
	}
	return nil
}

// Complete reports whether the configuration can be handed to the
// orchestrator. Compose only returns complete configurations; this guards
// against hand-built ones.
func (rc *RunConfiguration) Complete() bool {
	if rc.EngineImage == "" || rc.ProjectDir == "" || rc.OutputDir == "" {
		return false
	}
	if rc.Mode == LiveTrading && rc.Brokerage == nil {
		return false
	}
	return true
}

func (m Mode) environmentName() string {
	switch m {
	case LiveTrading:
		return "live-paper"
	case Research:
		return "research"
	default:
		return "backtesting"
	}
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
