package compose

import (
	"fmt"
	"sort"
	"strings"
)

// Brokerage is one supported live brokerage. The set of implementations is
// closed: each variant knows its required options and how to derive its
// engine settings from a Resolver, which makes the required-fields-per-
// brokerage rule checkable in isolation.
type Brokerage interface {
	// Name is the display name matched against the --brokerage flag.
	Name() string
	// ID is the engine-side brokerage identifier.
	ID() string
	// RequiredOptions lists the option keys that must resolve before a live
	// run with this brokerage is considered complete.
	RequiredOptions() []string
	// Settings resolves the brokerage's engine settings. Fails with
	// MissingRequiredOptionError when required options are unresolved.
	Settings(r *Resolver) (map[string]string, error)
}

// Brokerages returns every supported brokerage, sorted by name.
func Brokerages() []Brokerage {
	all := []Brokerage{
		PaperTrading{},
		InteractiveBrokers{},
		Tradier{},
		OANDA{},
		FXCM{},
		Bitfinex{},
		CoinbasePro{},
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

// BrokerageByName finds a brokerage by display name, case-insensitively.
func BrokerageByName(name string) (Brokerage, error) {
	for _, b := range Brokerages() {
		if strings.EqualFold(b.Name(), name) {
			return b, nil
		}
	}
	names := make([]string, 0)
	for _, b := range Brokerages() {
		names = append(names, b.Name())
	}
	return nil, fmt.Errorf("unknown brokerage %q, supported: %s", name, strings.Join(names, ", "))
}

// PaperTrading requires no credentials.
type PaperTrading struct{}

func (PaperTrading) Name() string              { return "Paper Trading" }
func (PaperTrading) ID() string                { return "QuantConnectBrokerage" }
func (PaperTrading) RequiredOptions() []string { return nil }

func (PaperTrading) Settings(r *Resolver) (map[string]string, error) {
	return map[string]string{"environment": "paper"}, nil
}

// InteractiveBrokers derives the account type and environment from the
// account id prefix, the way the platform classifies IB accounts.
type InteractiveBrokers struct{}

func (InteractiveBrokers) Name() string { return "Interactive Brokers" }
func (InteractiveBrokers) ID() string   { return "InteractiveBrokersBrokerage" }

func (InteractiveBrokers) RequiredOptions() []string {
	return []string{"ib-user-name", "ib-account", "ib-password"}
}

func (b InteractiveBrokers) Settings(r *Resolver) (map[string]string, error) {
	values, err := r.Require(b.RequiredOptions()...)
	if err != nil {
		return nil, err
	}

	account := values["ib-account"]
	accountType, environment, err := classifyIBAccount(account)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"ib-user-name":   values["ib-user-name"],
		"ib-account":     account,
		"ib-password":    values["ib-password"],
		"ib-accountType": accountType,
		"environment":    environment,
	}, nil
}

// classifyIBAccount maps an IB account id prefix to (accountType, environment).
// DF/DU are individual paper accounts, DI advisor paper; F/I are live advisor
// accounts and U live individual.
func classifyIBAccount(account string) (string, string, error) {
	lower := strings.ToLower(account)
	if len(lower) >= 2 && lower[0] == 'd' {
		switch lower[:2] {
		case "df", "du":
			return "individual", "paper", nil
		case "di":
			return "advisor", "paper", nil
		}
	} else if len(lower) >= 1 {
		switch lower[0] {
		case 'f', 'i':
			return "advisor", "live", nil
		case 'u':
			return "individual", "live", nil
		}
	}
	return "", "", fmt.Errorf("IB account id %q does not look like a valid account name", account)
}

// Tradier works against either the demo or the real environment.
type Tradier struct{}

func (Tradier) Name() string { return "Tradier" }
func (Tradier) ID() string   { return "TradierBrokerage" }

func (Tradier) RequiredOptions() []string {
	return []string{"tradier-account-id", "tradier-access-token"}
}

func (b Tradier) Settings(r *Resolver) (map[string]string, error) {
	values, err := r.Require(b.RequiredOptions()...)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"tradier-account-id":   values["tradier-account-id"],
		"tradier-access-token": values["tradier-access-token"],
		"environment":          environmentOrPaper(r, "tradier-environment"),
	}, nil
}

// OANDA authenticates with an account id and personal access token.
type OANDA struct{}

func (OANDA) Name() string { return "OANDA" }
func (OANDA) ID() string   { return "OandaBrokerage" }

func (OANDA) RequiredOptions() []string {
	return []string{"oanda-account-id", "oanda-access-token"}
}

func (b OANDA) Settings(r *Resolver) (map[string]string, error) {
	values, err := r.Require(b.RequiredOptions()...)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"oanda-account-id":   values["oanda-account-id"],
		"oanda-access-token": values["oanda-access-token"],
		"environment":        environmentOrPaper(r, "oanda-environment"),
	}, nil
}

// FXCM authenticates with username and password.
type FXCM struct{}

func (FXCM) Name() string { return "FXCM" }
func (FXCM) ID() string   { return "FxcmBrokerage" }

func (FXCM) RequiredOptions() []string {
	return []string{"fxcm-user-name", "fxcm-password"}
}

func (b FXCM) Settings(r *Resolver) (map[string]string, error) {
	values, err := r.Require(b.RequiredOptions()...)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"fxcm-user-name": values["fxcm-user-name"],
		"fxcm-password":  values["fxcm-password"],
		"environment":    environmentOrPaper(r, "fxcm-environment"),
	}, nil
}

// Bitfinex is live-only.
type Bitfinex struct{}

func (Bitfinex) Name() string { return "Bitfinex" }
func (Bitfinex) ID() string   { return "BitfinexBrokerage" }

func (Bitfinex) RequiredOptions() []string {
	return []string{"bitfinex-api-key", "bitfinex-api-secret"}
}

func (b Bitfinex) Settings(r *Resolver) (map[string]string, error) {
	values, err := r.Require(b.RequiredOptions()...)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"bitfinex-api-key":    values["bitfinex-api-key"],
		"bitfinex-api-secret": values["bitfinex-api-secret"],
		"environment":         "live",
	}, nil
}

// CoinbasePro is live-only and additionally needs the API passphrase.
type CoinbasePro struct{}

func (CoinbasePro) Name() string { return "Coinbase Pro" }
func (CoinbasePro) ID() string   { return "GDAXBrokerage" }

func (CoinbasePro) RequiredOptions() []string {
	return []string{"gdax-api-key", "gdax-api-secret", "gdax-passphrase"}
}

func (b CoinbasePro) Settings(r *Resolver) (map[string]string, error) {
	values, err := r.Require(b.RequiredOptions()...)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"gdax-api-key":    values["gdax-api-key"],
		"gdax-api-secret": values["gdax-api-secret"],
		"gdax-passphrase": values["gdax-passphrase"],
		"environment":     "live",
	}, nil
}

// environmentOrPaper resolves an environment option, defaulting to paper.
// The environment is not a credential, so defaulting is safe.
func environmentOrPaper(r *Resolver, key string) string {
	if v := r.Resolve(key); v != "" {
		if strings.EqualFold(v, "real") || strings.EqualFold(v, "live") {
			return "live"
		}
	}
	return "paper"
}
