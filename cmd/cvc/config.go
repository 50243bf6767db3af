package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"

	"github.com/moatus/cvc/jwt"
)

var (
	configFlag = &cli.PathFlag{
		Name:  "config",
		Usage: "TOML file holding the [policy] table",
	}

	configCommand = &cli.Command{
		Name:  "config",
		Usage: "Inspect decode policy configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "dump",
				Usage:  "Prints the effective configuration as TOML",
				Flags:  []cli.Flag{configFlag},
				Action: dumpConfig,
			},
			{
				Name:   "check",
				Usage:  "Validates the decode policy and prints its rating",
				Flags:  []cli.Flag{configFlag},
				Action: checkConfig,
			},
		},
	}
)

type config struct {
	Policy policyConfig `toml:"policy"`
}

// policyConfig carries the clock skew as a duration string since TOML has
// no duration type.
type policyConfig struct {
	jwt.Policy
	ClockSkewRaw string `toml:"clock_skew"`
}

func defaultConfig() *config {
	return &config{
		Policy: policyConfig{
			Policy: jwt.Policy{
				AllowedAlgorithms: []jwt.Algorithm{jwt.EdDSA, jwt.ES256, jwt.ES256K},
				RequireExpiration: true,
				MaxTokenSize:      jwt.DefaultMaxTokenSize,
			},
			ClockSkewRaw: jwt.DefaultClockSkew.String(),
		},
	}
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (*config, error) {
	cfg := defaultConfig()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			names := make([]string, len(undecoded))
			for i, k := range undecoded {
				names[i] = k.String()
			}
			return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(names, ", "))
		}
	}
	return cfg, nil
}

// policy resolves the raw fields into a decode policy.
func (c *config) policy() (jwt.Policy, error) {
	p := c.Policy.Policy
	if c.Policy.ClockSkewRaw != "" {
		d, err := time.ParseDuration(c.Policy.ClockSkewRaw)
		if err != nil {
			return jwt.Policy{}, fmt.Errorf("invalid clock_skew %q: %w", c.Policy.ClockSkewRaw, err)
		}
		p.ClockSkew = d
	}
	return p, nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx.Path(configFlag.Name))
	if err != nil {
		return err
	}
	return toml.NewEncoder(ctx.App.Writer).Encode(cfg)
}

func checkConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx.Path(configFlag.Name))
	if err != nil {
		return err
	}
	p, err := cfg.policy()
	if err != nil {
		return err
	}

	result := jwt.ValidatePolicy(p)
	w := ctx.App.Writer
	fmt.Fprintf(w, "security level: %s\n", result.SecurityLevel)
	for _, msg := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	for _, msg := range result.Recommendations {
		fmt.Fprintf(w, "recommendation: %s\n", msg)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
	if !result.Valid {
		return fmt.Errorf("policy is invalid")
	}
	return nil
}
