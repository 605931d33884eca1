package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Paul-111129/Glassy-Compiler/pkg/cli"
	"modernc.org/libqbe"
)

type Feature int

const (
	FeatArith Feature = iota
	FeatPrecedence
	FeatCComments
	FeatCount
)

type Warning int

const (
	WarnUnreachableCode Warning = iota
	WarnUnusedVar
	WarnExitRange
	WarnOverflow
	WarnUnsupportedOp
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
	StdName    string
	TargetArch string
	TargetOS   string
	QbeTarget  string
	// DiagOut receives warnings and rendered errors.
	DiagOut io.Writer
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
		StdName:    "G0",
		DiagOut:    os.Stderr,
	}

	features := map[Feature]Info{
		FeatArith:      {"arith", false, "Generate code for '-', '*', '/', '%' and '^' (only '+' otherwise)."},
		FeatPrecedence: {"precedence", false, "Parse '^' above '*' '/' '%' above '+' '-' instead of one left-to-right tier."},
		FeatCComments:  {"c-comments", false, "Recognize C-style '//' line comments."},
	}

	warnings := map[Warning]Info{
		WarnUnreachableCode: {"unreachable-code", true, "Warn about statements after an 'exit'."},
		WarnUnusedVar:       {"unused-variable", true, "Warn about variables that are declared but never read."},
		WarnExitRange:       {"exit-range", true, "Warn when a literal exit status is outside 0..255."},
		WarnOverflow:        {"overflow", true, "Warn when an integer literal does not fit a signed 64-bit word."},
		WarnUnsupportedOp:   {"unsupported-op", false, "Warn early about operators code generation will reject."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// SetTarget records the host platform and the matching QBE-style target name.
func (c *Config) SetTarget(goos, goarch string) {
	c.TargetOS, c.TargetArch = goos, goarch
	c.QbeTarget = libqbe.DefaultTarget(goos, goarch)
}

// CanRunOutput reports whether the emitted x86-64 Linux assembly can be
// assembled and executed on the configured host.
func (c *Config) CanRunOutput() bool {
	return c.QbeTarget == "amd64_sysv" && c.TargetOS == "linux"
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyStd selects a language standard. G0 is the reference language where
// only addition is generated; Gx turns on full arithmetic with precedence.
func (c *Config) ApplyStd(stdName string) error {
	type stdSettings struct {
		feature Feature
		g0Value bool
		gxValue bool
	}

	settings := []stdSettings{
		{FeatArith, false, true},
		{FeatPrecedence, false, true},
		{FeatCComments, false, true},
	}

	switch stdName {
	case "G0":
		for _, s := range settings {
			c.SetFeature(s.feature, s.g0Value)
		}
		c.SetWarning(WarnUnsupportedOp, true)
	case "Gx":
		for _, s := range settings {
			c.SetFeature(s.feature, s.gxValue)
		}
		c.SetWarning(WarnUnsupportedOp, false)
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'G0', 'Gx'", stdName)
	}
	c.StdName = stdName
	return nil
}

func (c *Config) applyFlag(flag string) error {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
	default:
		return fmt.Errorf("unrecognized flag '%s'", flag)
	}
	if isNo {
		name = strings.TrimPrefix(name, "no-")
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return nil
	}

	if isWarning {
		w, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("unknown warning '%s'", name)
		}
		c.SetWarning(w, enable)
		return nil
	}
	f, ok := c.FeatureMap[name]
	if !ok {
		return fmt.Errorf("unknown feature '%s'", name)
	}
	c.SetFeature(f, enable)
	return nil
}

// ProcessDirectiveFlags applies a space separated list such as "-Farith -Wno-overflow".
func (c *Config) ProcessDirectiveFlags(flagStr string) error {
	for _, flag := range strings.Fields(flagStr) {
		if err := c.applyFlag(flag); err != nil {
			return err
		}
	}
	return nil
}

// SetupFlagGroups registers -F<feature>/-Fno-<feature> and
// -W<warning>/-Wno-<warning> on fs. The returned entries are indexed by
// Warning and Feature and are read back with ApplyFlagGroups after parsing.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool), Default: info.Enabled,
		}
	}

	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool), Default: info.Enabled,
		}
	}

	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning", "Available Warnings:", warningFlags)
	fs.AddFlagGroup("Feature Flags", "Enable or disable specific features", "feature", "Available Features:", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups copies parsed -W/-F switches into the configuration. It runs
// after ApplyStd so explicit flags override the standard.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
