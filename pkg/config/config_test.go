package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Paul-111129/Glassy-Compiler/pkg/cli"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	require.Equal(t, "G0", cfg.StdName)
	for ft := Feature(0); ft < FeatCount; ft++ {
		require.False(t, cfg.IsFeatureEnabled(ft), cfg.Features[ft].Name)
	}
	require.True(t, cfg.IsWarningEnabled(WarnUnusedVar))
	require.False(t, cfg.IsWarningEnabled(WarnUnsupportedOp))
	require.Equal(t, WarnExitRange, cfg.WarningMap["exit-range"])
	require.Equal(t, FeatCComments, cfg.FeatureMap["c-comments"])
}

func TestApplyStd(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.ApplyStd("Gx"))
	require.Equal(t, "Gx", cfg.StdName)
	require.True(t, cfg.IsFeatureEnabled(FeatArith))
	require.True(t, cfg.IsFeatureEnabled(FeatPrecedence))
	require.True(t, cfg.IsFeatureEnabled(FeatCComments))
	require.False(t, cfg.IsWarningEnabled(WarnUnsupportedOp))

	require.NoError(t, cfg.ApplyStd("G0"))
	require.False(t, cfg.IsFeatureEnabled(FeatArith))
	require.True(t, cfg.IsWarningEnabled(WarnUnsupportedOp))

	err := cfg.ApplyStd("C99")
	require.EqualError(t, err, "unsupported standard 'C99'. Supported: 'G0', 'Gx'")
	require.Equal(t, "G0", cfg.StdName)
}

func TestProcessDirectiveFlags(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.ProcessDirectiveFlags("-Wall -Wno-overflow -Farith"))
	require.True(t, cfg.IsWarningEnabled(WarnUnsupportedOp))
	require.False(t, cfg.IsWarningEnabled(WarnOverflow))
	require.True(t, cfg.IsFeatureEnabled(FeatArith))

	require.NoError(t, cfg.ProcessDirectiveFlags("-Wno-all -Fno-arith"))
	for wt := Warning(0); wt < WarnCount; wt++ {
		require.False(t, cfg.IsWarningEnabled(wt))
	}
	require.False(t, cfg.IsFeatureEnabled(FeatArith))

	require.EqualError(t, cfg.ProcessDirectiveFlags("-Wbogus"), "unknown warning 'bogus'")
	require.EqualError(t, cfg.ProcessDirectiveFlags("-Fbogus"), "unknown feature 'bogus'")
	require.EqualError(t, cfg.ProcessDirectiveFlags("-O2"), "unrecognized flag '-O2'")
}

func TestFlagGroupsOverrideStd(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("glassy")
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	require.NoError(t, fs.Parse([]string{"-Fno-precedence", "-Wno-unused-variable", "-Wunsupported-op", "prog.glassy"}))
	require.Equal(t, []string{"prog.glassy"}, fs.Args())

	require.NoError(t, cfg.ApplyStd("Gx"))
	cfg.ApplyFlagGroups(warningFlags, featureFlags)

	require.True(t, cfg.IsFeatureEnabled(FeatArith))
	require.False(t, cfg.IsFeatureEnabled(FeatPrecedence))
	require.False(t, cfg.IsWarningEnabled(WarnUnusedVar))
	require.True(t, cfg.IsWarningEnabled(WarnUnsupportedOp))
}

func TestSetTarget(t *testing.T) {
	cfg := NewConfig()
	cfg.SetTarget("linux", "amd64")
	require.Equal(t, "amd64_sysv", cfg.QbeTarget)
	require.Equal(t, "linux", cfg.TargetOS)
	require.True(t, cfg.CanRunOutput())

	cfg.SetTarget("darwin", "arm64")
	require.False(t, cfg.CanRunOutput())
}
