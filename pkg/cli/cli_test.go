package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestSet() (*FlagSet, *string, *string, *bool, *[]string) {
	fs := NewFlagSet("test")
	var out, std string
	var verbose bool
	var defs []string
	fs.String(&out, "output", "o", "out.asm", "Output file.", "file")
	fs.String(&std, "std", "", "G0", "Language standard.", "std")
	fs.Bool(&verbose, "verbose", "v", false, "Verbose.")
	fs.List(&defs, "flag", "f", []string{}, "Extra flag.", "flag")
	return fs, &out, &std, &verbose, &defs
}

func TestParseForms(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		out     string
		std     string
		verbose bool
		rest    []string
	}{
		{"defaults", []string{"a.glassy"}, "out.asm", "G0", false, []string{"a.glassy"}},
		{"long with space", []string{"--output", "x.asm", "a.glassy"}, "x.asm", "G0", false, []string{"a.glassy"}},
		{"long with equals", []string{"--output=y.asm"}, "y.asm", "G0", false, []string{}},
		{"short attached", []string{"-oz.asm", "-v"}, "z.asm", "G0", true, []string{}},
		{"short separate", []string{"-o", "w.asm", "b.glassy"}, "w.asm", "G0", false, []string{"b.glassy"}},
		{"single dash long", []string{"-std", "Gx"}, "out.asm", "Gx", false, []string{}},
		{"single dash equals", []string{"-std=Gx"}, "out.asm", "Gx", false, []string{}},
		{"double dash ends flags", []string{"--", "-v"}, "out.asm", "G0", false, []string{"-v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, out, std, verbose, _ := newTestSet()
			require.NoError(t, fs.Parse(tt.args))
			require.Equal(t, tt.out, *out)
			require.Equal(t, tt.std, *std)
			require.Equal(t, tt.verbose, *verbose)
			if diff := cmp.Diff(tt.rest, fs.Args()); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	fs, _, _, _, defs := newTestSet()
	require.NoError(t, fs.Parse([]string{"-f", "a", "--flag=b"}))
	require.Equal(t, []string{"a", "b"}, *defs)
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--nope"},
		{"-x"},
		{"--output"},
		{"-o"},
		{"-vx"},
		{"--verbose=maybe"},
	} {
		fs, _, _, _, _ := newTestSet()
		require.Error(t, fs.Parse(args), "args %v", args)
	}
}

func TestFlagGroups(t *testing.T) {
	fs := NewFlagSet("test")
	entries := []FlagGroupEntry{
		{Name: "overflow", Prefix: "W", Usage: "Overflow.", Enabled: new(bool), Disabled: new(bool), Default: true},
	}
	fs.AddFlagGroup("Warning Flags", "", "warning", "Available Warnings:", entries)
	require.NoError(t, fs.Parse([]string{"-Wno-overflow"}))
	require.False(t, *entries[0].Enabled)
	require.True(t, *entries[0].Disabled)
}

func TestHelpPage(t *testing.T) {
	app := NewApp("glassy")
	app.Synopsis = "[options] <input.glassy>"
	var out string
	app.FlagSet.String(&out, "output", "o", "out.asm", "Place the output into <file>.", "file")
	entries := []FlagGroupEntry{
		{Name: "arith", Prefix: "F", Usage: "Full arithmetic.", Enabled: new(bool), Disabled: new(bool)},
	}
	app.FlagSet.AddFlagGroup("Feature Flags", "", "feature", "Available Features:", entries)

	var stdout bytes.Buffer
	app.Stdout = &stdout
	require.NoError(t, app.Run([]string{"--help"}))

	help := stdout.String()
	for _, want := range []string{"-o, --output <file>", "|out.asm|", "-F<feature>", "-Fno-<feature>", "arith", "|-|"} {
		if !strings.Contains(help, want) {
			t.Errorf("help page is missing %q:\n%s", want, help)
		}
	}
	if strings.Contains(help, "--Farith") {
		t.Errorf("group flags must not be listed as options:\n%s", help)
	}
}

func TestRunReportsParseError(t *testing.T) {
	app := NewApp("glassy")
	var stderr bytes.Buffer
	app.Stderr = &stderr
	called := false
	app.Action = func([]string) error { called = true; return nil }
	require.Error(t, app.Run([]string{"--bogus"}))
	require.False(t, called)
	require.Contains(t, stderr.String(), "unknown flag: --bogus")
	require.Contains(t, stderr.String(), "Usage: glassy")
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	if diff := cmp.Diff([]string{"one two", "three", "four"}, got); diff != "" {
		t.Errorf("wrap mismatch (-want +got):\n%s", diff)
	}
}
