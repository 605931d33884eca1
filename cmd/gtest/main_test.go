package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareResults(t *testing.T) {
	golden := &CompileResult{AsmHash: "a", Asm: "mov rax, 1\n", Run: &Execution{ExitCode: 1}}

	same := &CompileResult{AsmHash: "a", Asm: "mov rax, 1\n", Run: &Execution{ExitCode: 1}}
	res := compareResults("x.glassy", golden, same)
	require.Equal(t, "PASS", res.Status)
	require.Equal(t, "Compiler output and exit code match", res.Message)

	changed := &CompileResult{AsmHash: "b", Asm: "mov rax, 2\n", Run: &Execution{ExitCode: 2}}
	res = compareResults("x.glassy", golden, changed)
	require.Equal(t, "FAIL", res.Status)
	require.Contains(t, res.Diff, "Assembly mismatch")
	require.Contains(t, res.Diff, "Program exit code mismatch")
}

func TestCompareExpectedCompileFailure(t *testing.T) {
	stderr := "__SOURCE__:1:8: error: undeclared variable 'y'\n"
	golden := &CompileResult{Compile: Execution{ExitCode: 1, Stderr: stderr}}

	res := compareResults("x.glassy", golden, &CompileResult{Compile: Execution{ExitCode: 1, Stderr: stderr}})
	require.Equal(t, "PASS", res.Status)

	res = compareResults("x.glassy", golden, &CompileResult{AsmHash: "a", Asm: "x"})
	require.Equal(t, "FAIL", res.Status)
	require.Contains(t, res.Diff, "Compiler exit code mismatch")
}

func TestNormalizePaths(t *testing.T) {
	got := normalizePaths("/tmp/t/sum.glassy:1:1: error: x\nsum.glassy again", "/tmp/t/sum.glassy")
	require.Equal(t, "__SOURCE__:1:1: error: x\n__SOURCE__ again", got)
	require.Empty(t, normalizePaths("", "a.glassy"))
}

func TestExpandGlobPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.glassy", "b.glassy", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	pattern := filepath.Join(dir, "*.glassy")

	files, err := expandGlobPatterns(pattern + " " + pattern)
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestHashFileIsContentBased(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.glassy"), filepath.Join(dir, "b.glassy")
	require.NoError(t, os.WriteFile(a, []byte("exit 0;"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("exit 0;"), 0o644))

	ha, err := hashFile(a)
	require.NoError(t, err)
	hb, err := hashFile(b)
	require.NoError(t, err)
	require.Equal(t, ha, hb)
}
