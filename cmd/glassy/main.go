package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sanity-io/litter"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/Paul-111129/Glassy-Compiler/pkg/checker"
	"github.com/Paul-111129/Glassy-Compiler/pkg/cli"
	"github.com/Paul-111129/Glassy-Compiler/pkg/codegen"
	"github.com/Paul-111129/Glassy-Compiler/pkg/config"
	"github.com/Paul-111129/Glassy-Compiler/pkg/lexer"
	"github.com/Paul-111129/Glassy-Compiler/pkg/parser"
	"github.com/Paul-111129/Glassy-Compiler/pkg/token"
	"github.com/Paul-111129/Glassy-Compiler/pkg/util"
)

type options struct {
	outFile    string
	buildFile  string
	dumpTokens bool
	dumpAST    bool
	dumpIR     bool
	stdout     io.Writer
}

func main() {
	app := cli.NewApp("glassy")
	app.Synopsis = "[options] <input.glassy>"
	app.Description = "A compiler for the Glassy language. Emits x86-64 NASM assembly for Linux."
	app.Authors = []string{"Paul-111129"}
	app.Repository = "<https://github.com/Paul-111129/Glassy-Compiler>"

	var (
		opts    = options{stdout: os.Stdout}
		std     string
		wall    bool
		verbose bool
	)

	fs := app.FlagSet
	fs.String(&opts.outFile, "output", "o", "out.asm", "Place the assembly into <file>.", "file")
	fs.String(&opts.buildFile, "build", "b", "", "Also assemble with nasm and link with ld into <exe>.", "exe")
	fs.String(&std, "std", "", "G0", "Specify language standard (G0, Gx)", "std")
	fs.Bool(&opts.dumpTokens, "dump-tokens", "T", false, "Print the token table.")
	fs.Bool(&opts.dumpAST, "dump-ast", "A", false, "Print the syntax tree.")
	fs.Bool(&opts.dumpIR, "dump-ir", "d", false, "Print the instruction list before assembly rendering.")
	fs.Bool(&verbose, "verbose", "v", false, "Log each compilation stage.")
	fs.Bool(&wall, "Wall", "", false, "Enable all warnings.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		var sources util.Sources
		report := func(err error) error {
			sources.Report(cfg.DiagOut, err)
			return err
		}

		if err := cfg.ApplyStd(std); err != nil {
			return report(err)
		}
		if wall {
			if err := cfg.ProcessDirectiveFlags("-Wall"); err != nil {
				return report(err)
			}
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		cfg.SetTarget(runtime.GOOS, runtime.GOARCH)

		if len(inputFiles) != 1 {
			return report(errors.New("expected exactly one input file, got %d", len(inputFiles)))
		}

		span := tlog.Span{}
		if verbose {
			span = tlog.Root()
		}
		ctx := tlog.ContextWithSpan(context.Background(), span)

		path := inputFiles[0]
		err := compileFile(ctx, path, cfg, opts, &sources)
		if err != nil {
			return report(errors.Wrap(err, "compile %v", path))
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// compileFile runs the whole pipeline for one file. The output file is only
// written once every stage has succeeded. sources is filled in as soon as the
// file is read so the caller can render located errors.
func compileFile(ctx context.Context, path string, cfg *config.Config, opts options, sources *util.Sources) error {
	tr := tlog.SpanFromContext(ctx)

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read file")
	}
	runes := []rune(string(content))
	*sources = util.Sources{{Name: path, Content: runes}}
	tr.Printw("read file", "name", path, "size", humanize.Bytes(uint64(len(content))), "std", cfg.StdName)

	toks, err := lexer.Tokenize(runes, 0, cfg)
	if err != nil {
		return err
	}
	tr.Printw("tokenized", "tokens", len(toks)-1)
	if opts.dumpTokens {
		dumpTokens(opts.stdout, toks)
	}

	prog, err := parser.NewParser(toks, cfg).Parse()
	if err != nil {
		return err
	}
	terms, exprs, stmts := prog.Arena.Len()
	tr.Printw("parsed", "statements", len(prog.Stmts), "terms", terms, "exprs", exprs, "stmt_nodes", stmts)
	if opts.dumpAST {
		fmt.Fprintln(opts.stdout, litter.Sdump(prog.Tree()))
	}

	diags := checker.NewChecker(cfg).Check(prog)
	for _, d := range diags {
		sources.Warn(cfg, d)
	}
	tr.Printw("checked", "diagnostics", len(diags))

	irProg, err := codegen.NewContext(cfg).Generate(prog)
	if err != nil {
		return err
	}
	tr.Printw("generated", "instructions", len(irProg.Instrs), "max_stack", irProg.MaxDepth)
	if opts.dumpIR {
		fmt.Fprint(opts.stdout, irProg.Dump())
	}

	asm, err := codegen.NewNASMBackend().Generate(irProg)
	if err != nil {
		return errors.Wrap(err, "render assembly")
	}

	if err := os.WriteFile(opts.outFile, asm.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "write output")
	}
	tr.Printw("wrote assembly", "file", opts.outFile, "size", humanize.Bytes(uint64(asm.Len())))

	if opts.buildFile == "" {
		return nil
	}
	if !cfg.CanRunOutput() {
		return errors.New("cannot build for %s/%s: output targets linux/amd64", cfg.TargetOS, cfg.TargetArch)
	}
	if err := assembleAndLink(opts.buildFile, opts.outFile); err != nil {
		return errors.Wrap(err, "build")
	}
	tr.Printw("linked", "exe", opts.buildFile)
	return nil
}

func dumpTokens(w io.Writer, toks []token.Token) {
	for i, tok := range toks {
		if tok.Type == token.EOF {
			break
		}
		fmt.Fprintf(w, "%3d: %-10s %-10s [Ln %3d, Col %3d]\n", i+1, tok.Type.Name(), tok.Text(), tok.Line, tok.Column)
	}
}

func assembleAndLink(exe, asmFile string) error {
	objFile, err := os.CreateTemp("", "glassy-*.o")
	if err != nil {
		return errors.Wrap(err, "create temp object file")
	}
	objFile.Close()
	defer os.Remove(objFile.Name())

	steps := [][]string{
		{"nasm", "-felf64", "-o", objFile.Name(), asmFile},
		{"ld", "-o", exe, objFile.Name()},
	}
	for _, args := range steps {
		cmd := exec.Command(args[0], args[1:]...)
		if output, err := cmd.CombinedOutput(); err != nil {
			return errors.Wrap(err, "%s failed\nOutput:\n%s", filepath.Base(args[0]), strings.TrimSpace(string(output)))
		}
	}
	return nil
}
