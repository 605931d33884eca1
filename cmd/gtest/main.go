// gtest compiles every .glassy program it is given and compares the compiler
// diagnostics, the emitted assembly and (with -run) the exit status of the
// linked binary against golden JSON files stored next to the sources.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

type Execution struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

// CompileResult is what one compiler invocation produced for one source file.
type CompileResult struct {
	SourceHash string     `json:"source_hash"`
	Compile    Execution  `json:"compile"`
	AsmHash    string     `json:"asm_hash,omitempty"`
	Asm        string     `json:"asm,omitempty"`
	Run        *Execution `json:"run,omitempty"`
}

type FileTestResult struct {
	File    string         `json:"file"`
	Status  string         `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string         `json:"message,omitempty"`
	Diff    string         `json:"diff,omitempty"`
	Golden  *CompileResult `json:"golden,omitempty"`
	Target  *CompileResult `json:"target,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	targetCompiler = flag.String("compiler", "./glassy", "Path to the compiler under test.")
	targetArgs     = flag.String("args", "", "Extra compiler arguments (space-separated).")
	generateGolden = flag.String("generate-golden", "", "Generate golden .json files for the given source files (space-separated).")
	testFiles      = flag.String("test-files", "tests/*.glassy", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each command execution.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	runBinaries    = flag.Bool("run", false, "Build each program with nasm and ld and compare exit codes.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

// sourcePlaceholder replaces the source path in diagnostics so goldens do not
// depend on where the tree is checked out.
const sourcePlaceholder = "__SOURCE__"

func main() {
	flag.Parse()
	log.SetFlags(0)

	tempDir, err := os.MkdirTemp("", "gtest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to create temp directory: %v\n", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)
	setupInterruptHandler(tempDir)

	if *generateGolden != "" {
		for _, file := range strings.Fields(*generateGolden) {
			handleGenerateGolden(file, tempDir)
		}
		return
	}

	if failed := handleRunTestSuite(tempDir); failed {
		os.RemoveAll(tempDir)
		os.Exit(1)
	}
}

func setupInterruptHandler(tempDir string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		os.RemoveAll(tempDir)
		fmt.Printf("\n%s[INTERRUPT]%s Test run cancelled. Cleaning up...\n", cYellow, cNone)
		os.Exit(1)
	}()
}

func getJSONPath(sourceFile string) string {
	jsonFileName := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, jsonFileName)
	}
	return filepath.Join(filepath.Dir(sourceFile), jsonFileName)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

func handleGenerateGolden(sourceFile, tempDir string) {
	log.Printf("Generating golden file for %s...\n", sourceFile)

	fileHash, err := hashFile(sourceFile)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Could not hash source file %s: %v\n", cRed, cNone, sourceFile, err)
	}

	result := compileAndRun(*targetCompiler, strings.Fields(*targetArgs), sourceFile, tempDir, fileHash)
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to marshal golden data to JSON: %v\n", cRed, cNone, err)
	}

	goldenFileName := getJSONPath(sourceFile)
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to create directory %s: %v\n", cRed, cNone, *jsonDir, err)
		}
	}
	if err := os.WriteFile(goldenFileName, jsonData, 0644); err != nil {
		log.Fatalf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, goldenFileName, err)
	}

	log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, goldenFileName)
}

func handleRunTestSuite(tempDir string) bool {
	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return false
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		if abs, err := filepath.Abs(f); err == nil {
			skipList[abs] = true
		}
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < max(*jobs, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				resultsChan <- testFile(file, tempDir)
			}
		}()
	}

	// Files with identical content are only tested once.
	seenHashes := make(map[string]string)
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- file
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}
	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})

	printSummary(allResults)
	return hasFailures(writeJSONReport(allResults))
}

func testFile(file, tempDir string) *FileTestResult {
	fileHash, err := hashFile(file)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: "Failed to hash source file"}
	}

	goldenFile := getJSONPath(file)
	goldenData, err := os.ReadFile(goldenFile)
	if os.IsNotExist(err) {
		return &FileTestResult{File: file, Status: "SKIP", Message: "Cannot test without a corresponding .json golden file"}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not read golden file %s: %v", goldenFile, err)}
	}
	var golden CompileResult
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file %s: %v", goldenFile, err)}
	}

	if golden.SourceHash != fileHash && *verbose {
		log.Printf("[%s] source changed since the golden file was generated", file)
	}

	target := compileAndRun(*targetCompiler, strings.Fields(*targetArgs), file, tempDir, fileHash)
	return compareResults(file, &golden, target)
}

// compareResults checks diagnostics and exit status of the compiler, the
// assembly text and, when both sides ran the binary, its exit status.
func compareResults(file string, golden, target *CompileResult) *FileTestResult {
	var diffs strings.Builder
	failed := false

	if golden.Compile.ExitCode != target.Compile.ExitCode {
		failed = true
		fmt.Fprintf(&diffs, "Compiler exit code mismatch:\n  - Golden: %d\n  - Target: %d\n", golden.Compile.ExitCode, target.Compile.ExitCode)
	}
	if d := cmp.Diff(golden.Compile.Stderr, target.Compile.Stderr); d != "" {
		failed = true
		fmt.Fprintf(&diffs, "Compiler STDERR mismatch:\n%s", d)
	}
	if golden.AsmHash != target.AsmHash {
		failed = true
		fmt.Fprintf(&diffs, "Assembly mismatch:\n%s", cmp.Diff(golden.Asm, target.Asm))
	}
	if golden.Run != nil && target.Run != nil && golden.Run.ExitCode != target.Run.ExitCode {
		failed = true
		fmt.Fprintf(&diffs, "Program exit code mismatch:\n  - Golden: %d\n  - Target: %d\n", golden.Run.ExitCode, target.Run.ExitCode)
	}

	if failed {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Output differs from golden file", Diff: diffs.String(), Golden: golden, Target: target}
	}
	msg := "Compiler output matches"
	if golden.Run != nil && target.Run != nil {
		msg = "Compiler output and exit code match"
	}
	return &FileTestResult{File: file, Status: "PASS", Message: msg, Golden: golden, Target: target}
}

func executeCommand(ctx context.Context, command string, args ...string) Execution {
	startTime := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	execResult := Execution{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
	}

	if ctx.Err() == context.DeadlineExceeded {
		execResult.TimedOut = true
		execResult.ExitCode = -1
	} else if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			execResult.ExitCode = exitErr.ExitCode()
		} else {
			execResult.ExitCode = -2
			execResult.Stderr += "\nExecution error: " + err.Error()
		}
	}
	return execResult
}

func compileAndRun(compiler string, compilerArgs []string, sourceFile, tempDir, fileHash string) *CompileResult {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	asmPath := filepath.Join(tempDir, fileHash+".asm")
	binaryPath := filepath.Join(tempDir, fileHash)

	allArgs := []string{"-o", asmPath}
	if *runBinaries {
		allArgs = append(allArgs, "-b", binaryPath)
	}
	allArgs = append(allArgs, compilerArgs...)
	allArgs = append(allArgs, sourceFile)

	result := &CompileResult{SourceHash: fileHash}
	result.Compile = executeCommand(ctx, compiler, allArgs...)
	result.Compile.Stderr = normalizePaths(result.Compile.Stderr, sourceFile)
	if result.Compile.ExitCode != 0 || result.Compile.TimedOut {
		return result
	}

	asm, err := os.ReadFile(asmPath)
	if err != nil {
		result.Compile.Stderr += fmt.Sprintf("\ncompilation succeeded but %s was not created", asmPath)
		return result
	}
	result.Asm = string(asm)
	result.AsmHash = fmt.Sprintf("%x", xxhash.Sum64(asm))

	if *runBinaries {
		runCtx, runCancel := context.WithTimeout(context.Background(), *timeout)
		defer runCancel()
		run := executeCommand(runCtx, binaryPath)
		result.Run = &run
	}
	return result
}

func normalizePaths(output, sourceFile string) string {
	if output == "" {
		return output
	}
	output = strings.ReplaceAll(output, sourceFile, sourcePlaceholder)
	return strings.ReplaceAll(output, filepath.Base(sourceFile), sourcePlaceholder)
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored int
	var totalCompile time.Duration

	fmt.Println()
	for _, result := range results {
		name := filepath.Base(result.File)
		switch result.Status {
		case "PASS":
			passed++
			line := fmt.Sprintf("%s[PASS]%s %s", cGreen, cNone, name)
			if result.Target != nil {
				totalCompile += result.Target.Compile.Duration
				line += fmt.Sprintf(" %s(%s)%s", cCyan, formatDuration(result.Target.Compile.Duration), cNone)
			}
			if *verbose {
				line += " - " + result.Message
			}
			fmt.Println(line)
		case "FAIL":
			failed++
			fmt.Printf("%s[FAIL]%s %s - %s\n", cRed, cNone, name, result.Message)
			fmt.Print(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			if *verbose {
				fmt.Printf("%s[SKIP]%s %s - %s\n", cYellow, cNone, name, result.Message)
			}
		case "ERROR":
			errored++
			fmt.Printf("%s[ERROR]%s %s - %s\n", cRed, cNone, name, result.Message)
		}
	}

	fmt.Println("\n----------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
	if passed > 0 {
		fmt.Printf("Average compile time: %s\n", formatDuration(totalCompile/time.Duration(passed)))
	}
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmedLine, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}

	outputFile := *outputJSON
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create dir %s: %v\n", cRed, cNone, *jsonDir, err)
		}
		outputFile = filepath.Join(*jsonDir, *outputJSON)
	}

	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, outputFile, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", outputFile)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
