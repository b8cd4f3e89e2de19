//go:build ignore

// build.go builds the vanbiz binaries.
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, processor, dashboard, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const versionPkg = "vanbiz/pkg/contracts"

var (
	rootDir string
	distDir string

	// Key = directory under cmd/, value = output name without extension
	executables = map[string]string{
		"processor": "vanbiz-processor",
		"dashboard": "vanbiz-dashboard",
	}

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		printError(fmt.Sprintf("Failed to get current directory: %v", err))
		os.Exit(1)
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if runtime.GOOS == "windows" {
		colorReset, colorRed, colorGreen, colorCyan = "", "", "", ""
	}

	start := time.Now()
	switch *target {
	case "all":
		for _, name := range []string{"processor", "dashboard"} {
			buildExecutable(name, *verbose)
		}
	case "processor", "dashboard":
		buildExecutable(*target, *verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		clean()
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Done in %s", time.Since(start).Round(time.Millisecond)))
}

func printInfo(msg string)    { fmt.Println(colorCyan + "[INFO] " + colorReset + msg) }
func printSuccess(msg string) { fmt.Println(colorGreen + "[OK] " + colorReset + msg) }
func printError(msg string)   { fmt.Println(colorRed + "[ERROR] " + colorReset + msg) }

func buildExecutable(name string, verbose bool) {
	exeName := executables[name]
	if runtime.GOOS == "windows" {
		exeName += ".exe"
	}
	printInfo(fmt.Sprintf("Building %s...", name))

	outputPath := filepath.Join(distDir, exeName)
	ldflags := fmt.Sprintf("-s -w -X %s.BuildTime=%s -X %s.GitCommit=%s",
		versionPkg, time.Now().UTC().Format(time.RFC3339), versionPkg, gitCommit())

	args := []string{"build"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stderr = os.Stderr
	if verbose {
		fmt.Printf("go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, float64(info.Size())/1024/1024))
	}
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
		os.Exit(1)
	}
	printSuccess("Build artifacts cleaned")
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET [-v]")
	fmt.Println("Targets:")
	fmt.Println("  all         Build processor and dashboard")
	fmt.Println("  processor   Build the batch processor")
	fmt.Println("  dashboard   Build the dashboard server")
	fmt.Println("  test        Run go test -race ./...")
	fmt.Println("  clean       Remove dist/")
}
