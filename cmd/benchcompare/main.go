// Command benchcompare runs the benchmark suites for pkg/webcore and
// pkg/server and reports whether a change moved the needle, using
// golang.org/x/perf/benchstat for the statistics instead of hand-rolled
// parsing and significance math.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/perf/benchstat"
)

const (
	defaultBenchTime = "1s"
	defaultCount     = 5
	defaultCPUList   = "1,4"
)

// config holds the orchestrator's command-line settings.
type config struct {
	packages  []string
	benchTime string
	count     int
	cpuList   string
	outputDir string
	baseline  bool
	verbose   bool
}

func defaultPackages() []string {
	return []string{"./pkg/webcore", "./pkg/server"}
}

func parseFlags() config {
	var cfg config
	var pkgList string

	flag.StringVar(&pkgList, "pkgs", "", "comma-separated package paths to benchmark (default: pkg/webcore,pkg/server)")
	flag.StringVar(&cfg.benchTime, "benchtime", defaultBenchTime, "time.Duration or iteration count passed to -benchtime")
	flag.IntVar(&cfg.count, "count", defaultCount, "number of times to run each benchmark")
	flag.StringVar(&cfg.cpuList, "cpu", defaultCPUList, "comma-separated GOMAXPROCS values passed to -cpu")
	flag.StringVar(&cfg.outputDir, "out", "benchout", "directory holding baseline.txt and current.txt")
	flag.BoolVar(&cfg.baseline, "baseline", false, "save this run as the baseline instead of comparing against it")
	flag.BoolVar(&cfg.verbose, "v", false, "stream go test output to stderr as it runs")
	flag.Parse()

	if pkgList == "" {
		cfg.packages = defaultPackages()
	} else {
		cfg.packages = splitComma(pkgList)
	}
	return cfg
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// runBenchmarks shells out to `go test -bench` for each package in turn and
// concatenates their output, which is already in the textual format
// golang.org/x/perf/benchstat expects — no custom parser needed.
func runBenchmarks(cfg config) ([]byte, error) {
	var combined bytes.Buffer

	for _, pkg := range cfg.packages {
		args := []string{
			"test",
			pkg,
			"-bench=.",
			"-benchmem",
			"-run=^$",
			fmt.Sprintf("-benchtime=%s", cfg.benchTime),
			fmt.Sprintf("-count=%d", cfg.count),
			fmt.Sprintf("-cpu=%s", cfg.cpuList),
		}

		cmd := exec.Command("go", args...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if cfg.verbose {
			log.Printf("running: go %v", args)
		}

		start := time.Now()
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("benchmarking %s: %w\n%s", pkg, err, stderr.String())
		}
		if cfg.verbose {
			log.Printf("%s finished in %v", pkg, time.Since(start))
		}

		fmt.Fprintf(&combined, "# %s\n", pkg)
		combined.Write(stdout.Bytes())
		combined.WriteByte('\n')
	}

	return combined.Bytes(), nil
}

func main() {
	cfg := parseFlags()

	if err := os.MkdirAll(cfg.outputDir, 0o755); err != nil {
		log.Fatalf("creating output dir: %v", err)
	}

	out, err := runBenchmarks(cfg)
	if err != nil {
		log.Fatalf("benchmark run failed: %v", err)
	}

	currentPath := filepath.Join(cfg.outputDir, "current.txt")
	if err := os.WriteFile(currentPath, out, 0o644); err != nil {
		log.Fatalf("writing %s: %v", currentPath, err)
	}

	if cfg.baseline {
		baselinePath := filepath.Join(cfg.outputDir, "baseline.txt")
		if err := os.WriteFile(baselinePath, out, 0o644); err != nil {
			log.Fatalf("writing %s: %v", baselinePath, err)
		}
		log.Printf("saved baseline to %s", baselinePath)
		return
	}

	baselinePath := filepath.Join(cfg.outputDir, "baseline.txt")
	if _, err := os.Stat(baselinePath); err != nil {
		log.Fatalf("no baseline found at %s; run with -baseline first", baselinePath)
	}

	var c benchstat.Collection
	c.DeltaTest = benchstat.UTest
	if err := c.AddConfig("baseline", mustRead(baselinePath)); err != nil {
		log.Fatalf("reading baseline: %v", err)
	}
	if err := c.AddConfig("current", out); err != nil {
		log.Fatalf("reading current results: %v", err)
	}

	benchstat.FormatText(os.Stdout, c.Tables())
}

func mustRead(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("reading %s: %v", path, err)
	}
	return data
}
