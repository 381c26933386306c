package main

import (
	"bufio"
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type BenchmarkResult struct {
	Name       string  `json:"name"`
	Framework  string  `json:"framework"`
	Category   string  `json:"category"`
	Scenario   string  `json:"scenario"`
	Iterations int64   `json:"iterations"`
	NsPerOp    float64 `json:"ns_per_op"`
	BytesPerOp int64   `json:"bytes_per_op"`
	AllocsOp   int64   `json:"allocs_per_op"`
}

type CategoryResults struct {
	Category string
	Results  []BenchmarkResult
}

var frameworkColors = map[string]text.Colors{
	"Spindle": {text.FgGreen},
	"Do":      {text.FgYellow},
	"Dig":     {text.FgMagenta},
	"Fx":      {text.FgBlue},
}

var categoryOrder = []string{
	"Provide_Simple", "Provide_Chain",
	"Invoke_Singleton", "Invoke_Chain", "Invoke_Unscoped",
	"Named_10", "GetAll_10", "GetMap_10",
}

var categoryTitles = map[string]string{
	"Provide_Simple":   "Registration (single instance)",
	"Provide_Chain":    "Registration (dependency chain)",
	"Invoke_Singleton": "Resolution (singleton)",
	"Invoke_Chain":     "Resolution (singleton chain)",
	"Invoke_Unscoped":  "Resolution (unscoped chain)",
	"Named_10":         "Named bindings (10)",
	"GetAll_10":        "List multibinding (10)",
	"GetMap_10":        "Map multibinding (10)",
}

var (
	benchPattern = regexp.MustCompile(`^Benchmark(\w+)-\d+\s+(\d+)\s+([\d.]+) ns/op\s+(\d+) B/op\s+(\d+) allocs/op`)
	namePattern  = regexp.MustCompile(`^([^_]+)_([^_]+)_(\w+)$`)
)

func main() {
	jsonOut := flag.String("json", "", "write results to this file")
	count := flag.Int("count", 3, "runs per benchmark")
	flag.Parse()

	benchDir := ".."
	if flag.NArg() > 0 {
		benchDir = flag.Arg(0)
	}

	fmt.Println(text.Colors{text.Bold, text.FgCyan}.Sprint("Spindle DI benchmark suite"))
	fmt.Println(text.Faint.Sprint("Running benchmarks..."))
	fmt.Println()

	cmd := exec.Command(
		"go", "test", "-bench=.", "-benchmem", "-count="+strconv.Itoa(*count), "-benchtime=100ms",
	)
	cmd.Dir = benchDir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			_, _ = fmt.Fprintf(os.Stderr, "Benchmark failed: %s\n", string(exitErr.Stderr))
		}
		os.Exit(1)
	}

	results := parseResults(output)
	grouped := groupByCategory(results)

	for _, cat := range grouped {
		printCategory(cat)
	}
	printSummary(grouped)

	if *jsonOut != "" {
		if err := exportJSON(*jsonOut, results); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
	}
}

// parseResults averages the runs of each benchmark.
func parseResults(output []byte) []BenchmarkResult {
	seen := make(map[string][]BenchmarkResult)
	var names []string

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		m := benchPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		r := BenchmarkResult{Name: m[1]}
		r.Iterations, _ = strconv.ParseInt(m[2], 10, 64)
		r.NsPerOp, _ = strconv.ParseFloat(m[3], 64)
		r.BytesPerOp, _ = strconv.ParseInt(m[4], 10, 64)
		r.AllocsOp, _ = strconv.ParseInt(m[5], 10, 64)

		if parts := namePattern.FindStringSubmatch(r.Name); parts != nil {
			r.Category, r.Scenario, r.Framework = parts[1], parts[2], parts[3]
		} else if parts := strings.Split(r.Name, "_"); len(parts) >= 2 {
			r.Category = parts[0]
			r.Scenario = strings.Join(parts[1:len(parts)-1], "_")
			r.Framework = parts[len(parts)-1]
		}

		if _, ok := seen[r.Name]; !ok {
			names = append(names, r.Name)
		}
		seen[r.Name] = append(seen[r.Name], r)
	}

	results := make([]BenchmarkResult, 0, len(names))
	for _, name := range names {
		runs := seen[name]
		avg := runs[0]
		var ns float64
		var size, allocs int64
		for _, r := range runs {
			ns += r.NsPerOp
			size += r.BytesPerOp
			allocs += r.AllocsOp
		}
		n := int64(len(runs))
		avg.NsPerOp = ns / float64(n)
		avg.BytesPerOp = size / n
		avg.AllocsOp = allocs / n
		results = append(results, avg)
	}
	return results
}

func groupByCategory(results []BenchmarkResult) []CategoryResults {
	groups := make(map[string][]BenchmarkResult)
	var extra []string
	for _, r := range results {
		key := r.Category + "_" + r.Scenario
		if _, ok := groups[key]; !ok && !slices.Contains(categoryOrder, key) {
			extra = append(extra, key)
		}
		groups[key] = append(groups[key], r)
	}

	var ordered []CategoryResults
	for _, key := range append(slices.Clone(categoryOrder), extra...) {
		rs, ok := groups[key]
		if !ok {
			continue
		}
		slices.SortFunc(rs, func(a, b BenchmarkResult) int { return cmp.Compare(a.NsPerOp, b.NsPerOp) })
		ordered = append(ordered, CategoryResults{Category: key, Results: rs})
	}
	return ordered
}

func printCategory(cat CategoryResults) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(formatCategoryTitle(cat.Category))
	tw.AppendHeader(table.Row{"Framework", "Time/op", "Relative", "B/op", "Allocs/op"})
	tw.SetColumnConfigs(
		[]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
			{Number: 5, Align: text.AlignRight},
		},
	)

	fastest := cat.Results[0].NsPerOp
	for i, r := range cat.Results {
		relative := "fastest"
		if i > 0 && fastest > 0 {
			relative = fmt.Sprintf("%.1fx", r.NsPerOp/fastest)
		}
		tw.AppendRow(
			table.Row{
				colorOf(r.Framework).Sprint(r.Framework), formatNs(r.NsPerOp), relative, r.BytesPerOp, r.AllocsOp,
			},
		)
	}
	tw.Render()
	fmt.Println()
}

func formatCategoryTitle(cat string) string {
	if title, ok := categoryTitles[cat]; ok {
		return title
	}
	return strings.ReplaceAll(cat, "_", " ")
}

func formatNs(ns float64) string {
	switch {
	case ns >= 1_000_000:
		return fmt.Sprintf("%.2f ms", ns/1_000_000)
	case ns >= 1_000:
		return fmt.Sprintf("%.2f µs", ns/1_000)
	default:
		return fmt.Sprintf("%.0f ns", ns)
	}
}

func colorOf(framework string) text.Colors {
	if c, ok := frameworkColors[framework]; ok {
		return c
	}
	return text.Colors{text.Reset}
}

func printSummary(groups []CategoryResults) {
	wins := make(map[string]int)
	for _, cat := range groups {
		wins[cat.Results[0].Framework]++
	}

	frameworks := make([]string, 0, len(wins))
	for name := range wins {
		frameworks = append(frameworks, name)
	}
	slices.SortFunc(
		frameworks, func(a, b string) int {
			if c := cmp.Compare(wins[b], wins[a]); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		},
	)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Summary")
	tw.AppendHeader(table.Row{"#", "Framework", "Wins"})
	for i, name := range frameworks {
		tw.AppendRow(table.Row{i + 1, colorOf(name).Sprint(name), fmt.Sprintf("%d/%d", wins[name], len(groups))})
	}
	tw.Render()

	fmt.Println()
	fmt.Println(text.Faint.Sprint("Frameworks compared:"))
	fmt.Println("  Spindle    - This library (github.com/danpasecinic/spindle)")
	fmt.Println("  samber/do  - Generics-based DI (github.com/samber/do)")
	fmt.Println("  uber/dig   - Reflection-based DI (go.uber.org/dig)")
	fmt.Println("  uber/fx    - Full application framework (go.uber.org/fx)")
	fmt.Println()
}

func exportJSON(path string, results []BenchmarkResult) error {
	data, err := json.MarshalIndent(struct {
		Benchmarks []BenchmarkResult `json:"benchmarks"`
	}{Benchmarks: results}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Println(text.Faint.Sprint("Results exported to " + path))
	return nil
}
