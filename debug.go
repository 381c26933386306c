package spindle

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/danpasecinic/spindle/internal/container"
)

type GraphInfo = container.GraphInfo

type KeyInfo = container.KeyInfo

type BindingInfo = container.BindingInfo

// Graph describes every registered key: its candidates, highest priority
// first, and the keys that depend on it. Missing keys and cycles are
// reported as Validate would.
func (i *Injector) Graph() GraphInfo {
	return i.internal.Info()
}

// ResolutionOrder lists the keys resolving key constructs, dependencies
// first.
func (i *Injector) ResolutionOrder(key Key) ([]string, error) {
	return i.internal.ResolutionOrder(key)
}

func (i *Injector) PrintGraph() {
	i.FprintGraph(os.Stdout)
}

// FprintGraph renders one table row per key and candidate.
func (i *Injector) FprintGraph(w io.Writer) {
	info := i.Graph()

	if len(info.Keys) == 0 {
		_, _ = fmt.Fprintln(w, "(empty injector)")
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Key", "Binding", "Kind", "Scope", "Priority", "Dependencies"})

	for _, k := range info.Keys {
		if len(k.Candidates) == 0 {
			tw.AppendRow(table.Row{k.Key, "(none)", "", "", "", ""})
			continue
		}
		for n, b := range k.Candidates {
			key := k.Key
			if n > 0 {
				key = ""
			}
			source := b.Source
			if b.Aggregate {
				source += " (aggregate)"
			}
			tw.AppendRow(
				table.Row{
					key, source, b.Kind, scopeName(b.Scope), strconv.Itoa(b.Priority),
					strings.Join(b.Dependencies, ", "),
				},
			)
		}
	}

	_, _ = fmt.Fprintln(w, tw.Render())

	if len(info.Missing) > 0 {
		_, _ = fmt.Fprintf(w, "missing: %s\n", strings.Join(info.Missing, ", "))
	}
	for _, cycle := range info.Cycles {
		_, _ = fmt.Fprintf(w, "cycle: %s\n", strings.Join(cycle, " -> "))
	}
}

func (i *Injector) SprintGraph() string {
	var sb strings.Builder
	i.FprintGraph(&sb)
	return sb.String()
}

func (i *Injector) PrintGraphDOT() {
	i.FprintGraphDOT(os.Stdout)
}

// FprintGraphDOT renders the dependency graph in Graphviz DOT. Each key
// points at the keys its chosen binding depends on; missing keys are
// drawn dashed.
func (i *Injector) FprintGraphDOT(w io.Writer) {
	g := i.internal.Graph()

	_, _ = fmt.Fprintln(w, "digraph dependencies {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, id := range g.Nodes() {
		_, _ = fmt.Fprintf(w, "  %q [label=%q];\n", id, escapeLabel(id))
	}
	for _, id := range g.Missing() {
		_, _ = fmt.Fprintf(w, "  %q [label=%q, style=dashed];\n", id, escapeLabel(id))
	}

	_, _ = fmt.Fprintln(w)

	for _, id := range g.Nodes() {
		for _, dep := range g.Dependencies(id) {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", id, dep)
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

func (i *Injector) SprintGraphDOT() string {
	var sb strings.Builder
	i.FprintGraphDOT(&sb)
	return sb.String()
}

func scopeName(s string) string {
	if s == "" {
		return "-"
	}
	return escapeLabel(s)
}

var packagePath = regexp.MustCompile(`[\w.-]+/`)

// escapeLabel drops pointer stars and package paths.
func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	return packagePath.ReplaceAllString(s, "")
}
