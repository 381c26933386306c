package graph

import (
	"cmp"
	"slices"
)

type tarjan struct {
	g       *Graph
	index   int
	stack   []string
	onStack map[string]bool
	indices map[string]int
	lowlink map[string]int
	sccs    [][]string
}

// DetectCycles returns the strongly connected components that form a
// cycle, each sorted, in order of their smallest member.
func (g *Graph) DetectCycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.detectLocked()
}

func (g *Graph) detectLocked() [][]string {
	t := &tarjan{
		g:       g,
		onStack: make(map[string]bool),
		indices: make(map[string]int),
		lowlink: make(map[string]int),
	}
	for _, id := range g.sortedLocked() {
		if _, visited := t.indices[id]; !visited {
			t.connect(id)
		}
	}

	var cycles [][]string
	for _, scc := range t.sccs {
		if len(scc) > 1 || slices.Contains(g.nodes[scc[0]].Dependencies, scc[0]) {
			slices.Sort(scc)
			cycles = append(cycles, scc)
		}
	}
	slices.SortFunc(cycles, func(a, b []string) int { return cmp.Compare(a[0], b[0]) })
	return cycles
}

func (t *tarjan) connect(id string) {
	t.indices[id] = t.index
	t.lowlink[id] = t.index
	t.index++
	t.stack = append(t.stack, id)
	t.onStack[id] = true

	for _, dep := range t.g.nodes[id].Dependencies {
		if _, exists := t.g.nodes[dep]; !exists {
			continue
		}
		if _, visited := t.indices[dep]; !visited {
			t.connect(dep)
			t.lowlink[id] = min(t.lowlink[id], t.lowlink[dep])
		} else if t.onStack[dep] {
			t.lowlink[id] = min(t.lowlink[id], t.indices[dep])
		}
	}

	if t.lowlink[id] != t.indices[id] {
		return
	}
	var scc []string
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == id {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

func (g *Graph) HasCycle() bool {
	g.mu.RLock()
	if g.cycleValid {
		result := g.hasCycle
		g.mu.RUnlock()
		return result
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.cycleValid {
		g.hasCycle = len(g.detectLocked()) > 0
		g.cycleValid = true
	}
	return g.hasCycle
}

// FindCyclePath returns a path from start that closes a cycle, ending
// with its repeated node, or nil.
func (g *Graph) FindCyclePath(start string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.cyclePathLocked(start)
}

func (g *Graph) cyclePathLocked(start string) []string {
	visited := make(map[string]bool)
	var path []string

	var dfs func(id string) []string
	dfs = func(id string) []string {
		if i := slices.Index(path, id); i >= 0 {
			return append(slices.Clone(path[i:]), id)
		}
		if visited[id] {
			return nil
		}
		visited[id] = true
		path = append(path, id)

		for _, dep := range g.nodes[id].Dependencies {
			if _, exists := g.nodes[dep]; !exists {
				continue
			}
			if cycle := dfs(dep); cycle != nil {
				return cycle
			}
		}
		path = path[:len(path)-1]
		return nil
	}

	if _, exists := g.nodes[start]; !exists {
		return nil
	}
	return dfs(start)
}

// CyclePaths returns one closing path per cycle.
func (g *Graph) CyclePaths() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var paths [][]string
	for _, scc := range g.detectLocked() {
		if path := g.cyclePathLocked(scc[0]); path != nil {
			paths = append(paths, path)
		}
	}
	return paths
}
