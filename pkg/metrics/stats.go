package metrics

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// rootIndex is the arena index of the synthetic top-level package record.
const rootIndex = 0

// recordKind tells which level of the hierarchy a record lives on.
type recordKind uint8

const (
	kindPackage recordKind = iota
	kindType
	kindOperation
)

func (k recordKind) String() string {
	switch k {
	case kindPackage:
		return "package"
	case kindType:
		return "type"
	default:
		return "operation"
	}
}

// memoKey addresses one cached value inside a record.
type memoKey struct {
	key     *Key
	version Version
}

// record is one package, type or operation in the stats hierarchy.
// Parent and children are arena indices. The memo table is guarded by mu.
type record struct {
	mu       sync.Mutex
	memo     map[memoKey]float64
	node     *node.Node
	name     string
	children []int
	parent   int
	kind     recordKind
}

func (r *record) lookup(mk memoKey) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	value, ok := r.memo[mk]

	return value, ok
}

// store caches value under mk. An existing entry is kept unless overwrite is
// set; the value now held by the record is returned.
func (r *record) store(mk memoKey, value float64, overwrite bool) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.memo[mk]; ok && !overwrite {
		return existing
	}

	r.memo[mk] = value

	return value
}

func (r *record) entries() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.memo)
}

// arena owns every stats record of one Context. Records are never removed
// individually; reset drops all of them at once.
type arena struct {
	mu       sync.Mutex
	records  []*record
	packages map[string]int
	nodes    map[*node.Node]int
}

func newArena() *arena {
	a := &arena{}
	a.reset()

	return a
}

func (a *arena) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = []*record{{kind: kindPackage, parent: -1, memo: make(map[memoKey]float64)}}
	a.packages = map[string]int{"": rootIndex}
	a.nodes = make(map[*node.Node]int)
}

func (a *arena) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.records)
}

func (a *arena) at(idx int) *record {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.records[idx]
}

// recordFor locates or creates the record for n and every record above it.
// Package-like nodes share the record of their qualified package name; types
// and operations are keyed by node identity. Nested types live under the
// record of their enclosing type. It panics for nodes that have no
// place in the hierarchy.
func (a *arena) recordFor(n *node.Node) *record {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.records[a.indexFor(n)]
}

func (a *arena) indexFor(n *node.Node) int {
	switch n.Category() {
	case node.CategoryPackage:
		return a.packageIndex(n.PackageName())
	case node.CategoryType:
		if idx, ok := a.nodes[n]; ok {
			return idx
		}

		parent := a.packageIndex(n.PackageName())
		if outer := n.EnclosingType(); outer != nil {
			parent = a.indexFor(outer)
		}

		return a.add(kindType, n, parent)
	case node.CategoryOperation:
		if idx, ok := a.nodes[n]; ok {
			return idx
		}

		var parent int
		if owner := n.EnclosingType(); owner != nil {
			parent = a.indexFor(owner)
		} else {
			parent = a.packageIndex(n.PackageName())
		}

		return a.add(kindOperation, n, parent)
	default:
		panic(fmt.Sprintf("metrics: %s has no place in the stats hierarchy", n))
	}
}

// packageIndex returns the record of a qualified package name, creating the
// chain of enclosing packages ("a", "a.b", "a.b.c") as needed. Each record is
// named by its last segment.
func (a *arena) packageIndex(qualified string) int {
	if idx, ok := a.packages[qualified]; ok {
		return idx
	}

	parent, name := rootIndex, qualified
	if dot := strings.LastIndexByte(qualified, '.'); dot > 0 {
		parent, name = a.packageIndex(qualified[:dot]), qualified[dot+1:]
	}

	idx := a.add(kindPackage, nil, parent)
	a.records[idx].name = name
	a.packages[qualified] = idx

	return idx
}

func (a *arena) add(kind recordKind, n *node.Node, parent int) int {
	idx := len(a.records)

	rec := &record{
		kind:   kind,
		node:   n,
		name:   n.Name(),
		parent: parent,
		memo:   make(map[memoKey]float64),
	}

	a.records = append(a.records, rec)
	a.records[parent].children = append(a.records[parent].children, idx)

	if n != nil {
		a.nodes[n] = idx
	}

	return idx
}

// path returns the names from the root to the record at idx, for diagnostics.
func (a *arena) path(idx int) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var names []string

	for curr := idx; curr > rootIndex; curr = a.records[curr].parent {
		names = append(names, a.records[curr].name)
	}

	slices.Reverse(names)

	return names
}
